// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/aggregate"
	"github.com/jeranaias/moly-tui/internal/catalog"
	"github.com/jeranaias/moly-tui/internal/config"
	"github.com/jeranaias/moly-tui/internal/logging"
	"github.com/jeranaias/moly-tui/internal/mcp"
	"github.com/jeranaias/moly-tui/internal/prefs"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/router"
	"github.com/jeranaias/moly-tui/internal/storage"
	"github.com/jeranaias/moly-tui/internal/store"
	"github.com/jeranaias/moly-tui/internal/view"
	"github.com/jeranaias/moly-tui/internal/watch"
)

// env is everything a command needs, built from the config file.
type env struct {
	cfg        *config.Config
	configPath string
	dataDir    string
	mcpPath    string

	logger  *zap.Logger
	prefs   *prefs.Store
	convs   *storage.ConversationStore
	catalog *catalog.Catalog
	router  *router.Router
	store   *store.Store

	closers []func() error
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

// bootstrap loads configuration, opens the data directory and builds the
// store with persisted conversations and the model catalog restored.
func bootstrap(ctx context.Context, flags *globalFlags) (*env, error) {
	configPath := flags.configPath
	if configPath == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	dataDir, err := cfg.ResolvedDataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Path: config.LogPath(dataDir)})
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:        cfg,
		configPath: configPath,
		dataDir:    dataDir,
		mcpPath:    filepath.Join(dataDir, mcp.FileName),
		logger:     logger,
	}
	e.closers = append(e.closers, func() error {
		// Sync fails on some terminals' stderr; the log file is what matters.
		_ = logger.Sync()
		return nil
	})

	if err := e.open(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) open(ctx context.Context) error {
	e.prefs = prefs.NewStoreInDir(e.dataDir, e.logger)

	convs, err := storage.NewConversationStoreWithDir(config.ChatsDir(e.dataDir))
	if err != nil {
		return fmt.Errorf("failed to open conversation store: %w", err)
	}
	e.convs = convs

	cat, err := catalog.Open(filepath.Join(e.dataDir, catalog.FileName))
	if err != nil {
		return err
	}
	e.catalog = cat
	e.closers = append(e.closers, cat.Close)

	mcpCfg, err := mcp.Load(e.mcpPath)
	if err != nil {
		e.logger.Warn("mcp config unreadable; starting empty", zap.String("path", e.mcpPath), zap.Error(err))
	}

	e.router = router.New(router.Options{Timeout: e.cfg.FetchTimeout(), Logger: e.logger})
	agg := aggregate.New(aggregate.Options{
		Fetcher:      e.router,
		Switcher:     e.router,
		FetchTimeout: e.cfg.FetchTimeout(),
		Logger:       e.logger,
	})

	e.store = store.New(store.Options{
		Aggregator:    agg,
		Providers:     e.cfg.Descriptors(),
		Preferences:   startupPrefs{Store: e.prefs, view: e.cfg.StartupViewID()},
		Conversations: e.convs,
		Catalog:       e.catalog,
		SaveProviders: e.saveProviders,
		MCP:           mcpCfg,
		SaveMCP: func(cfg mcp.Config) error {
			return mcp.Save(e.mcpPath, cfg)
		},
		Logger: e.logger,
	})

	if known, err := e.catalog.Load(ctx); err != nil {
		e.logger.Warn("model catalog unreadable", zap.Error(err))
	} else if len(known) > 0 {
		if err := e.store.Apply(store.RestoreCatalog{Models: known}); err != nil {
			e.logger.Warn("model catalog not restored", zap.Error(err))
		}
	}

	loaded, skipped, err := e.convs.LoadAll()
	if err != nil {
		e.logger.Warn("conversations unreadable", zap.Error(err))
	}
	if skipped > 0 {
		e.logger.Warn("skipped unreadable conversations", zap.Int("count", skipped))
	}
	if len(loaded) > 0 {
		if err := e.store.Apply(store.LoadConversations{Conversations: loaded}); err != nil {
			e.logger.Warn("conversations not loaded", zap.Error(err))
		}
	}

	e.logger.Info("bootstrap complete",
		zap.String("config", e.configPath),
		zap.String("data_dir", e.dataDir),
		zap.Int("providers", len(e.cfg.Providers)),
		zap.Int("conversations", len(loaded)))
	return nil
}

// Close releases everything bootstrap opened, in reverse order.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && e.logger != nil {
			e.logger.Warn("close failed", zap.Error(err))
		}
	}
	e.closers = nil
}

// =============================================================================
// PERSISTENCE HOOKS
// =============================================================================

// saveProviders writes provider edits back to config.toml. API keys are
// taken from the file, so keys supplied through the environment are never
// written to disk.
func (e *env) saveProviders(ds []provider.Descriptor) error {
	out := config.Default()
	if _, err := os.Stat(e.configPath); err == nil {
		out = &config.Config{}
		if err := config.LoadTOML(out, e.configPath); err != nil {
			return err
		}
	}
	keys := make(map[string]string, len(out.Providers))
	for _, p := range out.Providers {
		keys[p.ID] = p.APIKey
	}

	scrubbed := make([]provider.Descriptor, len(ds))
	for i, d := range ds {
		d.APIKey = keys[d.ID]
		scrubbed[i] = d
	}
	out.SetProviders(scrubbed)
	return out.SaveTOML(e.configPath)
}

// reloadProviders re-reads config.toml for hot reload.
func (e *env) reloadProviders() ([]provider.Descriptor, error) {
	cfg, err := config.LoadFromPath(e.configPath)
	if err != nil {
		return nil, err
	}
	return cfg.Descriptors(), nil
}

func (e *env) reloadMCP() (mcp.Config, error) {
	return mcp.Load(e.mcpPath)
}

func (e *env) watchConfig() (*watch.FileWatcher, error) {
	if err := os.MkdirAll(filepath.Dir(e.configPath), 0755); err != nil {
		return nil, err
	}
	return e.watch(e.configPath)
}

func (e *env) watchMCP() (*watch.FileWatcher, error) {
	return e.watch(e.mcpPath)
}

func (e *env) watch(path string) (*watch.FileWatcher, error) {
	w, err := watch.New(path, watch.DefaultDebounce, e.logger)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, w.Close)
	return w, nil
}

// =============================================================================
// STARTUP PREFERENCES
// =============================================================================

// startupPrefs applies the configured startup view when no preferences file
// exists yet.
type startupPrefs struct {
	*prefs.Store
	view view.ID
}

func (s startupPrefs) Load() prefs.Preferences {
	if _, err := s.Read(); errors.Is(err, os.ErrNotExist) {
		p := prefs.Defaults()
		p.ActiveView = s.view
		return p
	}
	return s.Store.Load()
}
