// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"maps"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/export"
	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/store"
)

// =============================================================================
// PROVIDERS
// =============================================================================

type providerRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Endpoint string `json:"endpoint"`
	State    string `json:"state"`
	Models   int    `json:"models"`
	Active   bool   `json:"active"`
}

func providerState(d provider.Descriptor) string {
	switch {
	case !d.Enabled:
		return "disabled"
	case !d.HasCredentials():
		return "unconfigured"
	case d.Status == provider.StatusDegraded:
		return "degraded"
	default:
		return "enabled"
	}
}

func newProvidersCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "providers",
		Aliases: []string{"p"},
		Short:   "List configured providers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			return OutputJSON(out, flags.json, "providers", func() (any, error) {
				snap := e.store.Snapshot()
				rows := make([]providerRow, 0, len(snap.Providers))
				for _, d := range snap.Providers {
					rows = append(rows, providerRow{
						ID:       d.ID,
						Name:     d.DisplayName(),
						Kind:     string(d.Kind),
						Endpoint: d.Endpoint,
						State:    providerState(d),
						Models:   len(snap.ModelsFor(d.ID)),
						Active:   d.ID == snap.ActiveProvider,
					})
				}
				if !flags.json {
					printProviders(out, rows)
				}
				return rows, nil
			})
		},
	}
}

func printProviders(w io.Writer, rows []providerRow) {
	fmt.Fprintln(w, TitleStyle.Render("Providers"))
	fmt.Fprintln(w, RenderSeparator())
	for _, r := range rows {
		active := ""
		if r.Active {
			active = SuccessStyle.Render(" (active)")
		}
		fmt.Fprintf(w, "%s %s%s\n", RenderStatus(r.State), RenderLabel(r.Name), active)
		fmt.Fprintf(w, "       %s\n", DimStyle.Render(fmt.Sprintf("%s  %s  %d models", r.Kind, r.Endpoint, r.Models)))
	}
}

// =============================================================================
// MODELS
// =============================================================================

type modelRow struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Name         string `json:"name,omitempty"`
	Capabilities string `json:"capabilities,omitempty"`
}

type modelsReport struct {
	Models []modelRow        `json:"models"`
	Errors map[string]string `json:"errors,omitempty"`
}

func newModelsCommand(flags *globalFlags) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"m"},
		Short:   "List models from every enabled provider",
		Long: `List the aggregate model list: every enabled provider's models in
provider order. Without --refresh the last-known models stored by an
earlier run are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			return OutputJSON(out, flags.json, "models", func() (any, error) {
				report := modelsReport{Models: []modelRow{}}
				if refresh {
					report.Errors = refreshModels(cmd, e.store)
				}
				for _, ref := range e.store.Snapshot().Models {
					row := modelRow{Provider: ref.ProviderID, Model: ref.ModelID}
					if info, ok := model.Describe(ref); ok {
						row.Name = info.Name
						row.Capabilities = info.CapabilitiesString()
					}
					report.Models = append(report.Models, row)
				}
				if !flags.json {
					printModels(out, report)
				}
				return report, nil
			})
		},
	}
	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "fetch model lists from the providers first")
	return cmd
}

// refreshModels fetches every enabled provider and applies the results. It
// returns the fetch error per unreachable provider.
func refreshModels(cmd *cobra.Command, s *store.Store) map[string]string {
	results := s.FetchModels(cmd.Context(), s.Snapshot())
	if len(results) == 0 {
		return nil
	}
	errs := make(map[string]string)
	for _, res := range results {
		if res.Err != nil {
			errs[res.ProviderID] = res.Err.Error()
		}
	}
	if err := s.Apply(store.ProviderModelsLoaded{Results: results}); err != nil {
		errs["*"] = err.Error()
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func printModels(w io.Writer, report modelsReport) {
	fmt.Fprintln(w, TitleStyle.Render("Models"))
	fmt.Fprintln(w, RenderSeparator())
	if len(report.Models) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No models known. Run 'moly models --refresh'."))
	}
	current := ""
	for _, r := range report.Models {
		if r.Provider != current {
			current = r.Provider
			fmt.Fprintln(w, TitleStyle.Render(current))
		}
		line := "  " + r.Model
		if r.Name != "" {
			line += "  " + DimStyle.Render(r.Name+" - "+r.Capabilities)
		}
		fmt.Fprintln(w, line)
	}
	for _, id := range slices.Sorted(maps.Keys(report.Errors)) {
		fmt.Fprintf(w, "%s %s: %s\n", RenderStatus("error"), id, report.Errors[id])
	}
}

// =============================================================================
// PREFERENCES
// =============================================================================

func newPrefsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prefs",
		Short: "Show stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			return OutputJSON(out, flags.json, "prefs", func() (any, error) {
				p := e.store.Snapshot().Preferences
				if !flags.json {
					last := "none"
					if p.LastSelectedModel != nil {
						last = p.LastSelectedModel.String()
					}
					fmt.Fprintln(out, TitleStyle.Render("Preferences"))
					fmt.Fprintln(out, RenderSeparator())
					fmt.Fprintln(out, RenderLabel("Theme")+string(p.Theme))
					fmt.Fprintln(out, RenderLabel("Sidebar expanded")+fmt.Sprint(p.SidebarExpanded))
					fmt.Fprintln(out, RenderLabel("Active view")+string(p.ActiveView))
					fmt.Fprintln(out, RenderLabel("Last model")+last)
					fmt.Fprintln(out, RenderLabel("File")+DimStyle.Render(e.prefs.Path()))
				}
				return p, nil
			})
		},
	}
}

// =============================================================================
// CHATS
// =============================================================================

func newChatsCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List saved conversations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			return OutputJSON(out, flags.json, "chats", func() (any, error) {
				metas, err := e.convs.List()
				if err != nil {
					return nil, err
				}
				if !flags.json {
					fmt.Fprintln(out, TitleStyle.Render("Chats"))
					fmt.Fprintln(out, RenderSeparator())
					if len(metas) == 0 {
						fmt.Fprintln(out, DimStyle.Render("No saved chats."))
					}
					for _, m := range metas {
						fmt.Fprintf(out, "%s  %s\n", m.Title,
							DimStyle.Render(fmt.Sprintf("%s  %d messages  %s",
								m.Model, m.MessageCount, m.UpdatedAt.Local().Format(time.DateTime))))
					}
				}
				return metas, nil
			})
		},
	}
	cmd.AddCommand(newChatsExportCommand(flags))
	return cmd
}

type exportResult struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Path   string `json:"path"`
}

func newChatsExportCommand(flags *globalFlags) *cobra.Command {
	var (
		format        string
		outputDir     string
		includeFailed bool
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a saved conversation to Markdown or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			return OutputJSON(out, flags.json, "chats export", func() (any, error) {
				conv, err := e.convs.Load(args[0])
				if err != nil {
					return nil, fmt.Errorf("load %s: %w", args[0], err)
				}

				opts := export.DefaultOptions()
				opts.OutputDir = outputDir
				opts.IncludeFailed = includeFailed
				exp, err := export.ForFormat(format, opts)
				if err != nil {
					return nil, err
				}
				path, err := export.ExportToFile(conv, exp, opts)
				if err != nil {
					return nil, err
				}
				e.logger.Info("conversation exported", zap.String("id", conv.ID), zap.String("path", path))

				if !flags.json {
					fmt.Fprintln(out, SuccessStyle.Render("Exported")+" "+path)
				}
				return exportResult{ID: conv.ID, Format: format, Path: path}, nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "export format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory to write the export into")
	cmd.Flags().BoolVar(&includeFailed, "include-failed", false, "keep failed or unfinished replies")
	return cmd
}

// =============================================================================
// VERSION
// =============================================================================

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func newVersionCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return OutputJSON(out, flags.json, "version", func() (any, error) {
				if !flags.json {
					fmt.Fprintln(out, versionString())
				}
				return versionInfo{
					Version:   Version,
					GitCommit: GitCommit,
					BuildDate: BuildDate,
					GoVersion: runtime.Version(),
					Platform:  runtime.GOOS + "/" + runtime.GOARCH,
				}, nil
			})
		},
	}
}
