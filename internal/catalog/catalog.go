// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog persists the last model list fetched from each provider in
// SQLite, so a provider that is unreachable at startup still contributes the
// models it offered last time.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// FileName is the database file name inside the data directory.
const FileName = "catalog.db"

// Entry is one provider's stored model list.
type Entry struct {
	ProviderID string
	Models     []string
	FetchedAt  time.Time
}

// Catalog is the SQLite-backed model catalog.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Put replaces the stored models of a provider.
func (c *Catalog) Put(ctx context.Context, providerID string, models []string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM provider_models WHERE provider_id = ?", providerID); err != nil {
		return fmt.Errorf("failed to clear models: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO provider_models (provider_id, position, model_id, fetched_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i, m := range models {
		if _, err := stmt.ExecContext(ctx, providerID, i, m, now); err != nil {
			return fmt.Errorf("failed to insert model %q: %w", m, err)
		}
	}

	return tx.Commit()
}

// Delete removes a provider's stored models.
func (c *Catalog) Delete(ctx context.Context, providerID string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM provider_models WHERE provider_id = ?", providerID); err != nil {
		return fmt.Errorf("failed to delete models: %w", err)
	}
	return nil
}

// Load returns every provider's stored models.
func (c *Catalog) Load(ctx context.Context) (map[string][]string, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(entries))
	for _, e := range entries {
		out[e.ProviderID] = e.Models
	}
	return out, nil
}

// Entries returns every provider's stored models with their fetch time,
// ordered by provider id.
func (c *Catalog) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT provider_id, model_id, fetched_at
		FROM provider_models
		ORDER BY provider_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var providerID, modelID string
		var fetched int64
		if err := rows.Scan(&providerID, &modelID, &fetched); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		if n := len(entries); n == 0 || entries[n-1].ProviderID != providerID {
			entries = append(entries, Entry{ProviderID: providerID, FetchedAt: time.Unix(fetched, 0)})
		}
		last := &entries[len(entries)-1]
		last.Models = append(last.Models, modelID)
	}
	return entries, rows.Err()
}
