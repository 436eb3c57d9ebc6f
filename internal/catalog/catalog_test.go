// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Catalog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", FileName)
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, path
}

func TestPutLoad_PreservesOrder(t *testing.T) {
	c, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "beta", []string{"m3"}))
	require.NoError(t, c.Put(ctx, "alpha", []string{"m2", "m1", "m10"}))

	got, err := c.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string][]string{
		"alpha": {"m2", "m1", "m10"},
		"beta":  {"m3"},
	}, got)
}

func TestPut_Replaces(t *testing.T) {
	c, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "alpha", []string{"m1", "m2"}))
	require.NoError(t, c.Put(ctx, "alpha", []string{"m9"}))

	entries, err := c.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, []string{"m9"}, entries[0].Models)
	require.False(t, entries[0].FetchedAt.IsZero())
}

func TestPut_EmptyClears(t *testing.T) {
	c, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "alpha", []string{"m1"}))
	require.NoError(t, c.Put(ctx, "alpha", nil))

	got, err := c.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDelete(t *testing.T) {
	c, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "alpha", []string{"m1"}))
	require.NoError(t, c.Put(ctx, "beta", []string{"m3"}))
	require.NoError(t, c.Delete(ctx, "alpha"))

	got, err := c.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string][]string{"beta": {"m3"}}, got)
}

func TestReopenKeepsData(t *testing.T) {
	c, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "alpha", []string{"m1"}))
	require.NoError(t, c.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"m1"}, got["alpha"])
}
