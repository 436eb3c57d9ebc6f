// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/moly-tui/internal/util"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testDebounce = 50 * time.Millisecond

func waitChange(t *testing.T, fw *FileWatcher) {
	t.Helper()
	select {
	case <-fw.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal")
	}
}

func TestFileWatcher_SignalsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("a = 1\n"), 0600))

	fw, err := New(path, testDebounce, nil)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(path, []byte("a = 2\n"), 0600))
	waitChange(t, fw)
}

func TestFileWatcher_SignalsOnAtomicReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	fw, err := New(path, testDebounce, nil)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, util.AtomicWriteFile(path, []byte("a = 1\n"), 0600))
	waitChange(t, fw)

	// A second replace is still seen after the rename.
	require.NoError(t, util.AtomicWriteFile(path, []byte("a = 2\n"), 0600))
	waitChange(t, fw)
}

func TestFileWatcher_CoalescesBurst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	fw, err := New(path, 200*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('0' + i)}, 0600))
	}
	waitChange(t, fw)

	select {
	case <-fw.Changes():
		t.Fatal("burst produced more than one signal")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	fw, err := New(filepath.Join(dir, "config.toml"), testDebounce, nil)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "preferences.json"), []byte("{}"), 0644))

	select {
	case <-fw.Changes():
		t.Fatal("sibling write should not signal")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileWatcher_CloseIsIdempotent(t *testing.T) {
	fw, err := New(filepath.Join(t.TempDir(), "config.toml"), testDebounce, nil)
	require.NoError(t, err)

	require.NoError(t, fw.Close())
	require.NoError(t, fw.Close())

	_, open := <-fw.Changes()
	require.False(t, open)
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "config.toml"), testDebounce, nil)
	require.Error(t, err)
}
