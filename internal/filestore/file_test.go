package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ganot/quickssh/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestFile_ReadWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := New(filepath.Join(dir, "nested", "sessions.json"), filepath.Join(dir, "menu", "Main.sublime-menu"))

	_, err := f.Read(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, f.Write(ctx, []byte("[]")))
	data, err := f.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))

	require.NoError(t, f.Write(ctx, []byte("[ ]")))
	data, err = f.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, "[ ]", string(data))

	require.NoError(t, f.WriteMenu(ctx, []byte("menu")))
	menu, err := os.ReadFile(filepath.Join(dir, "menu", "Main.sublime-menu"))
	require.NoError(t, err)
	require.Equal(t, "menu", string(menu))

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")

	info, err := os.Stat(f.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFile_NoMenuPath(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "sessions.json"), "")
	require.NoError(t, f.WriteMenu(context.Background(), []byte("ignored")))
}

func TestFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(filepath.Join(t.TempDir(), "sessions.json"), "")
	require.ErrorIs(t, f.Write(ctx, []byte("[]")), context.Canceled)
	_, err := f.Read(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
