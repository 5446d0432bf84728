package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CheckOutputDir(dir))
	require.NoError(t, CheckOutputDir(dir))

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.NoError(t, CheckFile(file))
	assert.Error(t, CheckOutputDir(file))
	assert.Error(t, CheckFile(filepath.Join(dir, "missing")))
	assert.Error(t, CheckFile(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "out.txt")
	require.NoError(t, WriteAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "first")
		return err
	}))

	boom := errors.New("boom")
	err := WriteAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(raw))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBackupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bk.csv")
	require.NoError(t, os.WriteFile(path, []byte("row_key\n"), 0644))

	bak, err := BackupFile(path)
	require.NoError(t, err)
	raw, err := os.ReadFile(bak)
	require.NoError(t, err)
	assert.Equal(t, "row_key\n", string(raw))

	_, err = BackupFile(path + ".missing")
	assert.Error(t, err)
}
