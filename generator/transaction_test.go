package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Success(t *testing.T) {
	tempDir := t.TempDir()

	tx := NewTransaction()
	tx.AddFile(filepath.Join(tempDir, "file1.txt"), []byte("content1"), 0644)
	tx.AddFile(filepath.Join(tempDir, "nested", "file2.txt"), []byte("content2"), 0600)
	assert.Equal(t, 2, tx.Len())

	require.NoError(t, tx.Commit())

	content1, err := os.ReadFile(filepath.Join(tempDir, "file1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content1", string(content1))

	info, err := os.Stat(filepath.Join(tempDir, "nested", "file2.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestTransaction_RollbackOnErrorRestoresPreviousContent(t *testing.T) {
	tempDir := t.TempDir()
	existing := filepath.Join(tempDir, "existing.txt")
	created := filepath.Join(tempDir, "created.txt")
	require.NoError(t, os.WriteFile(existing, []byte("before"), 0644))

	tx := NewTransaction()
	tx.AddFile(existing, []byte("after"), 0644)
	tx.AddFile(created, []byte("new"), 0644)
	tx.AddFile(filepath.Join(tempDir, "\x00invalid", "file.txt"), []byte("x"), 0644)

	require.Error(t, tx.Commit())

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "before", string(content))

	_, err = os.Stat(created)
	assert.True(t, os.IsNotExist(err), "created.txt should have been removed")
}

func TestTransaction_CannotCommitTwice(t *testing.T) {
	tx := NewTransaction()
	tx.AddFile(filepath.Join(t.TempDir(), "file1.txt"), []byte("content1"), 0644)

	require.NoError(t, tx.Commit())
	assert.Error(t, tx.Commit())
}

func TestTransaction_RollbackAfterCommitIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file1.txt")

	tx := NewTransaction()
	tx.AddFile(path, []byte("content1"), 0644)
	require.NoError(t, tx.Commit())

	tx.Rollback()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content1", string(content))
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.h")

	require.NoError(t, writeFileAtomic(path, []byte("one"), 0644))
	require.NoError(t, writeFileAtomic(path, []byte("two"), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.h", entries[0].Name())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(content))
}
