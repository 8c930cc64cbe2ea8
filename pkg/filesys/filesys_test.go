package filesys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDirCreatesNewDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	require.NoError(t, CreateDir(dir, 0o755, true))

	stat, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}

func TestCreateDirForceAllowsExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, CreateDir(dir, 0o755, true))
}

func TestCreateDirWithoutForceFailsOnExisting(t *testing.T) {
	dir := t.TempDir()
	err := CreateDir(dir, 0o755, false)
	assert.Error(t, err)
}

func TestCreateDirRejectsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	err := CreateDir(path, 0o755, true)
	assert.ErrorIs(t, err, ErrIsNotDir)
}

func TestExistsReportsTrueForPresentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "present")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	ok, err := Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExistsReportsFalseForMissingFile(t *testing.T) {
	ok, err := Exists(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}
