// file: internal/backup/backup_test.go
// version: 2.0.0
// guid: c3d4e5f6-a7b8-9c0d-1e2f-3a4b5c6d7e8f

package backup

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/fileops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = "Dune,Frank Herbert,111,2,1,10.06.2024\nEmma,Jane Austen,222,1,0,01.01.0001\n"

func setupDataFile(t *testing.T, content string) (string, BackupConfig) {
	t.Helper()
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "librarydata.txt")
	require.NoError(t, os.WriteFile(dataFile, []byte(content), 0644))
	return dataFile, BackupConfig{
		BackupDir:        filepath.Join(dir, "backups"),
		MaxBackups:       3,
		CompressionLevel: gzip.BestSpeed,
	}
}

// TestDefaultBackupConfig tests the default backup configuration
func TestDefaultBackupConfig(t *testing.T) {
	config := DefaultBackupConfig()

	assert.Equal(t, "backups", config.BackupDir)
	assert.Equal(t, 10, config.MaxBackups)
	assert.Equal(t, gzip.BestCompression, config.CompressionLevel)
}

// TestCreateBackup tests archive creation and checksum recording
func TestCreateBackup(t *testing.T) {
	dataFile, config := setupDataFile(t, sampleCatalog)

	info, err := CreateBackup(dataFile, config)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(info.Filename, "librarydata_"))
	assert.True(t, strings.HasSuffix(info.Filename, ".tar.gz"))
	assert.FileExists(t, info.Path)
	assert.FileExists(t, info.Path+".sha256")
	assert.Positive(t, info.Size)

	hash, err := fileops.ComputeFileHash(info.Path)
	require.NoError(t, err)
	assert.Equal(t, hash, info.Checksum)

	data, err := readArchive(info.Path)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(data))
}

// TestCreateBackupMissingDataFile tests that nothing is archived without a data file
func TestCreateBackupMissingDataFile(t *testing.T) {
	dir := t.TempDir()
	_, err := CreateBackup(filepath.Join(dir, "missing.txt"), BackupConfig{BackupDir: filepath.Join(dir, "b"), MaxBackups: 1})
	assert.Error(t, err)
}

// TestListBackups tests listing order and checksum lookup
func TestListBackups(t *testing.T) {
	dataFile, config := setupDataFile(t, sampleCatalog)

	first, err := CreateBackup(dataFile, config)
	require.NoError(t, err)
	second, err := CreateBackup(dataFile, config)
	require.NoError(t, err)

	// Unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(config.BackupDir, "notes.txt"), []byte("x"), 0644))

	backups, err := ListBackups(config.BackupDir)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, first.Filename, backups[0].Filename)
	assert.Equal(t, second.Filename, backups[1].Filename)
	assert.Equal(t, first.Checksum, backups[0].Checksum)
}

// TestListBackupsMissingDir tests that a missing directory is not an error
func TestListBackupsMissingDir(t *testing.T) {
	backups, err := ListBackups(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, backups)
}

// TestBackupRotation tests that only MaxBackups archives are kept
func TestBackupRotation(t *testing.T) {
	dataFile, config := setupDataFile(t, sampleCatalog)
	config.MaxBackups = 2

	var last *BackupInfo
	for i := 0; i < 4; i++ {
		info, err := CreateBackup(dataFile, config)
		require.NoError(t, err)
		last = info
	}

	backups, err := ListBackups(config.BackupDir)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, last.Filename, backups[1].Filename)

	sums, err := filepath.Glob(filepath.Join(config.BackupDir, "*.sha256"))
	require.NoError(t, err)
	assert.Len(t, sums, 2)
}

// TestRestoreBackup tests that a restore brings back the archived catalog
func TestRestoreBackup(t *testing.T) {
	dataFile, config := setupDataFile(t, sampleCatalog)
	info, err := CreateBackup(dataFile, config)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(dataFile, []byte("Persuasion,Jane Austen,333,1,0,01.01.0001\n"), 0644))

	require.NoError(t, RestoreBackup(info.Path, dataFile, true, fileops.OperationConfig{}))

	data, err := os.ReadFile(dataFile)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(data))
}

// TestRestoreBackupChecksumMismatch tests that a tampered archive is refused
func TestRestoreBackupChecksumMismatch(t *testing.T) {
	dataFile, config := setupDataFile(t, sampleCatalog)
	info, err := CreateBackup(dataFile, config)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(info.Path+".sha256", []byte("deadbeef\n"), 0644))

	err = RestoreBackup(info.Path, dataFile, true, fileops.OperationConfig{})
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	// Without verification the archive itself is still readable
	assert.NoError(t, RestoreBackup(info.Path, dataFile, false, fileops.OperationConfig{}))
}

// TestRestoreBackupRejectsInvalidCatalog tests that a corrupt snapshot never replaces the data file
func TestRestoreBackupRejectsInvalidCatalog(t *testing.T) {
	dataFile, config := setupDataFile(t, "not,a,valid,record\n")
	info, err := CreateBackup(dataFile, config)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(dataFile, []byte(sampleCatalog), 0644))

	err = RestoreBackup(info.Path, dataFile, true, fileops.OperationConfig{})
	assert.ErrorIs(t, err, codec.ErrMalformedRecord)

	data, err := os.ReadFile(dataFile)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(data))
}

// TestDeleteBackup tests removal of an archive and its checksum
func TestDeleteBackup(t *testing.T) {
	dataFile, config := setupDataFile(t, sampleCatalog)
	info, err := CreateBackup(dataFile, config)
	require.NoError(t, err)

	require.NoError(t, DeleteBackup(info.Path))
	assert.NoFileExists(t, info.Path)
	assert.NoFileExists(t, info.Path+".sha256")

	assert.Error(t, DeleteBackup(info.Path))
}
