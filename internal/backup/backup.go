// file: internal/backup/backup.go
// version: 2.0.0
// guid: 8f9e0a1b-2c3d-4e5f-6a7b-8c9d0e1f2a3b

package backup

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/fileops"
	"github.com/jdfalk/lending-library/internal/logger"
	"go.uber.org/zap"
)

const (
	archiveSuffix  = ".tar.gz"
	checksumSuffix = ".sha256"
)

var (
	// ErrChecksumMismatch is returned when an archive no longer matches the
	// checksum recorded at creation time.
	ErrChecksumMismatch = errors.New("backup checksum mismatch")
	// ErrEmptyArchive is returned when an archive holds no data file.
	ErrEmptyArchive = errors.New("backup archive contains no data file")
)

// BackupInfo contains information about a backup
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupConfig holds backup configuration
type BackupConfig struct {
	BackupDir        string
	MaxBackups       int
	CompressionLevel int
	Logger           *zap.Logger
}

// DefaultBackupConfig returns default backup configuration
func DefaultBackupConfig() BackupConfig {
	return BackupConfig{
		BackupDir:        "backups",
		MaxBackups:       10,
		CompressionLevel: gzip.BestCompression,
	}
}

// CreateBackup writes a compressed snapshot of the data file and records its
// SHA256 checksum next to it.
func CreateBackup(dataFile string, config BackupConfig) (*BackupInfo, error) {
	log := logger.OrNop(config.Logger)

	data, err := os.ReadFile(dataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	info, err := os.Stat(dataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat data file: %w", err)
	}

	if err := os.MkdirAll(config.BackupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	// Generate backup filename with timestamp
	base := strings.TrimSuffix(filepath.Base(dataFile), filepath.Ext(dataFile))
	timestamp := time.Now().Format("20060102_150405.000000000")
	backupFilename := fmt.Sprintf("%s_%s%s", base, timestamp, archiveSuffix)
	backupPath := filepath.Join(config.BackupDir, backupFilename)

	var buf bytes.Buffer
	if err := writeArchive(&buf, filepath.Base(dataFile), data, info.ModTime(), config.CompressionLevel); err != nil {
		return nil, fmt.Errorf("failed to build archive: %w", err)
	}
	if err := os.WriteFile(backupPath, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}

	checksum := fileops.ComputeHash(buf.Bytes())
	if err := os.WriteFile(backupPath+checksumSuffix, []byte(checksum+"\n"), 0644); err != nil {
		_ = os.Remove(backupPath)
		return nil, fmt.Errorf("failed to write checksum: %w", err)
	}

	result := &BackupInfo{
		Filename:  backupFilename,
		Path:      backupPath,
		Size:      int64(buf.Len()),
		Checksum:  checksum,
		CreatedAt: time.Now(),
	}
	log.Info("backup created", zap.String("path", backupPath), zap.Int64("size", result.Size))

	// Clean up old backups
	if err := cleanupOldBackups(config.BackupDir, config.MaxBackups, log); err != nil {
		log.Warn("failed to clean up old backups", zap.Error(err))
	}

	return result, nil
}

// RestoreBackup replaces the data file with the snapshot in backupPath. The
// snapshot must decode as a valid catalog; the current data file is kept as
// a safe write backup.
func RestoreBackup(backupPath, dataFile string, verify bool, writeCfg fileops.OperationConfig) error {
	if verify {
		if err := verifyChecksum(backupPath); err != nil {
			return err
		}
	}

	data, err := readArchive(backupPath)
	if err != nil {
		return err
	}

	if _, err := codec.DecodeAll(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("backup does not contain a valid catalog: %w", err)
	}

	if err := fileops.SafeWrite(dataFile, data, writeCfg); err != nil {
		return fmt.Errorf("failed to restore data file: %w", err)
	}
	return nil
}

// ListBackups lists all available backups, oldest first
func ListBackups(backupDir string) ([]BackupInfo, error) {
	var backups []BackupInfo

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil // No backups directory yet
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), archiveSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backupPath := filepath.Join(backupDir, entry.Name())
		checksum, _ := readChecksum(backupPath)

		backups = append(backups, BackupInfo{
			Filename:  entry.Name(),
			Path:      backupPath,
			Size:      info.Size(),
			Checksum:  checksum,
			CreatedAt: info.ModTime(),
		})
	}

	// Timestamped names sort chronologically
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Filename < backups[j].Filename
	})
	return backups, nil
}

// DeleteBackup deletes a specific backup file and its checksum
func DeleteBackup(backupPath string) error {
	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	if err := os.Remove(backupPath + checksumSuffix); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete backup checksum: %w", err)
	}
	return nil
}

func writeArchive(w io.Writer, name string, data []byte, modTime time.Time, level int) error {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	gzipWriter, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	tarWriter := tar.NewWriter(gzipWriter)

	header := &tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     int64(len(data)),
		ModTime:  modTime,
		Typeflag: tar.TypeReg,
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}
	if _, err := tarWriter.Write(data); err != nil {
		return err
	}

	// Close writers to ensure all data is flushed
	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}

// readArchive returns the contents of the first regular file in the archive.
func readArchive(backupPath string) ([]byte, error) {
	backupFile, err := os.Open(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer backupFile.Close()

	gzipReader, err := gzip.NewReader(backupFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil, ErrEmptyArchive
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from archive: %w", header.Name, err)
		}
		return data, nil
	}
}

func readChecksum(backupPath string) (string, error) {
	data, err := os.ReadFile(backupPath + checksumSuffix)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func verifyChecksum(backupPath string) error {
	want, err := readChecksum(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read recorded checksum: %w", err)
	}
	got, err := fileops.ComputeFileHash(backupPath)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}
	if got != want {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, filepath.Base(backupPath))
	}
	return nil
}

// cleanupOldBackups removes old backups exceeding the maximum count
func cleanupOldBackups(backupDir string, maxBackups int, log *zap.Logger) error {
	if maxBackups <= 0 {
		return nil
	}
	backups, err := ListBackups(backupDir)
	if err != nil {
		return err
	}

	if len(backups) <= maxBackups {
		return nil
	}

	// Delete oldest backups
	deleteCount := len(backups) - maxBackups
	for i := 0; i < deleteCount; i++ {
		if err := DeleteBackup(backups[i].Path); err != nil {
			log.Warn("failed to delete old backup", zap.String("file", backups[i].Filename), zap.Error(err))
		}
	}

	return nil
}
