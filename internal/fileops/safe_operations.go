// file: internal/fileops/safe_operations.go
// version: 2.0.0
// guid: 8f7e6d5c-4b3a-2918-7f6e-5d4c3b2a1908

package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
)

// backupTimestampLayout sorts lexically in chronological order.
const backupTimestampLayout = "20060102_150405.000000000"

// OperationConfig configures safe write behavior
type OperationConfig struct {
	// BackupDir is where copies of the previous file are kept. Relative
	// paths are resolved against the target file's directory.
	BackupDir string
	// VerifyChecksums re-reads the written file and compares SHA256 sums
	VerifyChecksums bool
	// MaxBackups limits the number of backups kept per file; 0 disables backups
	MaxBackups int
	// Logger receives non-fatal warnings. Nil discards them.
	Logger *zap.Logger
}

// DefaultConfig returns the default safe write configuration
func DefaultConfig() OperationConfig {
	return OperationConfig{
		BackupDir:       ".library-backups",
		VerifyChecksums: true,
		MaxBackups:      5,
	}
}

// WriteOperation replaces a file's contents with rollback capability
type WriteOperation struct {
	config     OperationConfig
	targetPath string
	backupPath string
	data       []byte
	dataHash   string
	completed  bool
}

// NewWriteOperation prepares a safe replacement of targetPath with data
func NewWriteOperation(targetPath string, data []byte, config OperationConfig) (*WriteOperation, error) {
	op := &WriteOperation{
		config:     config,
		targetPath: targetPath,
		data:       data,
		dataHash:   ComputeHash(data),
	}

	if config.MaxBackups > 0 && config.BackupDir != "" {
		backupDir := resolveBackupDir(targetPath, config.BackupDir)
		if err := os.MkdirAll(backupDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create backup directory: %w", err)
		}
		timestamp := time.Now().Format(backupTimestampLayout)
		backupName := fmt.Sprintf("%s.%s.backup", filepath.Base(targetPath), timestamp)
		op.backupPath = filepath.Join(backupDir, backupName)
	}

	return op, nil
}

// Execute backs up the current file (if any), then writes the new contents
// through a temporary file and renames it into place.
func (op *WriteOperation) Execute() error {
	backedUp := false
	if op.backupPath != "" {
		if _, err := os.Stat(op.targetPath); err == nil {
			if err := copyFile(op.targetPath, op.backupPath); err != nil {
				return fmt.Errorf("failed to backup existing file: %w", err)
			}
			backedUp = true
		}
	}

	if err := writeFileAtomic(op.targetPath, op.data); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if op.config.VerifyChecksums {
		written, err := ComputeFileHash(op.targetPath)
		if err != nil {
			return fmt.Errorf("failed to verify target checksum: %w", err)
		}
		if written != op.dataHash {
			if backedUp {
				_ = copyFile(op.backupPath, op.targetPath)
			}
			return fmt.Errorf("checksum mismatch: write failed integrity check")
		}
	}

	op.completed = true

	if backedUp {
		if err := op.cleanupOldBackups(); err != nil {
			// Non-fatal: the write itself succeeded
			op.logger().Warn("failed to clean up old backups",
				zap.String("path", op.targetPath), zap.Error(err))
		}
	}

	return nil
}

// Rollback restores the previous contents from the backup
func (op *WriteOperation) Rollback() error {
	if !op.completed {
		return fmt.Errorf("operation not completed, nothing to rollback")
	}
	if op.backupPath == "" {
		return fmt.Errorf("no backup was taken, cannot rollback")
	}
	if _, err := os.Stat(op.backupPath); err != nil {
		return fmt.Errorf("backup missing: %w", err)
	}
	if err := copyFile(op.backupPath, op.targetPath); err != nil {
		return fmt.Errorf("failed to restore from backup: %w", err)
	}
	return nil
}

func (op *WriteOperation) logger() *zap.Logger {
	if op.config.Logger == nil {
		return zap.NewNop()
	}
	return op.config.Logger
}

// BackupPath returns where the previous contents were copied, if anywhere
func (op *WriteOperation) BackupPath() string {
	return op.backupPath
}

// cleanupOldBackups removes the oldest backups beyond MaxBackups
func (op *WriteOperation) cleanupOldBackups() error {
	matches, err := ListFileBackups(op.targetPath, op.config.BackupDir)
	if err != nil {
		return err
	}
	if len(matches) <= op.config.MaxBackups {
		return nil
	}

	toRemove := len(matches) - op.config.MaxBackups
	for i := 0; i < toRemove; i++ {
		if err := os.Remove(matches[i]); err != nil {
			op.logger().Warn("failed to remove old backup",
				zap.String("backup", matches[i]), zap.Error(err))
		}
	}
	return nil
}

// ListFileBackups returns the rotated backups of targetPath, oldest first
func ListFileBackups(targetPath, backupDir string) ([]string, error) {
	dir := resolveBackupDir(targetPath, backupDir)
	pattern := filepath.Join(dir, fmt.Sprintf("%s.*.backup", filepath.Base(targetPath)))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// SafeWrite replaces targetPath with data, keeping a rotated backup of the
// previous contents and verifying the result.
func SafeWrite(targetPath string, data []byte, config OperationConfig) error {
	op, err := NewWriteOperation(targetPath, data, config)
	if err != nil {
		return err
	}
	return op.Execute()
}

func resolveBackupDir(targetPath, backupDir string) string {
	if filepath.IsAbs(backupDir) {
		return backupDir
	}
	return filepath.Join(filepath.Dir(targetPath), backupDir)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// copyFile copies a file from src to dst, syncing the destination
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	sourceInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, sourceInfo.Mode())
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.Write(data); err != nil {
		return err
	}
	return destFile.Sync()
}
