// file: internal/config/config.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"path/filepath"
	"strings"

	"github.com/jdfalk/lending-library/internal/backup"
	"github.com/jdfalk/lending-library/internal/fileops"
	"github.com/jdfalk/lending-library/internal/logger"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. LENDING_DATA_FILE.
const EnvPrefix = "LENDING"

// ServerConfig holds serve-mode settings
type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerMinute int
	WatchDataFile      bool
	BasicAuthEnabled   bool
	BasicAuthUsername  string
	BasicAuthPassword  string
	BasicAuthHash      string
}

// Config holds application configuration
type Config struct {
	DataFile     string
	BackupDir    string
	MaxBackups   int
	ArchiveDir   string
	MaxArchives  int
	PersistLoans bool
	LogLevel     string
	LogFormat    string
	LogFile      string
	Server       ServerConfig
}

var AppConfig Config

// SetDefaults registers the default value of every key
func SetDefaults() {
	viper.SetDefault("data_file", "librarydata.txt")
	viper.SetDefault("backup_dir", ".library-backups")
	viper.SetDefault("max_backups", 5)
	viper.SetDefault("archive_dir", "backups")
	viper.SetDefault("max_archives", 10)
	viper.SetDefault("persist_loans", false)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "console")
	viper.SetDefault("log_file", "")
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.rate_limit_per_minute", 120)
	viper.SetDefault("server.watch_data_file", true)
	viper.SetDefault("server.basic_auth.enabled", false)
	viper.SetDefault("server.basic_auth.username", "")
	viper.SetDefault("server.basic_auth.password", "")
	viper.SetDefault("server.basic_auth.password_hash", "")
}

// InitConfig initializes the application configuration
func InitConfig() {
	SetDefaults()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	AppConfig = Config{
		DataFile:     strings.TrimSpace(viper.GetString("data_file")),
		BackupDir:    strings.TrimSpace(viper.GetString("backup_dir")),
		MaxBackups:   viper.GetInt("max_backups"),
		ArchiveDir:   strings.TrimSpace(viper.GetString("archive_dir")),
		MaxArchives:  viper.GetInt("max_archives"),
		PersistLoans: viper.GetBool("persist_loans"),
		LogLevel:     strings.ToLower(strings.TrimSpace(viper.GetString("log_level"))),
		LogFormat:    strings.ToLower(strings.TrimSpace(viper.GetString("log_format"))),
		LogFile:      viper.GetString("log_file"),
		Server: ServerConfig{
			Host:               viper.GetString("server.host"),
			Port:               viper.GetInt("server.port"),
			RateLimitPerMinute: viper.GetInt("server.rate_limit_per_minute"),
			WatchDataFile:      viper.GetBool("server.watch_data_file"),
			BasicAuthEnabled:   viper.GetBool("server.basic_auth.enabled"),
			BasicAuthUsername:  viper.GetString("server.basic_auth.username"),
			BasicAuthPassword:  viper.GetString("server.basic_auth.password"),
			BasicAuthHash:      strings.TrimSpace(viper.GetString("server.basic_auth.password_hash")),
		},
	}

	// Normalize
	if AppConfig.DataFile == "" {
		AppConfig.DataFile = "librarydata.txt"
	}
	if AppConfig.MaxBackups < 0 {
		AppConfig.MaxBackups = 0
	}
	if AppConfig.ArchiveDir == "" {
		AppConfig.ArchiveDir = "backups"
	}
	if AppConfig.MaxArchives < 0 {
		AppConfig.MaxArchives = 0
	}
	if AppConfig.LogFormat == "text" {
		AppConfig.LogFormat = "console"
	}
	if AppConfig.Server.RateLimitPerMinute < 0 {
		AppConfig.Server.RateLimitPerMinute = 0
	}
}

// WriteConfig returns the safe write settings for the data file. A relative
// backup_dir is left relative; fileops resolves it next to the data file.
func (c Config) WriteConfig() fileops.OperationConfig {
	return fileops.OperationConfig{
		BackupDir:       c.BackupDir,
		VerifyChecksums: true,
		MaxBackups:      c.MaxBackups,
	}
}

// ArchiveConfig returns the settings for compressed catalog snapshots. A
// relative archive_dir is placed next to the data file.
func (c Config) ArchiveConfig() backup.BackupConfig {
	cfg := backup.DefaultBackupConfig()
	cfg.BackupDir = c.besideDataFile(c.ArchiveDir)
	cfg.MaxBackups = c.MaxArchives
	return cfg
}

func (c Config) besideDataFile(dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(filepath.Dir(c.DataFile), dir)
}

// LoggerConfig returns the logger settings
func (c Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		File:   c.LogFile,
	}
}
