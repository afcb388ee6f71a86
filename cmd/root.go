// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jdfalk/lending-library/internal/catalog"
	"github.com/jdfalk/lending-library/internal/config"
	"github.com/jdfalk/lending-library/internal/library"
	"github.com/jdfalk/lending-library/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app carries per-invocation state shared by the subcommands
type app struct {
	cfgFile string
	log     *zap.Logger
}

// NewRootCmd builds the command tree. A fresh tree per invocation keeps flag
// state from leaking between runs.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "lending-library",
		Short: "Track a small book inventory and its loans",
		Long: `Lending Library keeps a flat-file catalog of books and records which
titles are on loan and when they are due back.

Borrowing and returning only change the catalog in memory; the CLI saves the
data file afterwards unless --save=false is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.lending-library.yaml)")
	flags.String("data-file", catalog.DefaultDataFile, "path to the catalog data file")
	flags.Bool("persist-loans", false, "save the catalog inside every borrow and return")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "console", "log format: console or json")
	flags.String("log-file", "", "write logs to this file instead of stderr")

	_ = viper.BindPFlag("data_file", flags.Lookup("data-file"))
	_ = viper.BindPFlag("persist_loans", flags.Lookup("persist-loans"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("log_file", flags.Lookup("log-file"))

	rootCmd.AddCommand(
		a.newAddCmd(),
		a.newListCmd(),
		a.newSearchCmd(),
		a.newBorrowCmd(),
		a.newReturnCmd(),
		a.newOverdueCmd(),
		a.newStatsCmd(),
		a.newImportCmd(),
		a.newExportCmd(),
		a.newBackupCmd(),
		a.newServeCmd(),
		a.newHashPasswordCmd(),
	)
	return rootCmd
}

// Execute runs the command line
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

func (a *app) initConfig(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		viper.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lending-library")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config.InitConfig()

	log, err := logger.New(config.AppConfig.LoggerConfig())
	if err != nil {
		return err
	}
	a.log = log
	if used := viper.ConfigFileUsed(); used != "" {
		a.log.Debug("using config file", zap.String("path", used))
	}
	return nil
}

// openService loads the catalog named by the configuration
func (a *app) openService() (*library.Service, error) {
	cfg := config.AppConfig
	store, err := catalog.Open(cfg.DataFile,
		catalog.WithWriteConfig(a.writeConfig()),
		catalog.WithLogger(a.log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", cfg.DataFile, err)
	}
	return library.New(store, library.Options{
		PersistLoans: cfg.PersistLoans,
		Logger:       a.log,
	}), nil
}
