// file: cmd/serve.go
// version: 1.0.0
// guid: 8c2d5e7f-3a1b-4d9c-a6e8-5f4b3c2d1e0a

package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/jdfalk/lending-library/internal/config"
	"github.com/jdfalk/lending-library/internal/server"
	"github.com/jdfalk/lending-library/internal/server/middleware"
	"github.com/jdfalk/lending-library/internal/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func (a *app) newServeCmd() *cobra.Command {
	var readTimeout, writeTimeout, idleTimeout time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `Serve the catalog as a JSON API with Prometheus metrics at /metrics and a
server-sent event stream of catalog changes at /api/v1/events.

Requests are handled one at a time. Edits made to the data file by other
programs are picked up automatically unless --watch=false is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}

			cfg := config.AppConfig
			archive := cfg.ArchiveConfig()
			archive.Logger = a.log
			srv := server.NewServer(svc, server.ServerConfig{
				Host:               cfg.Server.Host,
				Port:               cfg.Server.Port,
				RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
				WatchDataFile:      cfg.Server.WatchDataFile,
				WatchDebounce:      watcher.DefaultDebounce,
				BasicAuth: middleware.BasicAuthConfig{
					Enabled:      cfg.Server.BasicAuthEnabled,
					Username:     cfg.Server.BasicAuthUsername,
					Password:     cfg.Server.BasicAuthPassword,
					PasswordHash: cfg.Server.BasicAuthHash,
				},
				Backup:       archive,
				WriteConfig:  a.writeConfig(),
				ReadTimeout:  readTimeout,
				WriteTimeout: writeTimeout,
				IdleTimeout:  idleTimeout,
			}, a.log)

			return srv.Start(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("host", "localhost", "host to bind the web server to")
	flags.Int("port", 8080, "port to run the web server on")
	flags.Bool("watch", true, "reload the catalog when the data file changes on disk")
	flags.DurationVar(&readTimeout, "read-timeout", 15*time.Second, "read timeout (e.g. 15s, 1m)")
	flags.DurationVar(&writeTimeout, "write-timeout", 0, "write timeout (e.g. 15s, 1m); 0 keeps event streams open")
	flags.DurationVar(&idleTimeout, "idle-timeout", 60*time.Second, "idle timeout (e.g. 60s, 2m)")

	_ = viper.BindPFlag("server.host", flags.Lookup("host"))
	_ = viper.BindPFlag("server.port", flags.Lookup("port"))
	_ = viper.BindPFlag("server.watch_data_file", flags.Lookup("watch"))
	return cmd
}

func (a *app) newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for server.basic_auth.password_hash",
		Long:  `Print a bcrypt hash of password. Without an argument the first line of stdin is used.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}
			hash, err := middleware.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
