// file: cmd/backup.go
// version: 1.0.0
// guid: 4b7e1c9a-2f3d-4c6e-9a8b-1d2e3f4a5b6c

package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/jdfalk/lending-library/internal/backup"
	"github.com/jdfalk/lending-library/internal/config"
	"github.com/jdfalk/lending-library/internal/fileops"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func (a *app) newBackupCmd() *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, restore and delete compressed catalog snapshots",
	}
	backupCmd.PersistentFlags().String("archive-dir", "backups", "directory holding backup archives")
	_ = viper.BindPFlag("archive_dir", backupCmd.PersistentFlags().Lookup("archive-dir"))

	backupCmd.AddCommand(a.newBackupCreateCmd(), a.newBackupListCmd(), a.newBackupRestoreCmd(), a.newBackupDeleteCmd())
	return backupCmd
}

func (a *app) archiveConfig() backup.BackupConfig {
	cfg := config.AppConfig.ArchiveConfig()
	cfg.Logger = a.log
	return cfg
}

// writeConfig returns the data file write settings with the command logger
func (a *app) writeConfig() fileops.OperationConfig {
	cfg := config.AppConfig.WriteConfig()
	cfg.Logger = a.log
	return cfg
}

func (a *app) newBackupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Archive the data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := backup.CreateBackup(config.AppConfig.DataFile, a.archiveConfig())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%d bytes)\n", info.Filename, info.Size)
			return nil
		},
	}
}

func (a *app) newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backup archives, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backups, err := backup.ListBackups(a.archiveConfig().BackupDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintln(out, "No backups.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILENAME\tSIZE\tCREATED")
			for _, b := range backups {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Filename, b.Size, b.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

func (a *app) newBackupRestoreCmd() *cobra.Command {
	var noVerify bool
	cmd := &cobra.Command{
		Use:   "restore <filename>",
		Short: "Replace the data file with an archived catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.AppConfig
			archive := args[0]
			if filepath.Base(archive) == archive {
				archive = filepath.Join(a.archiveConfig().BackupDir, archive)
			}
			if err := backup.RestoreBackup(archive, cfg.DataFile, !noVerify, a.writeConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s\n", cfg.DataFile, filepath.Base(archive))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip the checksum check")
	return cmd
}

func (a *app) newBackupDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <filename>",
		Short: "Remove a backup archive and its checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive := args[0]
			if filepath.Base(archive) == archive {
				archive = filepath.Join(a.archiveConfig().BackupDir, archive)
			}
			if err := backup.DeleteBackup(archive); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", filepath.Base(archive))
			return nil
		},
	}
}
