package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/database"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/logging"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/spf13/cobra"
)

var (
	restoreYes bool
	tokenTTL   time.Duration

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Write a copy of the SQLite database to the backup directory",
		Args:  cobra.NoArgs,
		RunE:  runBackup,
	}
	restoreCmd = &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the SQLite database with a backup (bot must be stopped)",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestore,
	}
	tokenCmd = &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an ops API token for an admin",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
)

func init() {
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "overwrite the database without asking")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default OPS_TOKEN_TTL)")
}

func runBackup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	info, err := services.NewBackupService(db, cfg).Create(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", info.Path, info.Size)
	return nil
}

// backupPath accepts a path or a bare backup file name from the backup directory.
func backupPath(cfg *config.Config, arg string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	return filepath.Join(cfg.BackupDir, filepath.Base(arg))
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DBDriver != config.DriverSQLite {
		return services.ErrBackupUnsupported
	}
	if !restoreYes {
		return errors.New("restore overwrites " + cfg.DBPath + "; stop the bot and re-run with --yes")
	}
	src := backupPath(cfg, args[0])
	if err := services.RestoreFile(src, cfg.DBPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", cfg.DBPath, src)
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Setup("error")
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	users := services.NewUserService(db, cfg, nil)
	roles := services.NewRoleService(db, cfg, users)
	ok, err := roles.IsAdmin(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %d is not an admin", userID)
	}

	token, err := services.NewTokenService(cfg).Issue(userID, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
