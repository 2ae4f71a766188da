// Command reviewctl is the operator CLI: bulk imports, templates, tokens and accounts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mentorloop/reviewhub/internal/config"
	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/mentorloop/reviewhub/internal/utils"
	"github.com/mentorloop/reviewhub/pkg/logger"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	envFile    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "reviewctl",
		Short:         "Operator tools for the project review platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(opts.envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load %s: %w", opts.envFile, err)
			}
			if opts.configPath == "" {
				opts.configPath = os.Getenv("CONFIG_PATH")
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Log.Level)
			utils.SetJWTSecret(cfg.JWT.Secret)
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.yaml (default $CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before the config")

	root.AddCommand(
		newImportCmd(opts),
		newTemplateCmd(),
		newTokenCmd(opts),
		newAddUserCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// openDB connects and migrates so every command sees the current schema.
func (o *globalOptions) openDB() error {
	if err := models.InitDB(&o.cfg.Database, o.cfg.Log.Level); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return models.AutoMigrate()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
