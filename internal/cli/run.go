package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/presserdigest/internal/config"
	"github.com/forPelevin/presserdigest/internal/logger"
	"github.com/forPelevin/presserdigest/internal/pipeline"
)

const runTimeout = 3 * time.Hour

func runDigest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	log, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	_, err = pipeline.Run(ctx, pipeline.Config{
		App:    cfg,
		DryRun: dryRun,
		Log:    log,
		Out:    cmd.OutOrStdout(),
	})
	return err
}

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	changed := false
	if f := cmd.Flags().Lookup("hours"); f != nil && f.Changed {
		cfg.Digest.HoursBack, _ = cmd.Flags().GetInt("hours")
		changed = true
	}
	if f := cmd.Flags().Lookup("max-clips"); f != nil && f.Changed {
		cfg.Digest.MaxClips, _ = cmd.Flags().GetInt("max-clips")
		changed = true
	}
	if f := cmd.Flags().Lookup("out"); f != nil && f.Changed {
		cfg.Paths.OutDir, _ = cmd.Flags().GetString("out")
		if cfg.Paths.OutDir, err = config.ExpandPath(cfg.Paths.OutDir); err != nil {
			return nil, err
		}
		changed = true
	}
	if changed {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
