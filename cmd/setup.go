package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/photox/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase writes config.toml when missing, creates the working folders and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	r.configPath = configPath
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	for name, dir := range map[string]string{
		"import":  config.Folders.Import,
		"export":  config.Folders.Export,
		"reports": config.Folders.Reports,
	} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s folder: %w", name, err)
		}
		r.logger.Debug("folder ready", "name", name, "path", dir)
	}

	if config.Folders.Originals != "" {
		if _, err := os.Stat(config.Folders.Originals); err != nil {
			r.logger.Warn("originals folder not found", "path", config.Folders.Originals)
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	if err := r.open(ctx, cmd); err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ photox is ready\n")
	r.writePlain("Config: %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set folders.originals in %s to your photo library\n", configPath)
	r.writePlain("2. Run 'photox serve' or 'photox run <folder> --start <date> --end <date>'\n")
	return nil
}
