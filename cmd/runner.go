package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/photox/internal/pipeline"
	"github.com/desertthunder/photox/internal/repositories"
	"github.com/desertthunder/photox/internal/services"
	"github.com/desertthunder/photox/internal/shared"
	"github.com/desertthunder/photox/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Storage and services are built on first use by [Runner.open] so commands that
// only touch the config file never open the database.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	flags      *repositories.PathFlagRepository
	reports    *repositories.ReportRepository
	folders    services.Folders
	scanner    services.Scanner
	processor  services.Processor
	script     services.Runner
	pipeline   *pipeline.Pipeline
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Nil services are replaced with the filesystem and script implementations.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	Folders    services.Folders
	Scanner    services.Scanner
	Processor  services.Processor
	Script     services.Runner
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		folders:    opts.Folders,
		scanner:    opts.Scanner,
		processor:  opts.Processor,
		script:     opts.Script,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, runCommand, foldersCommand, flagsCommand, reportsCommand, postprocCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the config once, from the --config flag when the runner has none.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := r.configPath
	if cmd != nil && cmd.String("config") != "" {
		path = cmd.String("config")
	}
	if path == "" {
		path = "config.toml"
	}

	config, err := shared.ResolveConfig(path)
	if err != nil {
		return nil, err
	}
	r.config = config
	r.configPath = path
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	return config, nil
}

// open opens the database and wires the pipeline. It is a no-op once the pipeline exists.
func (r *Runner) open(ctx context.Context, cmd *cli.Command) error {
	if r.pipeline != nil {
		return nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if r.db == nil {
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		r.db = db
	}
	if err := shared.RunMigrations(r.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.flags = repositories.NewPathFlagRepository(r.db)
	r.reports = repositories.NewReportRepository(r.db)

	if r.folders == nil || r.scanner == nil || r.processor == nil {
		fs, err := services.NewFolderService(config, r.logger)
		if err != nil {
			return err
		}
		if r.folders == nil {
			r.folders = fs
		}
		if r.scanner == nil {
			r.scanner = fs
		}
		if r.processor == nil {
			r.processor = fs
		}
	}
	if r.script == nil {
		r.script = services.NewScriptService(config.Scripts.PostProcess, r.logger)
	}

	registry := tasks.NewRegistry(tasks.RegistryOpts{
		IdleTimeout: config.Tasks.IdleTimeoutDuration(),
		Logger:      r.logger,
	})

	p, err := pipeline.New(pipeline.Options{
		Registry:  registry,
		Folders:   r.folders,
		Scanner:   r.scanner,
		Processor: r.processor,
		Runner:    r.script,
		Flags:     r.flags,
		Reports:   r.reports,
		Config:    config.Folders,
		Logger:    r.logger,
	})
	if err != nil {
		return err
	}
	r.pipeline = p
	r.logger.Debug("pipeline ready", "database", config.Database.Path)
	return nil
}

// Close releases the database handle.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
