package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/photox/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve exposes the pipeline over HTTP until interrupted.
//
// The task registry sweep runs alongside the server and stops with it.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx, cmd); err != nil {
		return err
	}

	addr := r.config.Server.Addr()
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go r.pipeline.Registry().Run(ctx, r.config.Tasks.SweepIntervalDuration())

	return server.Serve(ctx, addr, r.router(), r.logger)
}

func (r *Runner) router() *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(
		server.Recover(r.logger),
		server.Logging(r.logger),
		server.RateLimit(r.config.Server.RateLimit, r.config.Server.Burst),
	)
	router.Handler(server.NewPipelineHandler(r.pipeline, r.logger))
	return router
}
