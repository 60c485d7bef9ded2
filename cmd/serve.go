package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/server"
	"github.com/desertthunder/curate/internal/shared"
)

// Serve runs the HTTP server until the context is cancelled, then waits for any active run.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	dispatcher := r.dispatcher(ctx)
	defer dispatcher.Wait()
	defer dispatcher.Cancel()

	logger := shared.WithLogger(r.logger, "component", "server")
	api := server.NewAPI(server.APIOpts{
		Dispatcher: dispatcher,
		Cache:      r.cache,
		Labels:     r.labels,
		Logger:     logger,
	})
	api.WatchStore(r.store)

	r.writePlain("Listening on http://%s\n", addr)
	if err := server.ListenAndServe(ctx, addr, server.NewRouter(api, logger), logger); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
