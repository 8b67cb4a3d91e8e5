package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/singsync/internal/server"
	"github.com/desertthunder/singsync/internal/storage"
)

const assetsPrefix = "/assets/"

// Serve runs the catalog HTTP API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}

	router, err := r.router(cmd.Bool("read-only"))
	if err != nil {
		return err
	}

	srv := server.New(cfg, router, r.logger)
	r.writePlain("Serving the catalog on http://%s\n", srv.Addr())
	return srv.ListenAndServe(ctx)
}

// router wires the API, middleware and (for the local driver) the assets handler.
func (r *Runner) router(readOnly bool) (*server.BasicRouter, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	catalog, err := r.catalog()
	if err != nil {
		return nil, err
	}

	opts := server.APIOpts{
		Catalog:     catalog,
		Ping:        db.PingContext,
		MaxUploadMB: r.config.Server.MaxUploadMB,
		Logger:      r.logger,
	}
	if !readOnly {
		publisher, err := r.publisher()
		if err != nil {
			return nil, fmt.Errorf("failed to set up publishing: %w", err)
		}
		opts.Publish = publisher.Func()
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))

	limiter := server.NewRateLimiter(r.config.Server.UploadRate, r.config.Server.UploadBurst)
	server.NewAPI(opts).Register(router, limiter.Middleware())

	store, err := r.objectStore()
	if err != nil {
		r.logger.Warn("media store unavailable", "error", err)
	} else if local, ok := store.(*storage.LocalStore); ok {
		router.Handler(server.NewAssetsHandler(assetsPrefix, local.Root()))
		r.logger.Info("serving local media", "root", local.Root(), "prefix", assetsPrefix)
	}

	return router, nil
}
