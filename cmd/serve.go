package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/duetfm/duet/internal/server"
	"github.com/duetfm/duet/internal/web"
)

// Serve runs the companion web service: the confidential token exchange,
// the client configuration endpoint and the embedded entry page.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := godotenv.Load(); err != nil {
		r.logger.Debug("no .env file found, relying on process environment")
	}

	environment := os.Getenv("DUET_ENV")
	if environment == "" {
		environment = "development"
	}

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(server.NewAPIHandler(r.config, r.logger, appVersion, environment, web.Index))

	port := cmd.Int("port")
	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, port)

	r.logger.Infof("companion service listening at %v (%v)", addr, environment)
	return server.Serve(ctx, addr, router, r.logger)
}
