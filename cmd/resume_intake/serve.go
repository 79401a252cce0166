package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-intake/internal/config"
	"github.com/jonathan/resume-intake/internal/intake"
	"github.com/jonathan/resume-intake/internal/server"
	"github.com/jonathan/resume-intake/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the upload, import and bulk provisioning endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{database: true, extractor: true, messaging: true})
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := newServer(a)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	port := a.cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}
	return srv.Run(ctx, fmt.Sprintf(":%d", port), a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout)
}

func newServer(a *app) (*server.Server, error) {
	secret := a.cfg.Auth.JWTSecret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	jwtConfig, err := config.NewJWTConfig(secret, a.cfg.Auth.JWTExpirationHours)
	if err != nil {
		return nil, err
	}

	limits := ratelimit.DefaultConfig().WithWhitelist(a.cfg.RateLimit.Whitelist)
	limits.Enabled = a.cfg.RateLimit.Enabled

	health := map[string]server.HealthCheck{
		"database": a.db.Ping,
	}
	if a.rmq != nil {
		health["rabbitmq"] = func(context.Context) error {
			if !a.rmq.Healthy() {
				return errors.New("connection closed")
			}
			return nil
		}
	}

	return server.New(server.Deps{
		Users:           server.NewUserService(a.db, a.passwords),
		JWT:             server.NewJWTService(jwtConfig),
		Single:          intake.NewSingleFlow(a.extractor, a.documents, a.db, a.log),
		Bulk:            a.orchestrator(),
		Profiles:        a.db,
		Batches:         a.db,
		Documents:       a.documents,
		Publisher:       a.publisher,
		Limiter:         ratelimit.NewLimiter(limits),
		Logger:          a.log,
		Health:          health,
		AllowedOrigins:  a.cfg.Server.AllowedOrigins,
		MaxFiles:        a.cfg.Bulk.MaxFiles,
		MaxFileBytes:    a.cfg.Bulk.MaxFileBytes,
		BulkCallTimeout: a.cfg.Bulk.CallTimeout,
	})
}
