// Package cmd implements the gacetas subcommands.
package cmd

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/municipiolabs/gacetas/internal/appcontext"
	"github.com/municipiolabs/gacetas/internal/server"
	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/session"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(app appcontext.Interface) *cobra.Command {
	var (
		addr          string
		dataDir       string
		databaseDSN   string
		minioEndpoint string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog HTTP server",
		Long: `Serve exposes the catalog over HTTP: public browsing and search,
JWT-authenticated admin mutations, and an SSE stream that pushes
catalog changes to connected browsers.`,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			cfg := app.Config()

			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if databaseDSN != "" {
				cfg.DatabaseDSN = databaseDSN
			}
			if minioEndpoint != "" {
				cfg.MinioEndpoint = minioEndpoint
			}

			if cfg.JWTSecret == "" {
				return errs.NewValidationError("jwt_secret", "",
					"a JWT secret is required to run the server")
			}

			// The change hook can fire from the adapter's listener
			// goroutine before the server below exists, so the handle
			// goes through an atomic pointer.
			var srv atomic.Pointer[server.Server]
			store, cleanup, err := app.ServerStore(ctx, func() {
				if s := srv.Load(); s != nil {
					s.NotifyChange()
				}
			})
			if err != nil {
				return err
			}
			defer cleanup()

			if addr == "" {
				addr = cfg.ServerAddr
			}

			serverCfg := server.Config{
				Addr:      addr,
				JWTSecret: []byte(cfg.JWTSecret),
				Credentials: session.Credentials{
					Username:    cfg.AdminUsername,
					Password:    cfg.AdminPassword,
					DisplayName: cfg.AdminName,
				},
				ReadTimeout: 30 * time.Second,
			}

			opts := []server.Option{server.WithLogger(app.Logger())}
			if check := app.Health(); check != nil {
				opts = append(opts, server.WithHealthChecker(check))
			}

			s, err := server.New(store, serverCfg, opts...)
			if err != nil {
				return err
			}
			srv.Store(s)

			// Subscribe after the server exists so the initial
			// snapshot dispatch reaches connected clients. Remote
			// backends push snapshots; local ones make this a no-op.
			if err := store.Subscribe(ctx); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := s.Shutdown(shutdownCtx); err != nil {
					app.Logger().Error().Err(err).Msg("Shutdown error")
				}
			}()

			return s.Start()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to configured server_addr)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory for the local backend")
	cmd.Flags().StringVar(&databaseDSN, "database-url", "", "Postgres connection string for the postgres backend")
	cmd.Flags().StringVar(&minioEndpoint, "minio-endpoint", "", "MinIO endpoint for blob storage")

	return cmd
}
