package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/GlassCut/internal/api"
	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/project"
	"github.com/piwi3910/GlassCut/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the quoting and cutting API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				a.cfg.Server.Port = port
			}
			if dbPath != "" {
				a.cfg.Database.Path = dbPath
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from configuration)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from configuration)")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then drains requests
// for up to the configured shutdown timeout.
func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := a.seedPricing(ctx, st); err != nil {
		return err
	}

	settings, err := a.settings()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	server := api.NewServer(api.Options{
		Pricing:  st,
		Quotes:   st,
		Health:   st,
		Settings: settings,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("database", cfg.Database.Path),
			zap.String("mode", cfg.Server.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("Server exited")
	return nil
}

// seedPricing fills an empty store with the rate table file, or with the
// starter table when the file is absent. A file that exists but is invalid
// stops startup.
func (a *app) seedPricing(ctx context.Context, st *store.Store) error {
	rates := model.DefaultPricingConfig()
	source := "built-in defaults"
	if a.cfg.Pricing.SeedFromFile {
		path := a.pricingPath("")
		cfg, err := project.LoadPricingConfig(path)
		switch {
		case err == nil:
			rates = cfg
			source = path
		case errors.Is(err, fs.ErrNotExist):
			a.logger.Warn("rate table file not found, seeding starter rates", zap.String("path", path))
		default:
			return err
		}
	}

	seeded, err := st.SeedDefaults(ctx, rates)
	if err != nil {
		return fmt.Errorf("failed to seed pricing: %w", err)
	}
	if seeded {
		a.logger.Info("pricing seeded", zap.String("source", source), zap.Int("rates", len(rates.Rates)))
	}
	return nil
}
