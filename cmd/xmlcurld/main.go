package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/switchplane/xmlcurld/internal/api"
	"github.com/switchplane/xmlcurld/internal/api/middleware"
	"github.com/switchplane/xmlcurld/internal/cnam"
	"github.com/switchplane/xmlcurld/internal/config"
	"github.com/switchplane/xmlcurld/internal/configresolver"
	"github.com/switchplane/xmlcurld/internal/dialplan"
	"github.com/switchplane/xmlcurld/internal/directory"
	"github.com/switchplane/xmlcurld/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(cfg.SlogHandler(os.Stdout))
	slog.SetDefault(logger)

	slog.Info("starting xmlcurld",
		"port", cfg.Port,
		"store_uri", cfg.StoreURI,
		"outbound_gateway_profile", cfg.OutboundGatewayProfile,
		"cnam_enabled", cfg.CNAMEnabled(),
	)

	db, err := store.Open(cfg.StoreURI)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tenants := store.NewTenantRepository(db)
	gateways := store.NewGatewayRepository(db)

	cnamClient := cnam.New(cnam.Config{
		ProjectID: cfg.CNAMProjectID,
		APIToken:  cfg.CNAMAPIToken,
		SpaceHost: cfg.CNAMSpaceHost,
	})

	dialplanResolver := dialplan.NewResolver(tenants, gateways, cnamClient, cfg.OutboundGatewayProfile, logger)
	directoryResolver := directory.NewResolver(tenants, logger)
	configResolver := configresolver.NewResolver(gateways, logger)

	adminSecret, err := cfg.AdminJWTSecretBytes()
	if err != nil {
		slog.Error("failed to load admin jwt secret", "error", err)
		os.Exit(1)
	}

	handler := api.NewServer(
		dialplanResolver,
		directoryResolver,
		configResolver,
		tenants,
		gateways,
		adminSecret,
		middleware.ParseCORSOrigins(cfg.CORSOrigins),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		slog.Error("http server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("xmlcurld stopped")
}
