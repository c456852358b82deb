package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freekieb7/casetrack/internal/api"
	"github.com/freekieb7/casetrack/internal/daemon"
	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/kv"
	"github.com/freekieb7/casetrack/internal/session"
	"github.com/freekieb7/casetrack/internal/storage"

	"github.com/spf13/cobra"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	svc, err := newServices(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Close(shutdownCtx); err != nil {
			svc.logger.Error("Failed to close services", "error", err)
		}
	}()

	uploader, err := storage.NewFactory(svc.logger, svc.cfg.Storage).CreateUploader(ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}

	caseManager, err := svc.newCaseManager(ctx, uploader)
	if err != nil {
		return err
	}

	provider, err := svc.newIdentityProvider()
	if err != nil {
		return err
	}
	gateway := identity.NewGateway(svc.logger, provider, &svc.auditor)
	unsubscribe := gateway.OnChange(svc.directory.ProvisionOnSignIn())
	defer unsubscribe()

	deps := api.Dependencies{
		Logger:    svc.logger,
		Config:    svc.cfg,
		Store:     svc.store,
		Sessions:  session.New(svc.cfg.Session, svc.store.Backend()),
		Identity:  gateway,
		Directory: svc.directory,
		Cases:     caseManager,
	}
	if local, ok := uploader.(*storage.LocalStorage); ok {
		deps.Files = local
	}
	app := api.NewApp(deps)

	daemonCtx, cancelDaemons := context.WithCancel(ctx)
	defer cancelDaemons()

	manager := daemon.NewDaemonManager(svc.logger)
	if sweeper, ok := svc.store.Backend().(kv.Sweeper); ok {
		manager.Add("sweep", daemon.SweepTask(svc.logger, sweeper, sweepInterval))
	}
	manager.Start(daemonCtx)

	listenErr := make(chan error, 1)
	go func() {
		svc.logger.Info("Starting HTTP server", "addr", svc.cfg.Server.Addr(), "storage", svc.cfg.Storage.Type, "store", svc.cfg.Store.Backend, "telemetry", svc.telemetry.IsEnabled())
		listenErr <- app.Listen(svc.cfg.Server.Addr())
	}()

	select {
	case err := <-listenErr:
		cancelDaemons()
		manager.Wait()
		return fmt.Errorf("http server stopped: %w", err)
	case <-ctx.Done():
	}

	svc.logger.Info("Shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		svc.logger.Error("Error shutting down HTTP server", "error", err)
	}

	cancelDaemons()
	manager.Wait()
	svc.logger.Info("Shutdown complete")
	return nil
}
