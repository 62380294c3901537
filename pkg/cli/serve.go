package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mchmarny/riskscore/pkg/config"
	"github.com/mchmarny/riskscore/pkg/predict"
	urfave "github.com/urfave/cli/v3"
)

const addressFlagName = "address"

func serveCommand() *urfave.Command {
	return &urfave.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Load the model artifact and serve POST /predict",
		Action:  cmdServe,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    addressFlagName,
				Usage:   fmt.Sprintf("Address on which the server will listen (default: %s)", config.DefaultAddress),
				Sources: urfave.EnvVars(config.AddressEnvVar),
			},
			artifactFlag(),
		},
	}
}

func cmdServe(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(ctx)
	applyFlags(cmd, cfg)
	if v := cmd.String(addressFlagName); v != "" {
		cfg.Server.Address = v
	}

	svc, err := predict.Load(cfg.Artifact)
	if err != nil {
		return fmt.Errorf("refusing to start, run train first: %w", err)
	}

	if logLevel.Level() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	return serve(ctx, cfg, svc)
}

func serve(ctx context.Context, cfg *config.Config, svc *predict.Service) error {
	s := &http.Server{
		Addr:           cfg.Server.Address,
		Handler:        makeRouter(svc),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(done)

	failed := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	slog.Info("server started", "address", cfg.Server.Address, "features", len(svc.Features()))

	select {
	case err := <-failed:
		return fmt.Errorf("error starting server: %w", err)
	case <-done:
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
	defer cancel()

	if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	slog.Info("server stopped")
	return nil
}
