package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	flag "github.com/spf13/pflag"

	"github.com/gatallahx/before-you-bet/internal/app"
	"github.com/gatallahx/before-you-bet/internal/config"
	"github.com/gatallahx/before-you-bet/internal/logging"
	"github.com/gatallahx/before-you-bet/internal/server"
	"github.com/gatallahx/before-you-bet/internal/version"
)

func main() {
	configPath := flag.StringP("config", "c", "", "path to config file (optional)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the config")
	port := flag.IntP("port", "p", 0, "listen port (overrides server.port)")
	showVersion := flag.BoolP("version", "v", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := run(*configPath, *envFile, *port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, port int) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting server", version.Attr(), "config", configPath)

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status, err := a.Client.GetExchangeStatus(ctx)
	if err != nil {
		logger.Warn("exchange status unavailable", "error", err)
	} else {
		logger.Info("exchange status",
			"exchange_active", status.ExchangeActive,
			"trading_active", status.TradingActive,
		)
	}

	gin.SetMode(gin.ReleaseMode)
	handler := server.NewHandler(a.Service,
		server.WithStatus(a.Client),
		server.WithScanner(a.Scanner, a.Source),
		server.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
