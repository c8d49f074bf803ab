package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"learnchain/config"
	"learnchain/core"
	"learnchain/native/token"
	"learnchain/observability/logging"
	telemetry "learnchain/observability/otel"
	"learnchain/rpc"
	"learnchain/storage"
)

const (
	serviceName     = "learnd"
	environmentEnv  = "LEARN_ENV"
	shutdownTimeout = 10 * time.Second
)

type envLookupFunc func(string) (string, bool)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	cfg.Environment = resolveEnvironment(cfg.Environment, os.LookupEnv)
	logger := logging.Setup(serviceName, cfg.Environment, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("learnd terminated", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	mint := token.DefaultMintAddress(cfg.TokenSymbol)
	node, err := core.NewNode(db, core.Config{
		ChainID:   cfg.ChainID,
		TokenMint: mint,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}

	rpcServer := rpc.NewServer(node, rpc.ServerConfig{
		Logger:            logger,
		MaxBodyBytes:      cfg.RPCMaxBodyBytes,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		TrustedProxies:    append([]string{}, cfg.RPCTrustedProxies...),
	})
	readHeader, read, write, idle := cfg.Timeouts()
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           rpcServer.Handler(),
		ReadHeaderTimeout: readHeader,
		ReadTimeout:       read,
		WriteTimeout:      write,
		IdleTimeout:       idle,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	logger.Info("learnd running",
		slog.String("listen", cfg.ListenAddress),
		slog.Uint64("chainId", cfg.ChainID),
		slog.String("tokenSymbol", cfg.TokenSymbol))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown rpc: %w", err)
	}
	return nil
}

// resolveEnvironment lets LEARN_ENV override the configured environment.
func resolveEnvironment(cfgValue string, lookup envLookupFunc) string {
	if lookup != nil {
		if value, ok := lookup(environmentEnv); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return cfgValue
}
