// Command agent is the nlqagent entry point: it wires the handler
// registry, connection manager, AI service, and orchestrator together and
// runs them behind either the HTTP API server or the interactive CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/koopa0/nlqagent/internal/ai"
	"github.com/koopa0/nlqagent/internal/cli"
	"github.com/koopa0/nlqagent/internal/config"
	"github.com/koopa0/nlqagent/internal/connection"
	"github.com/koopa0/nlqagent/internal/handler"
	"github.com/koopa0/nlqagent/internal/handlerset"
	"github.com/koopa0/nlqagent/internal/observability"
	"github.com/koopa0/nlqagent/internal/orchestrator"
	"github.com/koopa0/nlqagent/internal/persistence"
	"github.com/koopa0/nlqagent/internal/server"
)

const (
	appName    = "nlqagent"
	appVersion = "0.1.0"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("%s %s\n", appName, appVersion)
			return
		case "help", "-h", "--help":
			printUsage()
			return
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
		}
	}

	if configMode := os.Getenv("CONFIG_MODE"); configMode == "env-only" {
		os.Setenv("CONFIG_FILE", "")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	isQuietMode := len(os.Args) > 1 && (os.Args[1] == "cli" || os.Args[1] == "interactive" || os.Args[1] == "ask")

	var logger *slog.Logger
	if isQuietMode {
		nullFile, err := os.OpenFile("/dev/null", os.O_WRONLY, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open /dev/null: %v\n", err)
			os.Exit(1)
		}
		defer nullFile.Close()
		logger = observability.SetupLoggingWithWriter(nullFile, "error", cfg.LogFormat)
	} else {
		logger = observability.SetupLogging(cfg.LogLevel, cfg.LogFormat)
	}
	slog.SetDefault(logger)

	if !isQuietMode {
		logger.Info("starting nlqagent",
			slog.String("version", appVersion),
			slog.String("mode", cfg.Mode))
	}

	registry := handlerset.NewDefaultRegistry(logger)

	store, err := persistence.NewStore(cfg.Persistence.ConnectionsPath, cfg.Persistence.SealKeyBase64)
	if err != nil {
		logger.Error("failed to open connection store", slog.Any("error", err))
		os.Exit(1)
	}

	connections, err := connection.NewManager(registry, store, logger)
	if err != nil {
		logger.Error("failed to initialize connection manager", slog.Any("error", err))
		os.Exit(1)
	}

	metricsCollector := observability.NewMetricsCollector(logger)
	aiMetrics := observability.NewAIMetrics(metricsCollector, logger)

	aiService, err := ai.NewService(ctx, cfg, logger, aiMetrics)
	if err != nil {
		logger.Error("failed to initialize AI service", slog.Any("error", err))
		os.Exit(1)
	}

	orch := orchestrator.New(aiService, connections, logger, cfg.AI.PlanBudget)

	profileManager := observability.NewProfileManager(logger)
	if cfg.Mode == "production" || os.Getenv("ENABLE_PROFILING") == "true" {
		profileManager.EnableProfiling(10 * time.Minute)
		profileManager.StartPeriodicProfiling(ctx)
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve", "server", "web":
			runWebServer(ctx, cfg, registry, connections, orch, aiService, logger, sigChan)
		case "cli", "interactive":
			runCLI(ctx, cfg, orch, connections, registry, logger)
		case "ask":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: %s ask <question> [connection-id]\n", os.Args[0])
				os.Exit(1)
			}
			connectionID := ""
			if len(os.Args) > 3 {
				connectionID = os.Args[3]
			}
			runDirectQuery(ctx, orch, os.Args[2], connectionID)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	} else {
		runWebServer(ctx, cfg, registry, connections, orch, aiService, logger, sigChan)
	}
}

func runWebServer(
	ctx context.Context,
	cfg *config.Config,
	registry *handler.Registry,
	connections *connection.Manager,
	orch *orchestrator.Orchestrator,
	aiService *ai.Service,
	logger *slog.Logger,
	sigChan chan os.Signal,
) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("pprof server panicked", slog.Any("panic", r))
			}
		}()
		logger.Info("starting pprof server", slog.String("address", "localhost:6060"))
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logger.Warn("pprof server failed", slog.Any("error", err))
		}
	}()

	metrics, err := observability.NewMetrics(appName)
	if err != nil {
		logger.Error("failed to initialize metrics", slog.Any("error", err))
		os.Exit(1)
	}

	deps := server.Deps{
		Registry:     registry,
		Connections:  connections,
		Orchestrator: orch,
		AI:           aiService,
	}

	srv, err := server.New(cfg.Server, cfg.Security, deps, logger, metrics)
	if err != nil {
		logger.Error("failed to initialize server", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("HTTP server goroutine panicked",
					slog.Any("panic", r),
					slog.String("address", cfg.Server.Address))
				os.Exit(1)
			}
		}()
		logger.Info("starting web server", slog.String("address", cfg.Server.Address))
		if err := srv.Start(ctx); err != nil {
			logger.Error("server failed to start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-sigChan
	logger.Info("received shutdown signal, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

func runCLI(
	ctx context.Context,
	cfg *config.Config,
	orch *orchestrator.Orchestrator,
	connections *connection.Manager,
	registry *handler.Registry,
	logger *slog.Logger,
) {
	cliApp, err := cli.New(cfg.CLI, orch, connections, registry, logger)
	if err != nil {
		logger.Error("failed to initialize CLI", slog.Any("error", err))
		os.Exit(1)
	}
	defer cliApp.Close()

	if err := cliApp.Run(ctx); err != nil {
		logger.Error("CLI execution failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func runDirectQuery(ctx context.Context, orch *orchestrator.Orchestrator, query, connectionID string) {
	events := orch.Run(ctx, query, connectionID)
	for ev := range events {
		if ev.Type == orchestrator.EventResult && ev.Final != nil {
			fmt.Println(ev.Final.Summary)
		}
		if ev.Type == orchestrator.EventError {
			fmt.Fprintf(os.Stderr, "error: %s\n", ev.Message)
		}
	}
}

func printUsage() {
	fmt.Printf(`%s %s - natural-language query agent

Usage:
  %s [command] [arguments]

Commands:
  serve, server                    Start the HTTP API server (default)
  cli, interactive                 Start the interactive CLI
  ask <question> [connection-id]   Ask a direct question and print the result
  version                          Show version information
  help                             Show this help message

Examples:
  %s serve                            # Start the HTTP API server
  %s cli                              # Start the interactive CLI
  %s ask "top 5 customers by revenue" # Ask a direct question
`, appName, appVersion, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}
