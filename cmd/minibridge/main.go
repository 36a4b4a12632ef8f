package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattjoyce/minibridge/internal/api"
	"github.com/mattjoyce/minibridge/internal/builtin"
	"github.com/mattjoyce/minibridge/internal/config"
	"github.com/mattjoyce/minibridge/internal/dispatch"
	"github.com/mattjoyce/minibridge/internal/events"
	"github.com/mattjoyce/minibridge/internal/journal"
	"github.com/mattjoyce/minibridge/internal/lock"
	"github.com/mattjoyce/minibridge/internal/log"
	"github.com/mattjoyce/minibridge/internal/registry"
	"github.com/mattjoyce/minibridge/internal/storage"
	"github.com/mattjoyce/minibridge/internal/tui/watch"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "watch":
		os.Exit(runWatch(args))
	case "config":
		os.Exit(runConfig(args))
	case "version":
		fmt.Printf("minibridge version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`minibridge - host-side RPC bridge for embedded mini-apps

Usage:
  minibridge <command> [flags]

Commands:
  start         Run the bridge service in foreground
  watch         Live activity TUI (connects to the admin API)
  config lock   Authorize current config (write integrity hash)
  config check  Validate config syntax and integrity
  version       Show version information
  help          Show this help message

Start flags:
  --config <path>   Config file (default: built-in defaults, no file)

Watch flags:
  --api <url>       Admin API base URL (default http://127.0.0.1:8400)
  --key <key>       Admin API key
`)
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	var cfg *config.Config
	if *configPath == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("starting minibridge", "version", version, "name", cfg.Service.Name)

	pidLock, err := lock.AcquirePIDLock(cfg.Service.LockPath)
	if err != nil {
		logger.Error("failed to acquire instance lock", "error", err)
		return 1
	}
	defer func() { _ = pidLock.Release() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenSQLite(ctx, cfg.Journal.Path)
	if err != nil {
		logger.Error("failed to open journal database", "error", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	jr := journal.New(db)
	if err := jr.Prune(ctx, cfg.Journal.Retention); err != nil {
		logger.Warn("journal prune failed", "error", err)
	}

	hub := events.NewHub(256)

	reg := registry.New()
	if err := builtin.Register(reg, version); err != nil {
		logger.Error("failed to register built-in handlers", "error", err)
		return 1
	}
	defer reg.UnregisterAll()

	dispatcher := dispatch.New(reg,
		dispatch.WithTimeout(cfg.Service.MethodTimeout),
		dispatch.WithJournal(jr),
		dispatch.WithHub(hub),
	)

	logger.Info("bridge ready",
		"namespaces", reg.Namespaces(),
		"method_timeout", cfg.Service.MethodTimeout,
	)

	// Hourly journal pruning keeps the diagnostics log bounded.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := jr.Prune(ctx, cfg.Journal.Retention); err != nil {
					logger.Warn("journal prune failed", "error", err)
				}
			}
		}
	}()

	if cfg.API.Enabled {
		server := api.New(api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.Auth.APIKey,
		}, dispatcher, reg, jr, hub, log.WithComponent("api"))

		if err := server.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("api server failed", "error", err)
			return 1
		}
	} else {
		logger.Info("admin API disabled; waiting for transport traffic")
		<-ctx.Done()
	}

	logger.Info("minibridge stopped")
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api", "http://127.0.0.1:8400", "admin API base URL")
	apiKey := fs.String("key", "", "admin API key")
	_ = fs.Parse(args)

	if err := watch.Run(*apiURL, *apiKey); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: minibridge config <lock|check> [--config <path>]")
		return 1
	}

	action := args[0]
	fs := flag.NewFlagSet("config "+action, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	_ = fs.Parse(args[1:])

	switch action {
	case "lock":
		if err := config.Lock(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Locked %s\n", *configPath)
		return 0
	case "check":
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("OK: %s (service %q, method timeout %v)\n",
			*configPath, cfg.Service.Name, cfg.Service.MethodTimeout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}
