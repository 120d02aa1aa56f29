package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eringen/folio"
	"github.com/eringen/folio/auth"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "hash-password":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: folio hash-password <password>")
			os.Exit(1)
		}
		hash, err := auth.HashPassword(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
	case "version":
		fmt.Printf("folio %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := folio.LoadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := folio.New(cfg, folio.WithLogger(log))
	errc := make(chan error, 1)
	go func() { errc <- app.Start(ctx) }()

	select {
	case err := <-errc:
		app.Close()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func newLogger(cfg folio.SiteConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func printUsage() {
	fmt.Println(`folio - content and contact inbox server for a single-operator site

Usage:
  folio [command] [arguments]

Commands:
  serve                 Start the HTTP server (default)
  hash-password <pw>    Print a bcrypt hash for FOLIO_ADMIN_PASSWORD_HASH
  version               Print the folio version
  help                  Show this help message

Configuration is read from FOLIO_* environment variables and an optional .env file.`)
}
