// FILE: cmd/chesspipe/main.go
// Package main runs the chess game-record pipeline and serves its results.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chesspipe/cmd/chesspipe/cli"
	"chesspipe/internal/config"
	"chesspipe/internal/http"
	"chesspipe/internal/service"
	"chesspipe/internal/storage"
	"chesspipe/internal/webui"

	"github.com/gofiber/fiber/v2"
)

const (
	gracefulShutdownTimeout = time.Second * 5
)

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}
	os.Exit(run(os.Args[1:]))
}

// run returns the exit code so deferred cleanup runs before exiting
func run(args []string) int {
	serve := len(args) > 0 && args[0] == "serve"
	if serve {
		args = args[1:]
	}

	cfg, pidPath, pidLock, err := parseFlags(args, serve)
	if err != nil {
		log.Printf("Error: %v", err)
		return 2
	}

	if pidLock && pidPath == "" {
		log.Printf("Error: -pid-lock flag requires the -pid flag to be set")
		return 2
	}
	if pidPath != "" {
		pid, err := acquirePIDFile(pidPath, pidLock)
		if err != nil {
			log.Printf("Failed to manage PID file: %v", err)
			return 1
		}
		defer pid.release()
		log.Printf("PID file created at: %s (lock: %v)", pidPath, pidLock)
	}

	var store *storage.Store
	if cfg.Output.Database != "" {
		log.Printf("Initializing persistent storage at: %s", cfg.Output.Database)
		store, err = storage.NewStore(cfg.Output.Database, cfg.Output.WAL || serve)
		if err != nil {
			log.Printf("Failed to initialize storage: %v", err)
			return 1
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			log.Printf("Failed to initialize schema: %v", err)
			return 1
		}
	} else {
		log.Printf("Persistent storage disabled (use -db to enable)")
	}

	svc := service.New(cfg, store)
	defer func() {
		if err := svc.Close(); err != nil {
			log.Printf("Warning: failed to close storage cleanly: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serve {
		runServer(ctx, cfg, svc)
		return 0
	}

	if _, err := svc.Run(ctx); err != nil {
		log.Printf("Run failed: %v", err)
		return 1
	}
	return 0
}

func runServer(ctx context.Context, cfg config.Config, svc *service.Service) {
	app := http.NewFiberApp(svc, cfg.Server.Dev)
	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Printf("Dataset API Server starting...")
		log.Printf("API Listening on: http://%s", apiAddr)
		log.Printf("API Version: v1")
		if cfg.Server.Dev {
			log.Printf("Rate Limit: 20 requests/second per IP (DEV MODE)")
		} else {
			log.Printf("Rate Limit: 10 requests/second per IP")
		}
		log.Printf("Storage: %s", svc.GetStorageHealth())
		log.Printf("API Endpoints: http://%s/api/v1/games", apiAddr)
		log.Printf("Health: http://%s/health", apiAddr)

		if err := app.Listen(apiAddr); err != nil {
			log.Printf("API server listen error: %v", err)
		}
	}()

	apps := []*fiber.App{app}
	if cfg.Server.WebPort > 0 {
		webAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.WebPort)
		web, err := webui.New("http://" + apiAddr)
		if err != nil {
			log.Printf("Web UI disabled: %v", err)
		} else {
			apps = append(apps, web)
			go func() {
				log.Printf("Web UI Listening on: http://%s", webAddr)
				if err := web.Listen(webAddr); err != nil {
					log.Printf("Web UI server error: %v", err)
				}
			}()
		}
	}

	<-ctx.Done()
	log.Println("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	for _, a := range apps {
		if err := a.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}
	}
	log.Println("Server exited")
}

// parseFlags layers flags over the config file over the defaults
func parseFlags(args []string, serve bool) (config.Config, string, bool, error) {
	fs := flag.NewFlagSet("chesspipe", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "YAML config file")

		pgnPath  = fs.String("pgn", "", "Local PGN archive to process")
		username = fs.String("user", "", "chess.com username to download when -pgn is not set")
		from     = fs.String("from", "", "First archive month, YYYY-MM (inclusive)")
		to       = fs.String("to", "", "Last archive month, YYYY-MM (inclusive)")
		policy   = fs.String("on-error", "", "Unreplayable games: abort or skip")
		verbose  = fs.Bool("v", false, "Log every archive request")

		engineOn = fs.Bool("engine", false, "Evaluate unique positions with a UCI engine")
		engPath  = fs.String("engine-path", "", "Engine binary")
		depth    = fs.Int("depth", -1, "Search depth per position")
		workers  = fs.Int("workers", 0, "Engine processes")

		outDir = fs.String("out", "", "Output directory for archive and CSV files")
		csv    = fs.Bool("csv", false, "Write moves, games and merged CSV files")
		dbPath = fs.String("db", "", "Path to SQLite database file (disables persistence if empty)")

		host = fs.String("api-host", "", "API server host")
		port = fs.Int("api-port", 0, "API server port")
		web  = fs.Int("web-port", 0, "Dataset browser port, 0 disables")
		dev  = fs.Bool("dev", false, "Development mode (relaxed rate limits, WAL)")

		pidPath = fs.String("pid", "", "Optional path to write PID file")
		pidLock = fs.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
	)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, "", false, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, "", false, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["pgn"] {
		cfg.Input.PGN = *pgnPath
	}
	if set["user"] {
		cfg.Input.Username = *username
	}
	if set["from"] {
		cfg.Input.From = *from
	}
	if set["to"] {
		cfg.Input.To = *to
	}
	if set["v"] {
		cfg.Input.Verbose = *verbose
	}
	if set["on-error"] {
		cfg.Parse.Policy = *policy
	}
	if set["engine"] {
		cfg.Engine.Enabled = *engineOn
	}
	if set["engine-path"] {
		cfg.Engine.Path = *engPath
	}
	if set["depth"] {
		cfg.Engine.Depth = *depth
	}
	if set["workers"] {
		cfg.Engine.Workers = *workers
	}
	if set["out"] {
		cfg.Output.Dir = *outDir
	}
	if set["csv"] {
		cfg.Output.CSV = *csv
	}
	if set["db"] {
		cfg.Output.Database = *dbPath
	}
	if set["api-host"] {
		cfg.Server.Host = *host
	}
	if set["api-port"] {
		cfg.Server.Port = *port
	}
	if set["web-port"] {
		cfg.Server.WebPort = *web
	}
	if set["dev"] {
		cfg.Server.Dev = *dev
		cfg.Output.WAL = *dev
	}

	if serve {
		err = cfg.ValidateServer()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return cfg, "", false, err
	}
	return cfg, *pidPath, *pidLock, nil
}
