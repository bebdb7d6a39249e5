// Package main provides the entry point for the autocompeter service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/peterbecom/autocompeter/internal/api"
	"github.com/peterbecom/autocompeter/internal/audit"
	"github.com/peterbecom/autocompeter/internal/authstore"
	"github.com/peterbecom/autocompeter/internal/indexer"
	"github.com/peterbecom/autocompeter/internal/indexstore"
	"github.com/peterbecom/autocompeter/internal/indexstore/memstore"
	"github.com/peterbecom/autocompeter/internal/indexstore/redisstore"
	"github.com/peterbecom/autocompeter/internal/query"
	"github.com/peterbecom/autocompeter/pkg/types"
)

func main() {
	config := parseFlags()
	printBanner(config)

	auth, store, emitter, err := initComponents(config)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	srv := api.NewServer(
		config.Server,
		config.Query,
		auth,
		indexer.New(store),
		query.New(store, config.Query.PostingFetchLimit),
		emitter,
	)

	shutdownDone := make(chan struct{})
	go handleShutdown(srv, auth, store, emitter, shutdownDone)

	log.Printf("starting autocompeter on port %d (backend=%s)", config.Server.Port, config.Redis.Backend)
	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	<-shutdownDone
	log.Println("autocompeter stopped")
}

func parseFlags() *types.Config {
	config := types.DefaultConfig()

	flag.IntVar(&config.Server.Port, "port", config.Server.Port, "HTTP port")
	flag.IntVar(&config.Server.Port, "p", config.Server.Port, "HTTP port (shorthand)")

	flag.StringVar(&config.Redis.Backend, "backend", config.Redis.Backend, "Index store backend (redis, memory)")
	flag.StringVar(&config.Redis.Addr, "redis-addr", config.Redis.Addr, "Redis address")
	flag.IntVar(&config.Redis.DB, "redis-db", config.Redis.DB, "Redis DB number")

	flag.StringVar(&config.AuthStore.DataDir, "auth-dir", config.AuthStore.DataDir, "Auth key table directory")
	flag.StringVar(&config.AuthStore.DataDir, "d", config.AuthStore.DataDir, "Auth key table directory (shorthand)")

	flag.StringVar(&config.Audit.EventsDir, "audit-dir", config.Audit.EventsDir, "Audit log directory (empty disables)")

	flag.StringVar(&config.Log.Level, "log-level", config.Log.Level, "Log level (debug, info, warn, error)")
	flag.StringVar(&config.Log.Level, "l", config.Log.Level, "Log level (shorthand)")

	help := flag.Bool("help", false, "Show help")
	flag.BoolVar(help, "h", false, "Show help (shorthand)")

	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	return config
}

func printUsage() {
	fmt.Print(`autocompeter - multi-tenant prefix autocomplete service

Usage:
  autocompeter-server [options]

Options:
  -p, --port PORT         HTTP port (default: 8000)
  --backend BACKEND       Index store backend: redis, memory (default: memory)
  --redis-addr ADDR       Redis address (default: localhost:6379)
  --redis-db N            Redis DB number
  -d, --auth-dir DIR      Auth key table directory (default: ./data/auth)
  --audit-dir DIR         Audit log directory, empty disables it
  -l, --log-level LEVEL   Log level: debug, info, warn, error (default: info)
  -h, --help              Show this help
`)
}

func printBanner(config *types.Config) {
	fmt.Println("autocompeter")
	fmt.Printf("  Port:     %d\n", config.Server.Port)
	fmt.Printf("  Backend:  %s\n", config.Redis.Backend)
	fmt.Printf("  AuthDir:  %s\n", config.AuthStore.DataDir)
	fmt.Println()
}

func initComponents(config *types.Config) (*authstore.Store, indexstore.Store, *audit.Emitter, error) {
	if err := os.MkdirAll(config.AuthStore.DataDir, 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create auth dir: %w", err)
	}

	log.Println("initializing auth store...")
	auth, err := authstore.Open(config.AuthStore)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open auth store: %w", err)
	}

	log.Println("initializing index store...")
	var store indexstore.Store
	switch config.Redis.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		store = redisstore.New(rdb)
	default:
		store = memstore.New()
	}

	log.Println("initializing audit emitter...")
	emitter, err := audit.NewEmitter(config.Audit.EventsDir)
	if err != nil {
		auth.Close()
		return nil, nil, nil, fmt.Errorf("failed to create audit emitter: %w", err)
	}

	log.Println("all components initialized")
	return auth, store, emitter, nil
}

func handleShutdown(server *api.Server, auth *authstore.Store, store indexstore.Store, emitter *audit.Emitter, done chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), types.DefaultConfig().Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if emitter != nil {
		emitter.Close()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			log.Printf("index store close error: %v", err)
		}
	}
	if auth != nil {
		if err := auth.Close(); err != nil {
			log.Printf("auth store close error: %v", err)
		}
	}

	log.Println("shutdown complete")
	close(done)
}
