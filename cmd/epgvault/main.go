package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/telavision/epgvault/internal/cache"
	"github.com/telavision/epgvault/internal/config"
	"github.com/telavision/epgvault/internal/fetcher"
	"github.com/telavision/epgvault/internal/server"
	"github.com/telavision/epgvault/internal/service"
	"github.com/telavision/epgvault/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use env DATABASE_URL")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Run migrations.
	absMigrations, err := filepath.Abs("migrations")
	if err != nil {
		absMigrations = "migrations"
	}
	if _, err := os.Stat(absMigrations); err != nil {
		if exe, e := os.Executable(); e == nil {
			absMigrations = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	migrationsPath := "file://" + absMigrations
	if err := store.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Connect to Redis if REDIS_URL is configured.
	var rds *cache.Redis
	var appStore store.Store = pg
	if cfg.RedisURL != "" {
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer rds.Close()

		if err := rds.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "redis ping: %v\n", err)
			os.Exit(1)
		}

		appStore = store.NewCachedStore(pg, rds)
		fmt.Fprintln(os.Stderr, "redis connected (caching enabled)")
	} else {
		fmt.Fprintln(os.Stderr, "redis disabled (REDIS_URL not set)")
	}

	feeds := fetcher.New(cfg.XMLTVBaseURL, cfg.UserAgent, cfg.Timeout)
	runner := service.NewRunner(appStore, feeds, rds)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One full ingestion pass at startup, in the background so the
	// read API comes up immediately. A failed run is logged loudly
	// and left for the operator to re-trigger via /api/refresh.
	go func() {
		runID := uuid.New()
		if _, err := runner.Run(ctx, runID); err != nil {
			log.Printf("ERROR ingest[%s]: startup run failed: %v", runID, err)
		}
	}()

	// Refresh jobs queued over Redis are drained by a single worker.
	if rds != nil {
		go runIngestWorker(ctx, rds, runner)
	}

	srv := server.New(appStore, cfg, runner, rds)
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

// runIngestWorker continuously dequeues ingestion jobs from Redis and
// runs them. It stops when ctx is cancelled (graceful shutdown).
func runIngestWorker(ctx context.Context, rds *cache.Redis, runner *service.Runner) {
	log.Println("ingest worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("ingest worker stopping")
			return
		default:
		}

		job, err := cache.Dequeue(ctx, rds, cache.IngestQueue, 5*time.Second)
		if err != nil {
			log.Printf("ingest worker: dequeue error: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue // timeout, loop back to check ctx
		}

		log.Printf("ingest worker: processing job run_id=%s trigger=%q", job.RunID, job.Trigger)
		if _, err := runner.Run(ctx, job.RunID); err != nil {
			log.Printf("ERROR ingest[%s]: %v", job.RunID, err)
		}
	}
}
