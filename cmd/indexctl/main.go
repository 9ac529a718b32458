// Package main provides a maintenance tool for the search index.
//
// Usage:
//
//	go run ./cmd/indexctl recreate-index          # Schedule a rebuild on the server's task queue
//	go run ./cmd/indexctl recreate-index --sync   # Rebuild inline, blocking until done
//	go run ./cmd/indexctl refresh-index           # Force pending index writes to settle
//
// Configuration comes from the environment and .env, the same as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/queue"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/store/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "recreate-index":
		recreateFlags := flag.NewFlagSet("recreate-index", flag.ExitOnError)
		sync := recreateFlags.Bool("sync", false, "Rebuild inline instead of scheduling a task")
		_ = recreateFlags.Parse(os.Args[2:])
		runRecreate(*sync)
	case "refresh-index":
		runRefresh()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(2)
	}
}

func runRecreate(sync bool) {
	cfg, st, log := open()
	defer st.Close()

	ctx := context.Background()

	if !sync {
		// Insert the task and let the running server's workers pick it up.
		q := queue.New(st, queue.Options{Logger: log.Logger})
		taskID, err := q.Enqueue(ctx, domain.TaskTypeReindexAll, struct{}{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "enqueue reindex task: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Reindex scheduled, task %s\n", taskID)
		return
	}

	index := openIndex(cfg, log)
	defer index.Close()

	indexer := service.NewIndexerService(st, index, log.Logger)
	if err := indexer.ReindexAll(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "reindex: %v\n", err)
		os.Exit(1)
	}

	count, _ := index.DocumentCount()
	fmt.Printf("Index rebuilt, %d documents\n", count)
}

func runRefresh() {
	cfg, st, log := open()
	defer st.Close()

	index := openIndex(cfg, log)
	defer index.Close()

	indexer := service.NewIndexerService(st, index, log.Logger)
	if err := indexer.RefreshIndex(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "refresh: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Index refreshed")
}

func open() (*config.Config, *sqlite.Store, *logger.Logger) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: slog.LevelWarn})

	st, err := sqlite.Open(cfg.DatabasePath(), log.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}

	return cfg, st, log
}

func openIndex(cfg *config.Config, log *logger.Logger) *search.Index {
	index, err := search.NewIndex(search.Options{
		Path:   cfg.Search.IndexPath,
		Logger: log.Logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open search index: %v\n", err)
		os.Exit(1)
	}
	return index
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: indexctl <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  recreate-index [--sync]   rebuild the search index from the database")
	fmt.Fprintln(os.Stderr, "  refresh-index             force pending index writes to settle")
}
