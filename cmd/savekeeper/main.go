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

	"github.com/raoulx24/savekeeper/internal/config"
	"github.com/raoulx24/savekeeper/internal/logging"
	"github.com/raoulx24/savekeeper/internal/restore"
	"github.com/raoulx24/savekeeper/internal/retention"
	"github.com/raoulx24/savekeeper/internal/snapshot"
	"github.com/raoulx24/savekeeper/internal/stability"
	"github.com/raoulx24/savekeeper/internal/watcher"
)

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "path to the config file")
		listMode    = flag.Bool("list", false, "list snapshots and exit")
		restoreName = flag.String("restore", "", "restore the named snapshot and exit")
		deleteName  = flag.String("delete", "", "delete the named snapshot and exit")
		pruneMode   = flag.Bool("prune", false, "prune snapshots beyond the retention limit and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logg := logging.StdLogger{Verbose: cfg.Logging.Verbose}
	catalog := retention.NewCatalog(cfg.Destination, logg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch {
	case *listMode:
		entries, err := catalog.List()
		if err != nil {
			log.Fatalf("failed to list snapshots: %v", err)
		}
		for _, e := range entries {
			marker := ""
			if e.IsDir {
				marker = "/"
			}
			fmt.Printf("%s\t%s%s\n", e.CreatedAt.Format(time.RFC3339), e.Name, marker)
		}

	case *deleteName != "":
		entry, err := catalog.Find(*deleteName)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := catalog.Delete(entry); err != nil {
			log.Fatalf("failed to delete snapshot: %v", err)
		}

	case *restoreName != "":
		entry, err := catalog.Find(*restoreName)
		if err != nil {
			log.Fatalf("%v", err)
		}
		// no live watch session in this process, nothing to pause
		r := restore.New(cfg.Restore, logg, nil)
		if err := r.Restore(ctx, entry, cfg.Source, nil); err != nil {
			log.Fatalf("failed to restore snapshot: %v", err)
		}

	case *pruneMode:
		if err := catalog.Prune(); err != nil {
			log.Fatalf("failed to prune snapshots: %v", err)
		}

	default:
		runWatch(ctx, cancel, cfg, logg, catalog)
	}
}

func runWatch(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logg logging.Logger, catalog *retention.Catalog) {
	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		cancel()
	}()

	detector := stability.Detector{
		Interval: cfg.Source.Watch.SampleInterval.Std(),
		Samples:  cfg.Source.Watch.StableSamples,
	}

	writer := snapshot.NewWriter(cfg.Destination, detector, logg, nil)
	coord := watcher.New(cfg.Source, writer, logg)

	// Scheduled retention prune
	if spec := cfg.Destination.Retention.Schedule; spec != "" {
		sched, err := retention.NewScheduler(catalog, spec, logg)
		if err != nil {
			log.Fatalf("failed to schedule retention: %v", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	if entries, err := catalog.List(); err == nil {
		logg.Info("%d snapshot(s) in catalog", len(entries))
	}

	go func() {
		<-ctx.Done()
		coord.Stop()
	}()

	if err := coord.Start(ctx); err != nil {
		log.Fatalf("failed to start watcher: %v", err)
	}
	log.Println("exit complete")
}
