package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"BookStoreScraper/internal/app"
	"BookStoreScraper/pkg/config"
	"BookStoreScraper/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	task := flag.String("task", "search", "Task to run: search, details, automatic, open or stores")
	configPath := flag.String("config", "", "Path to config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	stores := flag.String("store", "", "Comma separated store names, empty for all")
	query := flag.String("query", "", "Search query")
	maxResults := flag.Int("max", 10, "Maximum results per store")
	item := flag.String("item", "", "Detail item to open, empty for the store front page")
	external := flag.Bool("external", true, "Open in the system browser instead of a store window")
	flag.Parse()

	cfg, err := config.LoadConfig(config.ResolvePath(*configPath))
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to start: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.Infof("Running task: %s", *task)

	switch *task {
	case "search":
		// Phase 1: run the query against the stores and save what the listings show.
		err = search(ctx, application, *stores, *query, *maxResults)

	case "details":
		// Phase 2: fill in results saved in phase 1 from their detail pages.
		err = application.RunDetailScraper(ctx)

	case "automatic":
		if err = search(ctx, application, *stores, *query, *maxResults); err == nil {
			err = application.RunDetailScraper(ctx)
		}

	case "open":
		if *stores == "" {
			logrus.Fatal("-store is required for open")
		}
		err = application.RunOpen(ctx, *stores, *item, *external)

	case "stores":
		for _, name := range application.Stores.Names() {
			s, _ := application.Stores.Get(name)
			fmt.Printf("%-24s %s\n", s.Name(), s.URL())
		}

	default:
		logrus.Fatalf("Unknown task: %s.", *task)
	}

	if err != nil {
		logrus.Errorf("Task %s failed: %v", *task, err)
		application.Close()
		os.Exit(1)
	}
}

func search(ctx context.Context, application *app.App, stores, query string, maxResults int) error {
	if query == "" {
		return fmt.Errorf("-query is required")
	}
	results, err := application.RunSearch(ctx, utils.SplitList(stores), query, maxResults)
	for _, r := range results {
		fmt.Printf("[%s] %s / %s  %s  %s  DRM:%s\n", r.Store, r.Title, r.Author, r.Price, r.Formats, r.DRM)
	}
	if err != nil && len(results) > 0 {
		// Some stores answered; report the rest without failing the task.
		logrus.Warnf("Some stores failed: %v", err)
		return nil
	}
	return err
}
