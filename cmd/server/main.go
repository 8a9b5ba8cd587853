package main

import (
	"flag"

	"BookStoreScraper/internal/app"
	"BookStoreScraper/internal/server"
	"BookStoreScraper/pkg/config"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(config.ResolvePath(*configPath))
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// The server reads the same results database the scraper writes.
	application, err := app.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to start: %v", err)
	}
	defer application.Close()

	handler := server.NewHandler(application.Repo, application, cfg.Server.ApiKey)
	if err := server.Start(cfg.Server.Port, handler); err != nil {
		logrus.Errorf("Server stopped: %v", err)
	}
}
