package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"phishlab/app"
	"phishlab/config"
	"phishlab/utils"
)

func main() {
	utils.Log.Info("Initializing PhishLab...")

	path := os.Getenv("PHISHLAB_CONFIG")
	if path == "" {
		path = "config.toml"
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		utils.Log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		utils.Log.Error("Failed to initialize application: %v", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		utils.Log.Error("%v", err)
		os.Exit(1)
	}
}
