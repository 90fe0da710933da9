package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/THOM-AwS/meshcore-bot/internal/bot"
	"github.com/THOM-AwS/meshcore-bot/internal/config"
)

func main() {
	config.LoadDotEnv("[meshbot]")

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("[meshbot] %v", err)
	}

	runner, err := bot.NewRunner(cfg)
	if err != nil {
		log.Fatalf("[meshbot] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("[meshbot] %v", err)
	}
}
