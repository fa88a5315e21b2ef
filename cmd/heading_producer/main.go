package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/gyrocam/internal/app"
	"github.com/relabs-tech/gyrocam/internal/config"
	"github.com/relabs-tech/gyrocam/internal/logging"
)

func main() {
	configPath := flag.String("config", "gyrocam_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting gyrocam heading producer (NMEA → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(config.Get().LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunHeadingProducer(ctx, logging.Named(logger, "heading")); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}
