// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

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

	log.Println("starting gyrocam bridge (MQTT samples → camera angles)")

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

	if err := app.RunBridge(ctx, logging.Named(logger, "bridge")); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}
