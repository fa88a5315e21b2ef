// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/gyrocam/internal/config"
	"github.com/relabs-tech/gyrocam/internal/heading"
	"github.com/relabs-tech/gyrocam/internal/listener"
	"github.com/relabs-tech/gyrocam/internal/orientation"
)

func printAngles(w io.Writer, tag string, a orientation.Angles) {
	d := a.Degrees()
	fmt.Fprintf(w, "[%s] PITCH=%7.2f  ROLL=%7.2f  YAW=%7.2f\n", tag, d.Pitch, d.Roll, d.Yaw)
}

// RunConsoleMQTT prints the angles and headings seen on the broker.
func RunConsoleMQTT(ctx context.Context, logger *zap.SugaredLogger) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(disconnectQuiesce)
	logger.Infof("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	err = subscribeMQTT(client, cfg.TopicAngles, func(payload []byte) {
		var a orientation.Angles
		if err := json.Unmarshal(payload, &a); err != nil {
			logger.Warnf("console: angles unmarshal error: %v", err)
			return
		}
		printAngles(os.Stdout, "CAM ", a)
	})
	if err != nil {
		return err
	}
	logger.Infof("console: subscribed to %s", cfg.TopicAngles)

	err = subscribeMQTT(client, cfg.TopicHeading, func(payload []byte) {
		var h heading.Heading
		if err := json.Unmarshal(payload, &h); err != nil {
			logger.Warnf("console: heading unmarshal error: %v", err)
			return
		}
		fmt.Printf("[HDG ] %6.2f° source=%s time=%s\n", h.Degrees, h.Source, h.Time)
	})
	if err != nil {
		return err
	}
	logger.Infof("console: subscribed to %s", cfg.TopicHeading)

	<-ctx.Done()
	logger.Info("console: shutting down")
	return nil
}

// RunMockConsole runs the mock source through the resolver locally and
// prints the angles. No broker is needed.
func RunMockConsole(ctx context.Context, logger *zap.SugaredLogger) error {
	cfg := config.Get()
	return runLocal(ctx, orientation.NewMockSource(), time.Duration(cfg.IMUSampleInterval)*time.Millisecond, os.Stdout, logger)
}

// runLocal feeds src into a hub and prints every resolved sample to w.
func runLocal(ctx context.Context, src orientation.Source, interval time.Duration, w io.Writer, logger *zap.SugaredLogger) error {
	hub := listener.NewHub()
	lst := listener.New(hub, orientation.Platform{}, logger)
	defer lst.Close()
	lst.Subscribe(func(a orientation.Angles) { printAngles(w, "MOCK", a) })

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		s, err := src.Next()
		if err != nil {
			return fmt.Errorf("mock source: %w", err)
		}
		hub.Dispatch(lst.Kind(), s)
	}
}
