// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/gyrocam/internal/config"
	"github.com/relabs-tech/gyrocam/internal/orientation"
)

// RunMockProducer publishes synthetic samples on the sample topic matching
// the configured device platform, for running the bridge without hardware.
func RunMockProducer(ctx context.Context, logger *zap.SugaredLogger) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDMock)
	if err != nil {
		return err
	}
	defer client.Disconnect(disconnectQuiesce)
	logger.Infof("mock: connected to MQTT broker at %s", cfg.MQTTBroker)

	platform := orientation.Platform{Name: cfg.DevicePlatform, UserAgent: cfg.DeviceUserAgent, Touch: cfg.DeviceTouch}
	topic := cfg.TopicSampleAbsolute
	if orientation.EventKindFor(platform.IsAppleMobile()) == orientation.EventRelative {
		topic = cfg.TopicSampleRelative
	}
	logger.Infof("mock: publishing to %s", topic)

	src := orientation.NewMockSource()
	pub := &mqttPublisher{client: client}
	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("mock: shutting down")
			return nil
		case <-ticker.C:
		}

		s, err := src.Next()
		if err != nil {
			logger.Warnf("mock: source error: %v", err)
			continue
		}
		if err := publishJSON(pub, topic, s); err != nil {
			logger.Warnf("mock: %v", err)
		}
	}
}
