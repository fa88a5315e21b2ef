// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/gyrocam/internal/config"
	"github.com/relabs-tech/gyrocam/internal/heading"
	"github.com/relabs-tech/gyrocam/internal/orientation"
	"github.com/relabs-tech/gyrocam/internal/sensors"
)

// withHeading completes a tilt sample with the last known compass heading.
// Without a heading the sample keeps alpha undefined.
func withHeading(s orientation.RawSample, h *heading.Heading) orientation.RawSample {
	if h == nil {
		return s
	}
	s.Alpha = orientation.Float(orientation.AlphaFromHeading(h.Degrees))
	s.CompassHeading = orientation.Float(h.Degrees)
	return s
}

// RunIMUProducer reads tilt from the MPU9250 and publishes absolute
// orientation samples. The heading producer, when running, supplies alpha.
func RunIMUProducer(ctx context.Context, logger *zap.SugaredLogger) error {
	cfg := config.Get()

	src, err := sensors.NewIMUSource(cfg.IMUSPIDevice, cfg.IMUCSPin, logger)
	if err != nil {
		return err
	}
	logger.Infof("imu: MPU9250 ready on %s", cfg.IMUSPIDevice)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDIMU)
	if err != nil {
		return err
	}
	defer client.Disconnect(disconnectQuiesce)
	logger.Infof("imu: connected to MQTT broker at %s", cfg.MQTTBroker)

	var (
		mu   sync.Mutex
		last *heading.Heading
	)
	err = subscribeMQTT(client, cfg.TopicHeading, func(payload []byte) {
		var h heading.Heading
		if err := json.Unmarshal(payload, &h); err != nil {
			logger.Warnf("imu: heading unmarshal error: %v", err)
			return
		}
		mu.Lock()
		last = &h
		mu.Unlock()
	})
	if err != nil {
		return err
	}

	pub := &mqttPublisher{client: client}
	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("imu: shutting down")
			return nil
		case <-ticker.C:
		}

		s, err := src.Next()
		if err != nil {
			logger.Warnf("imu: read error: %v", err)
			continue
		}

		mu.Lock()
		s = withHeading(s, last)
		mu.Unlock()

		if err := publishJSON(pub, cfg.TopicSampleAbsolute, s); err != nil {
			logger.Warnf("imu: %v", err)
		}
	}
}
