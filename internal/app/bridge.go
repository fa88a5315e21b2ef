// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/relabs-tech/gyrocam/internal/config"
	"github.com/relabs-tech/gyrocam/internal/listener"
	"github.com/relabs-tech/gyrocam/internal/orientation"
)

// dispatchPayload decodes one MQTT sample and hands it to the hub under kind.
func dispatchPayload(hub *listener.Hub, kind orientation.EventKind, payload []byte) error {
	var s orientation.RawSample
	if err := json.Unmarshal(payload, &s); err != nil {
		return fmt.Errorf("sample unmarshal (%s): %w", kind, err)
	}
	hub.Dispatch(kind, s)
	return nil
}

// RunBridge resolves samples arriving on the MQTT sample topics and
// publishes the angles. The device platform comes from the config file.
// Both sample topics feed the hub; the listener only hears its own kind.
func RunBridge(ctx context.Context, logger *zap.SugaredLogger) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDBridge)
	if err != nil {
		return err
	}
	defer client.Disconnect(disconnectQuiesce)
	logger.Infof("bridge: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Angles are published from inside the sample handler.
	pub := &mqttPublisher{client: client, retained: true, async: true, logger: logger}
	hub := listener.NewHub()
	platform := orientation.Platform{
		Name:      cfg.DevicePlatform,
		UserAgent: cfg.DeviceUserAgent,
		Touch:     cfg.DeviceTouch,
	}
	lst := listener.New(hub, platform, logger)
	defer lst.Close()

	lst.Subscribe(func(a orientation.Angles) {
		if err := publishJSON(pub, cfg.TopicAngles, a); err != nil {
			logger.Warnf("bridge: %v", err)
			return
		}
		d := a.Degrees()
		logger.Debugf("bridge: pitch=%.1f roll=%.1f yaw=%.1f", d.Pitch, d.Roll, d.Yaw)
	})
	logger.Infof("bridge: platform=%q appleMobile=%t listening for %s", platform.Name, lst.AppleMobile(), lst.Kind())

	topics := map[string]orientation.EventKind{
		cfg.TopicSampleRelative: orientation.EventRelative,
		cfg.TopicSampleAbsolute: orientation.EventAbsolute,
	}
	for topic, kind := range topics {
		err := subscribeMQTT(client, topic, func(payload []byte) {
			if err := dispatchPayload(hub, kind, payload); err != nil {
				logger.Warnf("bridge: %v", err)
			}
		})
		if err != nil {
			return err
		}
		logger.Infof("bridge: subscribed to %s", topic)
	}

	<-ctx.Done()
	logger.Info("bridge: shutting down")
	return nil
}
