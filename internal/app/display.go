// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gyrocam/internal/config"
	"github.com/relabs-tech/gyrocam/internal/orientation"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// renderAngles draws the camera angles in degrees, or a waiting message
// when none have arrived yet.
func renderAngles(a *orientation.Angles) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if a == nil {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("gyrocam")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting data...")
		return img
	}

	d := a.Degrees()
	drawer.Dot = fixed.P(0, 13)
	drawer.DrawString("Camera angles")
	drawer.Dot = fixed.P(0, 26)
	drawer.DrawString(fmt.Sprintf("P: %7.1f", d.Pitch))
	drawer.Dot = fixed.P(0, 39)
	drawer.DrawString(fmt.Sprintf("R: %7.1f", d.Roll))
	drawer.Dot = fixed.P(0, 52)
	drawer.DrawString(fmt.Sprintf("Y: %7.1f", d.Yaw))
	return img
}

// RunDisplay shows the latest angles from the broker on an SSD1306 OLED.
func RunDisplay(ctx context.Context, logger *zap.SugaredLogger) error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", cfg.DisplayI2CBus, err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	logger.Infof("display: SSD1306 initialized on I2C bus %q", cfg.DisplayI2CBus)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(disconnectQuiesce)
	logger.Infof("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	var (
		mu     sync.RWMutex
		latest *orientation.Angles
	)
	err = subscribeMQTT(client, cfg.TopicAngles, func(payload []byte) {
		var a orientation.Angles
		if err := json.Unmarshal(payload, &a); err != nil {
			logger.Warnf("display: angles unmarshal error: %v", err)
			return
		}
		mu.Lock()
		latest = &a
		mu.Unlock()
	})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	logger.Info("display: starting update loop")
	for {
		select {
		case <-ctx.Done():
			logger.Info("display: shutting down")
			return nil
		case <-ticker.C:
		}

		mu.RLock()
		snapshot := latest
		mu.RUnlock()

		if err := dev.Draw(dev.Bounds(), renderAngles(snapshot), image.Point{}); err != nil {
			logger.Warnf("display: draw error: %v", err)
		}
	}
}
