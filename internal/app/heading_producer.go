// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"github.com/relabs-tech/gyrocam/internal/config"
	"github.com/relabs-tech/gyrocam/internal/heading"
)

// RunHeadingProducer reads NMEA sentences from the serial port and
// publishes every heading they carry.
func RunHeadingProducer(ctx context.Context, logger *zap.SugaredLogger) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDHeading)
	if err != nil {
		return err
	}
	defer client.Disconnect(disconnectQuiesce)
	logger.Infof("heading: connected to MQTT broker at %s", cfg.MQTTBroker)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.HeadingSerialPort,
		BaudRate:              uint(cfg.HeadingBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", serialOpts.PortName, err)
	}
	logger.Infof("heading: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	// Closing the port unblocks the reader on shutdown.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	err = publishHeadings(port, &mqttPublisher{client: client, retained: true}, cfg.TopicHeading, logger)
	if ctx.Err() != nil {
		logger.Info("heading: shutting down")
		return nil
	}
	return err
}

// publishHeadings forwards every heading found in r until r fails.
func publishHeadings(r io.Reader, pub Publisher, topic string, logger *zap.SugaredLogger) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if h, ok := heading.Parse(line); ok {
			if err := publishJSON(pub, topic, h); err != nil {
				logger.Warnf("heading: %v", err)
			} else {
				logger.Debugf("heading: %.1f° (%s)", h.Degrees, h.Source)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("serial read: %w", err)
		}
	}
}
