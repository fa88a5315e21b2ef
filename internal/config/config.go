// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/a8m/envsubst"
	"go.uber.org/multierr"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDWeb     string
	MQTTClientIDBridge  string
	MQTTClientIDConsole string
	MQTTClientIDIMU     string
	MQTTClientIDHeading string
	MQTTClientIDDisplay string
	MQTTClientIDMock    string

	// Topics
	TopicSampleRelative string
	TopicSampleAbsolute string
	TopicAngles         string
	TopicHeading        string

	// Web Server
	WebServerPort int
	WebStaticDir  string

	// Camera animation
	AnimationDurationMS int

	// Device platform used by the bridge to pick the event kind and the
	// compass correction. Browser sessions report their own platform.
	DevicePlatform  string
	DeviceUserAgent string
	DeviceTouch     bool

	// IMU Hardware
	IMUSPIDevice      string
	IMUCSPin          string
	IMUSampleInterval int // milliseconds

	// Heading (NMEA over serial)
	HeadingSerialPort string
	HeadingBaudRate   int

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds

	LogLevel string
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config populated with the values used when a key is
// missing from the file.
func Defaults() *Config {
	return &Config{
		MQTTClientIDWeb:     "gyrocam-web",
		MQTTClientIDBridge:  "gyrocam-bridge",
		MQTTClientIDConsole: "gyrocam-console",
		MQTTClientIDIMU:     "gyrocam-imu-producer",
		MQTTClientIDHeading: "gyrocam-heading-producer",
		MQTTClientIDDisplay: "gyrocam-display",
		MQTTClientIDMock:    "gyrocam-mock-producer",

		TopicSampleRelative: "gyrocam/sample/deviceorientation",
		TopicSampleAbsolute: "gyrocam/sample/deviceorientationabsolute",
		TopicAngles:         "gyrocam/angles",
		TopicHeading:        "gyrocam/heading",

		WebServerPort: 8080,
		WebStaticDir:  "web",

		AnimationDurationMS: 250,

		IMUSampleInterval: 50,

		HeadingBaudRate: 9600,

		DisplayI2CBus:         "1",
		DisplayUpdateInterval: 200,

		LogLevel: "info",
	}
}

// Load reads the configuration file and returns a Config struct.
// ${VAR} references are expanded from the environment before parsing.
func Load(configPath string) (*Config, error) {
	buf, err := envsubst.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(bytes.NewReader(buf))
}

// Parse reads KEY=VALUE lines from r on top of Defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_IMU":
		c.MQTTClientIDIMU = value
	case "MQTT_CLIENT_ID_HEADING":
		c.MQTTClientIDHeading = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_MOCK":
		c.MQTTClientIDMock = value

	// Topics
	case "TOPIC_SAMPLE_RELATIVE":
		c.TopicSampleRelative = value
	case "TOPIC_SAMPLE_ABSOLUTE":
		c.TopicSampleAbsolute = value
	case "TOPIC_ANGLES":
		c.TopicAngles = value
	case "TOPIC_HEADING":
		c.TopicHeading = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Camera animation
	case "ANIMATION_DURATION_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ANIMATION_DURATION_MS %q: %w", value, err)
		}
		if ms < 0 {
			return fmt.Errorf("ANIMATION_DURATION_MS must not be negative, got %d", ms)
		}
		c.AnimationDurationMS = ms

	// Device platform
	case "DEVICE_PLATFORM":
		c.DevicePlatform = value
	case "DEVICE_USER_AGENT":
		c.DeviceUserAgent = value
	case "DEVICE_TOUCH":
		touch, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DEVICE_TOUCH %q: %w", value, err)
		}
		c.DeviceTouch = touch

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.IMUSampleInterval = interval

	// Heading
	case "HEADING_SERIAL_PORT":
		c.HeadingSerialPort = value
	case "HEADING_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HEADING_BAUD_RATE %q: %w", value, err)
		}
		c.HeadingBaudRate = rate

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set. Every problem is
// reported, not only the first one.
func (c *Config) validate() error {
	var err error
	if c.MQTTBroker == "" {
		err = multierr.Append(err, errors.New("MQTT_BROKER is required"))
	}
	if c.TopicAngles == "" {
		err = multierr.Append(err, errors.New("TOPIC_ANGLES is required"))
	}
	if c.TopicSampleRelative == "" || c.TopicSampleAbsolute == "" {
		err = multierr.Append(err, errors.New("TOPIC_SAMPLE_RELATIVE and TOPIC_SAMPLE_ABSOLUTE are required"))
	}
	if c.TopicSampleRelative != "" && c.TopicSampleRelative == c.TopicSampleAbsolute {
		err = multierr.Append(err, errors.New("TOPIC_SAMPLE_RELATIVE and TOPIC_SAMPLE_ABSOLUTE must differ"))
	}
	if c.IMUSampleInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("IMU_SAMPLE_INTERVAL must be positive, got %d", c.IMUSampleInterval))
	}
	if c.DisplayUpdateInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval))
	}
	return err
}

// AnimationDuration is ANIMATION_DURATION_MS as a time.Duration.
func (c *Config) AnimationDuration() time.Duration {
	return time.Duration(c.AnimationDurationMS) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return the first call's error.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
