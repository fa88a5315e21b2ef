// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gyrocam/internal/orientation"
)

// AccelReader reads one raw acceleration vector.
type AccelReader interface {
	ReadAccel() (ax, ay, az int16, err error)
}

type mpuReader struct {
	imu *mpu9250.MPU9250
}

func (r *mpuReader) ReadAccel() (int16, int16, int16, error) {
	ax, err := r.imu.GetAccelerationX()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("accel X: %w", err)
	}
	ay, err := r.imu.GetAccelerationY()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("accel Y: %w", err)
	}
	az, err := r.imu.GetAccelerationZ()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("accel Z: %w", err)
	}
	return ax, ay, az, nil
}

// IMUSource turns accelerometer readings into tilt samples. Alpha and the
// compass heading stay unset; callers fill them from a heading source.
type IMUSource struct {
	reader AccelReader
}

// NewIMUSource initializes an MPU9250 over SPI with CS on csPin.
func NewIMUSource(spiDev, csPin string, logger *zap.SugaredLogger) (*IMUSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", spiDev, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	// The device must be still during calibration; a failure only costs
	// accuracy, so keep going.
	if err := imu.Calibrate(); err != nil {
		logger.Warnf("IMU calibration failed: %v", err)
	} else {
		logger.Infof("IMU calibration complete (%s, CS %s)", spiDev, csPin)
	}

	return NewIMUSourceFromReader(&mpuReader{imu: imu}), nil
}

// NewIMUSourceFromReader wraps an already initialized reader.
func NewIMUSourceFromReader(r AccelReader) *IMUSource {
	return &IMUSource{reader: r}
}

// Next reads the accelerometer and returns a tilt-only sample.
func (s *IMUSource) Next() (orientation.RawSample, error) {
	ax, ay, az, err := s.reader.ReadAccel()
	if err != nil {
		return orientation.RawSample{}, fmt.Errorf("IMU: %w", err)
	}
	return orientation.TiltFromAccel(float64(ax), float64(ay), float64(az)), nil
}
