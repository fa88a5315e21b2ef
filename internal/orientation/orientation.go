// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Angles is the camera-ready rotation produced for every processed sample.
// Field order (pitch, roll, yaw) is the delivery convention consumers rely on.
type Angles struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
}

// Degrees returns the same rotation expressed in degrees, for display.
func (a Angles) Degrees() Angles {
	return Angles{
		Pitch: a.Pitch * 180.0 / math.Pi,
		Roll:  a.Roll * 180.0 / math.Pi,
		Yaw:   a.Yaw * 180.0 / math.Pi,
	}
}

// Source is anything that can provide raw samples over time: the mock
// source, an IMU, or a replay.
type Source interface {
	Next() (RawSample, error)
}

// TiltFromAccel computes beta (front-back tilt) and gamma (left-right tilt)
// in degrees from a gravity vector (accelerometer data in any unit).
// Alpha and the compass heading are left unset; an accelerometer alone
// cannot observe heading.
//
// Uses simple tilt formulas:
//
//	beta  = atan2(ay, az)
//	gamma = atan2(-ax, sqrt(ay² + az²))
func TiltFromAccel(ax, ay, az float64) RawSample {
	betaRad := math.Atan2(ay, az)
	gammaRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return RawSample{
		Beta:  Float(betaRad * 180.0 / math.Pi),
		Gamma: Float(gammaRad * 180.0 / math.Pi),
	}
}

// AlphaFromHeading converts a clockwise compass heading into the
// counter-clockwise alpha angle used by absolute orientation events.
func AlphaFromHeading(headingDeg float64) float64 {
	alpha := math.Mod(360-headingDeg, 360)
	if alpha < 0 {
		alpha += 360
	}
	return alpha
}
