// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/golang/geo/s1"
)

// ScreenOrient is the screen rotation offset in radians. No screen
// orientation input is wired, so it is always zero.
const ScreenOrient = 0.0

// RawSample is one device orientation reading in degrees. A nil field means
// the sensor did not report that component.
type RawSample struct {
	Alpha          *float64 `json:"alpha"`
	Beta           *float64 `json:"beta"`
	Gamma          *float64 `json:"gamma"`
	CompassHeading *float64 `json:"webkitCompassHeading,omitempty"`
}

// NormalizedAngles are the sample angles in radians, ready for the resolver.
type NormalizedAngles struct {
	Alpha  float64
	Beta   float64
	Gamma  float64
	Orient float64
}

// Float returns a pointer to v, for building RawSample literals.
func Float(v float64) *float64 {
	return &v
}

// Normalize converts a raw sample to radians. Missing components become 0.
// On Apple mobile devices alpha is made compass-relative by subtracting the
// reported compass heading when both are available.
func Normalize(s RawSample, appleMobile bool) NormalizedAngles {
	n := NormalizedAngles{Orient: ScreenOrient}

	if alpha, ok := reported(s.Alpha); ok {
		if heading, hok := reported(s.CompassHeading); appleMobile && hok {
			alpha -= heading
		}
		n.Alpha = radians(alpha)
	}
	if beta, ok := reported(s.Beta); ok {
		n.Beta = radians(beta)
	}
	if gamma, ok := reported(s.Gamma); ok {
		n.Gamma = radians(gamma)
	}
	return n
}

// reported treats nil, NaN and an exact zero as "no reading". Browsers send
// zero for sensors they do not have, and a true zero contributes nothing
// anyway.
func reported(v *float64) (float64, bool) {
	if v == nil || *v == 0 || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}

func radians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}
