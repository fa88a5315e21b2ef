// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// PoleThreshold bounds x·y + z·w before a sample is treated as sitting on a
// pole. It stays below the exact 0.5 so rounding right at the pole cannot
// push asin out of its domain.
const PoleThreshold = 0.499

var (
	// -90° about X: the camera looks out of the back of the device, not
	// out of its top edge.
	basisCorrection = quat.Number{Real: math.Sqrt(0.5), Imag: -math.Sqrt(0.5)}
	screenAxis      = r3.Vector{X: 0, Y: 0, Z: 1}

	xAxis = r3.Vector{X: 1}
	yAxis = r3.Vector{Y: 1}
	zAxis = r3.Vector{Z: 1}
)

// BasisCorrection returns the device-to-camera basis change quaternion.
func BasisCorrection() quat.Number {
	return basisCorrection
}

// ScreenAxis returns the axis the screen orientation compensation turns about.
func ScreenAxis() r3.Vector {
	return screenAxis
}

// AxisAngle returns the unit quaternion rotating by angle radians about axis.
func AxisAngle(axis r3.Vector, angle float64) quat.Number {
	axis = axis.Normalize()
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// BuildQuaternion turns normalized device angles into the camera rotation.
//
// The device reports angles in Z-X-Y order; the camera frame wants Y-X-Z, so
// the Euler rotation is built intrinsically as Y(alpha)·X(beta)·Z(-gamma).
// It is then right-multiplied by the basis correction and by the screen
// compensation about the Z axis. Operand order matters.
func BuildQuaternion(alpha, beta, gamma, orient float64) quat.Number {
	q := eulerYXZ(beta, alpha, -gamma)
	q = unit(quat.Mul(q, basisCorrection))
	q = unit(quat.Mul(q, AxisAngle(screenAxis, -orient)))
	return q
}

// eulerYXZ composes the intrinsic rotation with the given per-axis angles,
// applying Y first, then X, then Z.
func eulerYXZ(x, y, z float64) quat.Number {
	q := quat.Mul(AxisAngle(yAxis, y), AxisAngle(xAxis, x))
	return unit(quat.Mul(q, AxisAngle(zAxis, z)))
}

func unit(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// Decompose converts a unit quaternion into pitch, roll and yaw. Roll and
// yaw are in (-π, π].
//
// test = x·y + z·w is half the sine of pitch. Past ±PoleThreshold roll is
// indeterminate, so it is pinned to 0 and pitch to ±π/2.
func Decompose(q quat.Number) Angles {
	x, y, z, w := q.Imag, q.Jmag, q.Kmag, q.Real
	test := x*y + z*w

	// singularity at north pole
	if test > PoleThreshold {
		return Angles{
			Pitch: math.Pi / 2,
			Roll:  0,
			Yaw:   wrapAngle(2 * math.Atan2(x, w)),
		}
	}

	// singularity at south pole
	if test < -PoleThreshold {
		return Angles{
			Pitch: -math.Pi / 2,
			Roll:  0,
			Yaw:   wrapAngle(-2 * math.Atan2(x, w)),
		}
	}

	sqx := x * x
	sqy := y * y
	sqz := z * z
	return Angles{
		Pitch: math.Asin(2 * test),
		Roll:  wrapAngle(math.Atan2(2*x*w-2*y*z, 1-2*sqx-2*sqz)),
		Yaw:   wrapAngle(math.Atan2(2*y*w-2*x*z, 1-2*sqy-2*sqz)),
	}
}

// wrapAngle maps a to (-π, π]. The pole formulas double atan2 and reach ±2π.
func wrapAngle(a float64) float64 {
	r := math.Remainder(a, 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return r
}

// Resolve runs the full conversion for one normalized sample.
func Resolve(n NormalizedAngles) Angles {
	return Decompose(BuildQuaternion(n.Alpha, n.Beta, n.Gamma, n.Orient))
}
