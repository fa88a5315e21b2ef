// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

type mockSource struct {
	clock clock.Clock
	start time.Time
}

// NewMockSource creates a mock orientation source that
// generates smooth changing samples.
func NewMockSource() Source {
	return NewMockSourceWithClock(clock.New())
}

// NewMockSourceWithClock is NewMockSource driven by the given clock.
func NewMockSourceWithClock(c clock.Clock) Source {
	return &mockSource{clock: c, start: c.Now()}
}

func (m *mockSource) Next() (RawSample, error) {
	elapsed := m.clock.Since(m.start).Seconds()

	return RawSample{
		Alpha: Float(math.Mod(elapsed*30, 360)),
		Beta:  Float(60 + 15*math.Cos(elapsed*0.7)),
		Gamma: Float(20 * math.Sin(elapsed)),
	}, nil
}
