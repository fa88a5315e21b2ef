// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package camera moves a camera rig toward the angles resolved from device
// orientation samples.
package camera

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type tween struct {
	from, to float64
	start    time.Time
	duration time.Duration
}

// Animator interpolates named channels toward their latest target.
// Values are computed on read from the clock; nothing runs in the background.
type Animator struct {
	clock clock.Clock

	mu     sync.Mutex
	tweens map[string]tween
}

// NewAnimator returns an animator reading time from c.
func NewAnimator(c clock.Clock) *Animator {
	return &Animator{clock: c, tweens: make(map[string]tween)}
}

// To starts moving channel from its current value to target over d.
// A tween still in progress is replaced, starting where it currently is.
func (a *Animator) To(channel string, target float64, d time.Duration) {
	now := a.clock.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tweens[channel] = tween{
		from:     a.valueLocked(channel, now),
		to:       target,
		start:    now,
		duration: d,
	}
}

// Value returns the current value of channel; unknown channels are 0.
func (a *Animator) Value(channel string) float64 {
	now := a.clock.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.valueLocked(channel, now)
}

// Settled reports whether channel has reached its target.
func (a *Animator) Settled(channel string) bool {
	now := a.clock.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	tw, ok := a.tweens[channel]
	return !ok || now.Sub(tw.start) >= tw.duration
}

func (a *Animator) valueLocked(channel string, now time.Time) float64 {
	tw, ok := a.tweens[channel]
	if !ok {
		return 0
	}
	elapsed := now.Sub(tw.start)
	if tw.duration <= 0 || elapsed >= tw.duration {
		return tw.to
	}
	p := float64(elapsed) / float64(tw.duration)
	return tw.from + (tw.to-tw.from)*easeOut(p)
}

// easeOut is a quadratic ease-out: fast start, gentle arrival.
func easeOut(p float64) float64 {
	return 1 - (1-p)*(1-p)
}
