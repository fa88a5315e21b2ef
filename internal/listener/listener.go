// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package listener subscribes to device orientation samples and delivers
// resolved camera angles to a single callback.
package listener

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/relabs-tech/gyrocam/internal/orientation"
)

// Callback receives the angles of every processed sample.
type Callback func(orientation.Angles)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id      ListenerID
	kind    orientation.EventKind
	removed atomic.Bool
}

// Kind is the event kind the subscription listens to.
func (s *Subscription) Kind() orientation.EventKind {
	return s.kind
}

// Active reports whether the subscription still receives samples.
func (s *Subscription) Active() bool {
	return !s.removed.Load()
}

// Listener owns at most one active subscription on an EventSource.
// The platform flag and event kind are decided once, at construction.
type Listener struct {
	src         EventSource
	appleMobile bool
	kind        orientation.EventKind
	logger      *zap.SugaredLogger

	mu     sync.Mutex
	active *Subscription
}

// New returns a listener for samples coming from the given platform.
func New(src EventSource, platform orientation.Platform, logger *zap.SugaredLogger) *Listener {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	apple := platform.IsAppleMobile()
	return &Listener{
		src:         src,
		appleMobile: apple,
		kind:        orientation.EventKindFor(apple),
		logger:      logger,
	}
}

// AppleMobile is the platform flag computed at construction.
func (l *Listener) AppleMobile() bool {
	return l.appleMobile
}

// Kind is the event kind this listener subscribes to.
func (l *Listener) Kind() orientation.EventKind {
	return l.kind
}

// Subscribe registers cb, replacing any previous subscription.
func (l *Listener) Subscribe(cb Callback) *Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active != nil {
		l.removeLocked()
	}

	sub := &Subscription{kind: l.kind}
	sub.id = l.src.AddListener(l.kind, func(s orientation.RawSample) {
		// the source may still hold a registration we already removed
		if sub.removed.Load() {
			return
		}
		cb(orientation.Resolve(orientation.Normalize(s, l.appleMobile)))
	})
	l.active = sub
	l.logger.Debugw("subscribed", "event", l.kind, "appleMobile", l.appleMobile)
	return sub
}

// Unsubscribe removes sub if it is the active subscription and reports
// whether anything was removed. Stale or nil handles are ignored.
func (l *Listener) Unsubscribe(sub *Subscription) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sub == nil || sub != l.active {
		return false
	}
	l.removeLocked()
	return true
}

// Close removes the active subscription, if any.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active != nil {
		l.removeLocked()
	}
}

func (l *Listener) removeLocked() {
	sub := l.active
	sub.removed.Store(true)
	l.src.RemoveListener(sub.kind, sub.id)
	l.active = nil
	l.logger.Debugw("unsubscribed", "event", sub.kind)
}
