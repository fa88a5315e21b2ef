// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package listener

import (
	"sync"

	"github.com/relabs-tech/gyrocam/internal/orientation"
)

// ListenerID identifies one registration on an EventSource.
type ListenerID uint64

// EventSource delivers raw samples of a given event kind to registered
// functions. Removing an unknown ID is a no-op.
type EventSource interface {
	AddListener(kind orientation.EventKind, fn func(orientation.RawSample)) ListenerID
	RemoveListener(kind orientation.EventKind, id ListenerID)
}

type hubEntry struct {
	id ListenerID
	fn func(orientation.RawSample)
}

// Hub is an in-process EventSource. Whoever receives samples (a websocket
// session, an MQTT subscription) calls Dispatch.
type Hub struct {
	mu        sync.Mutex
	nextID    ListenerID
	listeners map[orientation.EventKind][]hubEntry
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{listeners: make(map[orientation.EventKind][]hubEntry)}
}

// AddListener registers fn for kind.
func (h *Hub) AddListener(kind orientation.EventKind, fn func(orientation.RawSample)) ListenerID {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.listeners[kind] = append(h.listeners[kind], hubEntry{id: h.nextID, fn: fn})
	return h.nextID
}

// RemoveListener unregisters id from kind.
func (h *Hub) RemoveListener(kind orientation.EventKind, id ListenerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.listeners[kind]
	for i, e := range entries {
		if e.id == id {
			h.listeners[kind] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// Dispatch delivers s to every listener of kind, in registration order, on
// the caller's goroutine. It returns how many listeners were called.
// Listeners may add or remove registrations while being called.
func (h *Hub) Dispatch(kind orientation.EventKind, s orientation.RawSample) int {
	h.mu.Lock()
	entries := append([]hubEntry(nil), h.listeners[kind]...)
	h.mu.Unlock()

	for _, e := range entries {
		e.fn(s)
	}
	return len(entries)
}

// Len returns the number of listeners registered for kind.
func (h *Hub) Len(kind orientation.EventKind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[kind])
}
