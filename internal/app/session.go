// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gyrocam/internal/listener"
	"github.com/relabs-tech/gyrocam/internal/orientation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // phones connect from whatever origin serves the page
	},
}

// WSMessage is what the browser sends.
type WSMessage struct {
	Type string `json:"type"` // hello, permission, sample, subscribe, unsubscribe

	// hello
	orientation.Platform

	// sample
	Event orientation.EventKind `json:"event,omitempty"`
	orientation.RawSample

	// permission
	State listener.Permission `json:"state,omitempty"`
}

// WSResponse is what the server sends back.
type WSResponse struct {
	Type        string                `json:"type"` // ready, permission_request, permission, angles, unsubscribed, error
	Event       orientation.EventKind `json:"event,omitempty"`
	AppleMobile bool                  `json:"appleMobile,omitempty"`
	State       listener.Permission   `json:"state,omitempty"`
	Message     string                `json:"message,omitempty"`
	*orientation.Angles
}

// OrientationSession is one browser connection.
type OrientationSession struct {
	server *WebServer
	conn   *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	hub      *listener.Hub
	listener *listener.Listener
	prompt   *listener.Prompt
	sub      *listener.Subscription
	granted  bool
}

func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("session: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := &OrientationSession{server: s, conn: conn}
	defer session.close()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warnf("session: websocket read error: %v", err)
			}
			return
		}
		session.handle(ctx, msg)
	}
}

func (o *OrientationSession) handle(ctx context.Context, msg WSMessage) {
	switch msg.Type {
	case "hello":
		o.hello(ctx, msg.Platform)
	case "permission":
		o.mu.Lock()
		prompt := o.prompt
		o.mu.Unlock()
		if prompt == nil {
			o.sendError("no permission request pending")
			return
		}
		prompt.Answer(msg.State)
	case "sample":
		o.sample(msg)
	case "subscribe":
		o.subscribe()
	case "unsubscribe":
		o.mu.Lock()
		if o.listener != nil {
			o.listener.Unsubscribe(o.sub)
		}
		o.sub = nil
		o.mu.Unlock()
		o.send(WSResponse{Type: "unsubscribed"})
	default:
		o.sendError("unknown message type " + msg.Type)
	}
}

// hello decides the platform once for the whole session and runs the
// permission gate before the first subscription.
func (o *OrientationSession) hello(ctx context.Context, platform orientation.Platform) {
	o.mu.Lock()
	if o.listener != nil {
		o.mu.Unlock()
		o.sendError("session already initialized")
		return
	}
	o.hub = listener.NewHub()
	o.listener = listener.New(o.hub, platform, o.server.logger)
	apple := o.listener.AppleMobile()
	if apple {
		o.prompt = listener.NewPrompt(func() error {
			return o.send(WSResponse{Type: "permission_request"})
		})
	}
	gate := listener.GateFor(apple, o.prompt)
	o.mu.Unlock()

	o.server.logger.Infof("session: platform=%q appleMobile=%t event=%s", platform.Name, apple, o.listener.Kind())

	// The answer arrives through the read loop, so wait elsewhere.
	go func() {
		p, err := gate.Request(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				o.sendError(err.Error())
			}
			return
		}
		if p != listener.Granted {
			o.server.logger.Infof("session: sensor permission %s", p)
			o.send(WSResponse{Type: "permission", State: p})
			return
		}
		o.mu.Lock()
		o.granted = true
		o.mu.Unlock()
		o.subscribe()
	}()
}

func (o *OrientationSession) subscribe() {
	o.mu.Lock()
	if o.listener == nil {
		o.mu.Unlock()
		o.sendError("send hello first")
		return
	}
	if !o.granted {
		o.mu.Unlock()
		o.sendError("sensor permission not granted")
		return
	}
	o.sub = o.listener.Subscribe(o.deliver)
	kind, apple := o.listener.Kind(), o.listener.AppleMobile()
	o.mu.Unlock()

	o.send(WSResponse{Type: "ready", Event: kind, AppleMobile: apple})
}

func (o *OrientationSession) sample(msg WSMessage) {
	o.mu.Lock()
	hub, lst := o.hub, o.listener
	o.mu.Unlock()
	if hub == nil {
		o.sendError("send hello first")
		return
	}

	kind := msg.Event
	if kind == "" {
		kind = lst.Kind()
	}
	hub.Dispatch(kind, msg.RawSample)
}

// deliver is the consumer callback of this session.
func (o *OrientationSession) deliver(a orientation.Angles) {
	o.server.onAngles(a)
	o.send(WSResponse{Type: "angles", Angles: &a})
}

func (o *OrientationSession) send(resp WSResponse) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()
	if err := o.conn.WriteJSON(resp); err != nil {
		o.server.logger.Debugf("session: websocket write error: %v", err)
		return err
	}
	return nil
}

func (o *OrientationSession) sendError(message string) {
	o.send(WSResponse{Type: "error", Message: message})
}

func (o *OrientationSession) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.listener != nil {
		o.listener.Close()
	}
}
