// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/gyrocam/internal/camera"
	"github.com/relabs-tech/gyrocam/internal/config"
	"github.com/relabs-tech/gyrocam/internal/orientation"
)

// WebServer accepts browser orientation sessions, keeps the latest angles
// and camera rig, and forwards every result to MQTT.
type WebServer struct {
	cfg      *config.Config
	pub      Publisher
	controls *camera.Controls
	logger   *zap.SugaredLogger

	mu         sync.RWMutex
	lastAngles orientation.Angles
	haveAngles bool
}

// NewWebServer builds the HTTP side of the web tool.
func NewWebServer(cfg *config.Config, pub Publisher, controls *camera.Controls, logger *zap.SugaredLogger) *WebServer {
	return &WebServer{cfg: cfg, pub: pub, controls: controls, logger: logger}
}

// Handler returns the routes: /ws, /api/orientation, /api/camera and the
// static files.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/orientation", s.handleOrientation)
	mux.HandleFunc("/api/camera", s.handleCamera)
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.WebStaticDir)))
	return mux
}

// onAngles is the consumer callback shared by every session.
func (s *WebServer) onAngles(a orientation.Angles) {
	s.mu.Lock()
	s.lastAngles = a
	s.haveAngles = true
	s.mu.Unlock()

	s.controls.Apply(a)

	if err := publishJSON(s.pub, s.cfg.TopicAngles, a); err != nil {
		s.logger.Warnf("%v", err)
	}
}

func (s *WebServer) handleOrientation(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	a, ok := s.lastAngles, s.haveAngles
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, a, s.logger)
}

func (s *WebServer) handleCamera(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.controls.Rotation(), s.logger)
}

func writeJSON(w http.ResponseWriter, v any, logger *zap.SugaredLogger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("json encode error: %v", err)
	}
}

// RunWeb serves browser sessions until ctx is cancelled.
func RunWeb(ctx context.Context, logger *zap.SugaredLogger) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(disconnectQuiesce)
	logger.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	controls := camera.NewControls(camera.NewAnimator(clock.New()), cfg.AnimationDuration())
	srv := NewWebServer(cfg, &mqttPublisher{client: client, retained: true}, controls, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownDone <- httpServer.Shutdown(shutdownCtx)
	}()

	logger.Infof("web server listening on %s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownDone
}
