package app

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/relabs-tech/gyrocam/internal/camera"
	"github.com/relabs-tech/gyrocam/internal/config"
	"github.com/relabs-tech/gyrocam/internal/listener"
	"github.com/relabs-tech/gyrocam/internal/orientation"
)

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.topics)
}

func newTestServer(t *testing.T) (*WebServer, *fakePublisher, *httptest.Server) {
	t.Helper()
	cfg := config.Defaults()
	cfg.MQTTBroker = "tcp://unused:1883"
	cfg.WebStaticDir = t.TempDir()

	pub := &fakePublisher{}
	controls := camera.NewControls(camera.NewAnimator(clock.NewMock()), 0)
	srv := NewWebServer(cfg, pub, controls, zap.NewNop().Sugar())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, pub, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	test.That(t, conn.WriteJSON(v), test.ShouldBeNil)
}

func expect(t *testing.T, conn *websocket.Conn, typ string) WSResponse {
	t.Helper()
	test.That(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	var resp WSResponse
	test.That(t, conn.ReadJSON(&resp), test.ShouldBeNil)
	test.That(t, resp.Type, test.ShouldEqual, typ)
	return resp
}

func TestWebSessionAndroid(t *testing.T) {
	_, pub, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, map[string]any{"type": "hello", "platform": "Linux armv8l", "userAgent": "Mozilla/5.0 (Linux; Android 14)", "touch": true})
	ready := expect(t, conn, "ready")
	test.That(t, ready.Event, test.ShouldEqual, orientation.EventAbsolute)
	test.That(t, ready.AppleMobile, test.ShouldBeFalse)

	// Nothing reported: the camera looks straight down.
	send(t, conn, map[string]any{"type": "sample", "event": "deviceorientationabsolute", "alpha": nil, "beta": nil, "gamma": nil})
	angles := expect(t, conn, "angles")
	test.That(t, angles.Angles, test.ShouldNotBeNil)
	test.That(t, angles.Pitch, test.ShouldAlmostEqual, 0.0)
	test.That(t, angles.Roll, test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, angles.Yaw, test.ShouldAlmostEqual, 0.0)

	test.That(t, pub.count(), test.ShouldEqual, 1)
	test.That(t, pub.topics[0], test.ShouldEqual, "gyrocam/angles")
	var published orientation.Angles
	test.That(t, json.Unmarshal(pub.payloads[0], &published), test.ShouldBeNil)
	test.That(t, published.Roll, test.ShouldAlmostEqual, -math.Pi/2)

	resp, err := http.Get(ts.URL + "/api/orientation")
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)
	var latest orientation.Angles
	test.That(t, json.NewDecoder(resp.Body).Decode(&latest), test.ShouldBeNil)
	test.That(t, latest.Roll, test.ShouldAlmostEqual, -math.Pi/2)

	camResp, err := http.Get(ts.URL + "/api/camera")
	test.That(t, err, test.ShouldBeNil)
	defer camResp.Body.Close()
	test.That(t, camResp.StatusCode, test.ShouldEqual, http.StatusOK)
}

func TestWebSessionIgnoresOtherEventKind(t *testing.T) {
	_, pub, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, map[string]any{"type": "hello", "platform": "Win32"})
	expect(t, conn, "ready")

	send(t, conn, map[string]any{"type": "sample", "event": "deviceorientation", "beta": 10})
	send(t, conn, map[string]any{"type": "ping"})
	expect(t, conn, "error")
	test.That(t, pub.count(), test.ShouldEqual, 0)
}

func TestWebSessionIPhonePermission(t *testing.T) {
	_, _, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, map[string]any{"type": "hello", "platform": "iPhone", "touch": true})
	expect(t, conn, "permission_request")

	send(t, conn, map[string]any{"type": "permission", "state": "granted"})
	ready := expect(t, conn, "ready")
	test.That(t, ready.Event, test.ShouldEqual, orientation.EventRelative)
	test.That(t, ready.AppleMobile, test.ShouldBeTrue)

	// Compass correction: 90 - 30 leaves 60 degrees of yaw.
	send(t, conn, map[string]any{"type": "sample", "alpha": 90, "webkitCompassHeading": 30})
	angles := expect(t, conn, "angles")
	test.That(t, angles.Yaw, test.ShouldAlmostEqual, 60*math.Pi/180)
}

func TestWebSessionPermissionDenied(t *testing.T) {
	_, pub, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, map[string]any{"type": "hello", "platform": "iPad"})
	expect(t, conn, "permission_request")
	send(t, conn, map[string]any{"type": "permission", "state": "denied"})
	resp := expect(t, conn, "permission")
	test.That(t, resp.State, test.ShouldEqual, listener.Denied)

	send(t, conn, map[string]any{"type": "subscribe"})
	errResp := expect(t, conn, "error")
	test.That(t, errResp.Message, test.ShouldContainSubstring, "not granted")

	send(t, conn, map[string]any{"type": "sample", "alpha": 10})
	send(t, conn, map[string]any{"type": "ping"})
	expect(t, conn, "error")
	test.That(t, pub.count(), test.ShouldEqual, 0)
}

func TestWebSessionUnsubscribeAndResubscribe(t *testing.T) {
	_, pub, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, map[string]any{"type": "hello", "platform": "Linux x86_64"})
	expect(t, conn, "ready")

	send(t, conn, map[string]any{"type": "unsubscribe"})
	expect(t, conn, "unsubscribed")
	send(t, conn, map[string]any{"type": "unsubscribe"})
	expect(t, conn, "unsubscribed")

	// No angles come back for the sample, so the next message is the error.
	send(t, conn, map[string]any{"type": "sample", "beta": 45})
	send(t, conn, map[string]any{"type": "ping"})
	errResp := expect(t, conn, "error")
	test.That(t, errResp.Message, test.ShouldContainSubstring, "ping")
	test.That(t, pub.count(), test.ShouldEqual, 0)

	send(t, conn, map[string]any{"type": "subscribe"})
	expect(t, conn, "ready")
	send(t, conn, map[string]any{"type": "subscribe"})
	expect(t, conn, "ready")

	// Re-subscribing replaces the old registration: one sample, one result.
	send(t, conn, map[string]any{"type": "sample", "beta": 45})
	expect(t, conn, "angles")
	send(t, conn, map[string]any{"type": "ping"})
	expect(t, conn, "error")
	test.That(t, pub.count(), test.ShouldEqual, 1)
}

func TestWebSessionRequiresHello(t *testing.T) {
	_, _, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, map[string]any{"type": "sample", "alpha": 1})
	resp := expect(t, conn, "error")
	test.That(t, resp.Message, test.ShouldContainSubstring, "hello")

	send(t, conn, map[string]any{"type": "hello", "platform": "Win32"})
	expect(t, conn, "ready")
	send(t, conn, map[string]any{"type": "hello", "platform": "Win32"})
	resp = expect(t, conn, "error")
	test.That(t, resp.Message, test.ShouldContainSubstring, "already")
}

func TestOrientationUnavailableBeforeFirstSample(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/orientation")
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusServiceUnavailable)
}
