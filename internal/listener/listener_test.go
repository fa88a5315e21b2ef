package listener

import (
	"math"
	"testing"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/relabs-tech/gyrocam/internal/orientation"
)

var (
	android = orientation.Platform{Name: "Linux armv8l", UserAgent: "Mozilla/5.0 (Linux; Android 14)"}
	iphone  = orientation.Platform{Name: "iPhone"}
)

// leakySource never forgets a registration, like a dispatcher that was
// asked to remove the wrong event name.
type leakySource struct {
	fns []func(orientation.RawSample)
}

func (s *leakySource) AddListener(_ orientation.EventKind, fn func(orientation.RawSample)) ListenerID {
	s.fns = append(s.fns, fn)
	return ListenerID(len(s.fns))
}

func (s *leakySource) RemoveListener(orientation.EventKind, ListenerID) {}

func (s *leakySource) deliver(sample orientation.RawSample) {
	for _, fn := range s.fns {
		fn(sample)
	}
}

func TestListenerPicksEventKind(t *testing.T) {
	hub := NewHub()
	l := New(hub, android, zaptest.NewLogger(t).Sugar())
	test.That(t, l.AppleMobile(), test.ShouldBeFalse)
	test.That(t, l.Kind(), test.ShouldEqual, orientation.EventAbsolute)

	sub := l.Subscribe(func(orientation.Angles) {})
	test.That(t, sub.Kind(), test.ShouldEqual, orientation.EventAbsolute)
	test.That(t, hub.Len(orientation.EventAbsolute), test.ShouldEqual, 1)
	test.That(t, hub.Len(orientation.EventRelative), test.ShouldEqual, 0)

	apple := New(hub, iphone, nil)
	test.That(t, apple.AppleMobile(), test.ShouldBeTrue)
	test.That(t, apple.Kind(), test.ShouldEqual, orientation.EventRelative)
}

func TestListenerDeliversResolvedAngles(t *testing.T) {
	hub := NewHub()
	l := New(hub, android, nil)

	var got []orientation.Angles
	l.Subscribe(func(a orientation.Angles) { got = append(got, a) })

	n := hub.Dispatch(orientation.EventAbsolute, orientation.RawSample{})
	test.That(t, n, test.ShouldEqual, 1)
	test.That(t, got, test.ShouldHaveLength, 1)
	test.That(t, got[0].Roll, test.ShouldAlmostEqual, -math.Pi/2)

	// other kinds are not delivered
	hub.Dispatch(orientation.EventRelative, orientation.RawSample{})
	test.That(t, got, test.ShouldHaveLength, 1)
}

func TestListenerAppliesCompassCorrectionOnApple(t *testing.T) {
	hub := NewHub()
	sample := orientation.RawSample{
		Alpha:          orientation.Float(90),
		Beta:           orientation.Float(60),
		CompassHeading: orientation.Float(30),
	}

	var apple, other orientation.Angles
	New(hub, iphone, nil).Subscribe(func(a orientation.Angles) { apple = a })
	New(hub, android, nil).Subscribe(func(a orientation.Angles) { other = a })
	hub.Dispatch(orientation.EventRelative, sample)
	hub.Dispatch(orientation.EventAbsolute, sample)

	want := orientation.Resolve(orientation.Normalize(orientation.RawSample{
		Alpha: orientation.Float(60),
		Beta:  orientation.Float(60),
	}, false))
	test.That(t, apple.Yaw, test.ShouldAlmostEqual, want.Yaw)
	test.That(t, math.Abs(other.Yaw-want.Yaw), test.ShouldBeGreaterThan, 0.1)
}

func TestUnsubscribeBeforeFirstSample(t *testing.T) {
	src := &leakySource{}
	l := New(src, android, nil)

	calls := 0
	sub := l.Subscribe(func(orientation.Angles) { calls++ })
	test.That(t, l.Unsubscribe(sub), test.ShouldBeTrue)
	test.That(t, sub.Active(), test.ShouldBeFalse)

	src.deliver(orientation.RawSample{Beta: orientation.Float(10)})
	test.That(t, calls, test.ShouldEqual, 0)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	l := New(hub, android, nil)

	test.That(t, l.Unsubscribe(nil), test.ShouldBeFalse)

	sub := l.Subscribe(func(orientation.Angles) {})
	test.That(t, l.Unsubscribe(sub), test.ShouldBeTrue)
	test.That(t, l.Unsubscribe(sub), test.ShouldBeFalse)
	test.That(t, hub.Len(orientation.EventAbsolute), test.ShouldEqual, 0)

	l.Close()
	l.Close()
}

func TestUnsubscribeStaleHandleKeepsActive(t *testing.T) {
	hub := NewHub()
	l := New(hub, android, nil)

	calls := 0
	first := l.Subscribe(func(orientation.Angles) {})
	second := l.Subscribe(func(orientation.Angles) { calls++ })
	test.That(t, first.Active(), test.ShouldBeFalse)

	test.That(t, l.Unsubscribe(first), test.ShouldBeFalse)
	test.That(t, second.Active(), test.ShouldBeTrue)

	hub.Dispatch(orientation.EventAbsolute, orientation.RawSample{})
	test.That(t, calls, test.ShouldEqual, 1)
}

func TestResubscribeDeliversOncePerSample(t *testing.T) {
	hub := NewHub()
	l := New(hub, android, nil)

	calls := 0
	cb := func(orientation.Angles) { calls++ }

	sub := l.Subscribe(cb)
	l.Unsubscribe(sub)
	l.Subscribe(cb)
	l.Subscribe(cb)

	test.That(t, hub.Len(orientation.EventAbsolute), test.ShouldEqual, 1)
	for i := 0; i < 3; i++ {
		hub.Dispatch(orientation.EventAbsolute, orientation.RawSample{Gamma: orientation.Float(float64(i))})
	}
	test.That(t, calls, test.ShouldEqual, 3)
}

func TestCallbackMayUnsubscribeDuringDispatch(t *testing.T) {
	hub := NewHub()
	l := New(hub, android, nil)

	calls := 0
	var sub *Subscription
	sub = l.Subscribe(func(orientation.Angles) {
		calls++
		l.Unsubscribe(sub)
	})

	hub.Dispatch(orientation.EventAbsolute, orientation.RawSample{})
	hub.Dispatch(orientation.EventAbsolute, orientation.RawSample{})
	test.That(t, calls, test.ShouldEqual, 1)
}
