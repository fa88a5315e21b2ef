package app

import (
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"
)

type pendingToken struct {
	done chan struct{}
	err  error
}

func (tk *pendingToken) Wait() bool {
	<-tk.done
	return true
}

func (tk *pendingToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-tk.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (tk *pendingToken) Done() <-chan struct{} { return tk.done }

func (tk *pendingToken) Error() error { return tk.err }

// publishClient hands out one token per publish and completes none.
type publishClient struct {
	mqtt.Client
	tokens chan *pendingToken
}

func (c *publishClient) Publish(string, byte, bool, interface{}) mqtt.Token {
	tk := &pendingToken{done: make(chan struct{})}
	c.tokens <- tk
	return tk
}

func TestAsyncPublishDoesNotWait(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	client := &publishClient{tokens: make(chan *pendingToken, 1)}
	pub := &mqttPublisher{client: client, async: true, logger: zap.New(core).Sugar()}

	returned := make(chan error, 1)
	go func() { returned <- pub.Publish("gyrocam/angles", []byte("{}")) }()

	select {
	case err := <-returned:
		test.That(t, err, test.ShouldBeNil)
	case <-time.After(2 * time.Second):
		t.Fatal("async publish blocked on an unfinished token")
	}

	tk := <-client.tokens
	tk.err = errors.New("broker gone")
	close(tk.done)

	deadline := time.Now().Add(2 * time.Second)
	for logs.FilterMessageSnippet("broker gone").Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	test.That(t, logs.FilterMessageSnippet("broker gone").Len(), test.ShouldEqual, 1)
}

func TestSyncPublishReturnsTokenError(t *testing.T) {
	client := &publishClient{tokens: make(chan *pendingToken, 1)}
	pub := &mqttPublisher{client: client}

	returned := make(chan error, 1)
	go func() { returned <- pub.Publish("gyrocam/heading", []byte("{}")) }()

	tk := <-client.tokens
	select {
	case <-returned:
		t.Fatal("publish returned before the token completed")
	case <-time.After(20 * time.Millisecond):
	}

	tk.err = errors.New("not authorized")
	close(tk.done)
	err := <-returned
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not authorized")
}
