package listener

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestGateFor(t *testing.T) {
	asked := 0
	prompt := NewPrompt(func() error {
		asked++
		return nil
	})

	test.That(t, GateFor(false, prompt) == AlreadyGranted, test.ShouldBeTrue)
	test.That(t, GateFor(true, nil) == AlreadyGranted, test.ShouldBeTrue)
	test.That(t, GateFor(true, prompt) == PermissionGate(prompt), test.ShouldBeTrue)

	// Platforms without a prompt resolve at once and never ask.
	p, err := GateFor(false, prompt).Request(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, Granted)
	test.That(t, asked, test.ShouldEqual, 0)

	prompt.Answer(Denied)
	p, err = GateFor(true, prompt).Request(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, Denied)
	test.That(t, asked, test.ShouldEqual, 1)
}

func TestPromptAnswer(t *testing.T) {
	asked := make(chan struct{}, 1)
	prompt := NewPrompt(func() error {
		asked <- struct{}{}
		return nil
	})

	go func() {
		<-asked
		prompt.Answer(Denied)
		prompt.Answer(Granted)
	}()

	p, err := prompt.Request(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, Denied)
}

func TestPromptContextCancelled(t *testing.T) {
	prompt := NewPrompt(func() error { return nil })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	p, err := prompt.Request(ctx)
	test.That(t, errors.Is(err, context.DeadlineExceeded), test.ShouldBeTrue)
	test.That(t, p, test.ShouldEqual, Default)
}

func TestPromptSendFailure(t *testing.T) {
	prompt := NewPrompt(func() error { return errors.New("socket closed") })
	_, err := prompt.Request(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "socket closed")
}
