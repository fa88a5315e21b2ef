package listener

import (
	"context"
	"fmt"
)

// Permission is the outcome of a sensor permission request.
type Permission string

const (
	Granted Permission = "granted"
	Denied  Permission = "denied"
	// Default means the user has not answered.
	Default Permission = "default"
)

// PermissionGate must resolve before some platforms deliver samples.
type PermissionGate interface {
	Request(ctx context.Context) (Permission, error)
}

type grantedGate struct{}

func (grantedGate) Request(context.Context) (Permission, error) {
	return Granted, nil
}

// AlreadyGranted is the gate of platforms without a permission prompt.
var AlreadyGranted PermissionGate = grantedGate{}

// GateFor returns prompt on Apple mobile devices, which require an explicit
// permission request, and AlreadyGranted everywhere else or when no prompt
// is available.
func GateFor(appleMobile bool, prompt PermissionGate) PermissionGate {
	if !appleMobile || prompt == nil {
		return AlreadyGranted
	}
	return prompt
}

// Prompt asks a remote party for permission and waits for its answer.
type Prompt struct {
	ask    func() error
	answer chan Permission
}

// NewPrompt returns a prompt that calls ask to send the request.
func NewPrompt(ask func() error) *Prompt {
	return &Prompt{ask: ask, answer: make(chan Permission, 1)}
}

// Request sends the request and blocks until Answer is called or ctx ends.
func (p *Prompt) Request(ctx context.Context) (Permission, error) {
	if err := p.ask(); err != nil {
		return Default, fmt.Errorf("send permission request: %w", err)
	}
	select {
	case a := <-p.answer:
		return a, nil
	case <-ctx.Done():
		return Default, ctx.Err()
	}
}

// Answer resolves a pending or future Request. Extra answers are dropped.
func (p *Prompt) Answer(a Permission) {
	select {
	case p.answer <- a:
	default:
	}
}
