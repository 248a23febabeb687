package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []*Event
	err    error
	done   chan struct{}
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{done: make(chan struct{}, 8)}
}

func (r *recordingEmitter) Emit(ctx context.Context, event *Event) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("emit context has no deadline")
	}
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.done <- struct{}{}
	return r.err
}

func (r *recordingEmitter) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit did not run")
	}
}

func TestEmitAsync_NilEmitterOrEvent(t *testing.T) {
	EmitAsync(nil, nil, &Event{Type: "login"})

	em := newRecordingEmitter()
	EmitAsync(em, nil, nil)
	time.Sleep(10 * time.Millisecond)
	em.mu.Lock()
	defer em.mu.Unlock()
	if len(em.events) != 0 {
		t.Errorf("expected 0 events, got %d", len(em.events))
	}
}

func TestEmitAsync_Emits(t *testing.T) {
	em := newRecordingEmitter()
	EmitAsync(em, nil, &Event{Type: "signup", Email: "a@x.com", Outcome: OutcomeSuccess})
	em.wait(t)

	em.mu.Lock()
	defer em.mu.Unlock()
	if len(em.events) != 1 || em.events[0].Type != "signup" {
		t.Errorf("events = %+v", em.events)
	}
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	em := newRecordingEmitter()
	em.err = errors.New("collector down")
	EmitAsync(em, nil, &Event{Type: "login"})
	em.wait(t)
}
