package thoughtbot

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubAdapter is a test MessageAdapter that returns pre-configured results
// in order on successive Dispatch calls.
type stubAdapter struct {
	calls   int
	results []error
}

func (s *stubAdapter) Start(context.Context) error    { return nil }
func (s *stubAdapter) Shutdown(context.Context) error { return nil }

func (s *stubAdapter) Dispatch(context.Context, *Envelope) error {
	i := s.calls
	s.calls++
	if i < len(s.results) {
		return s.results[i]
	}
	return nil
}

var _ MessageAdapter = (*stubAdapter)(nil)

func TestWithRetryDispatchSucceedsFirstAttempt(t *testing.T) {
	stub := &stubAdapter{results: []error{nil}}
	a := WithRetry(stub, RetryBaseDelay(0))

	if err := a.Dispatch(context.Background(), NewEnvelope(MethodSend, Room{ID: "r"}, User{ID: "u"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("got %d calls, want 1", stub.calls)
	}
}

func TestWithRetryDispatchRetriesTransient(t *testing.T) {
	stub := &stubAdapter{results: []error{
		&ErrTransientDispatch{Adapter: "stub", Err: errors.New("rate limited")},
		nil,
	}}
	a := WithRetry(stub, RetryBaseDelay(0))

	if err := a.Dispatch(context.Background(), NewEnvelope(MethodSend, Room{ID: "r"}, User{ID: "u"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("got %d calls, want 2", stub.calls)
	}
}

func TestWithRetryDispatchDoesNotRetryPermanentError(t *testing.T) {
	stub := &stubAdapter{results: []error{errors.New("permanent failure")}}
	a := WithRetry(stub, RetryBaseDelay(0))

	err := a.Dispatch(context.Background(), NewEnvelope(MethodSend, Room{ID: "r"}, User{ID: "u"}))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if stub.calls != 1 {
		t.Errorf("got %d calls, want 1 (no retry for permanent error)", stub.calls)
	}
}

func TestWithRetryDispatchExhaustsMaxAttempts(t *testing.T) {
	transient := &ErrTransientDispatch{Adapter: "stub", Err: errors.New("down")}
	stub := &stubAdapter{results: []error{transient, transient, transient, transient}}
	a := WithRetry(stub, RetryBaseDelay(0), RetryMaxAttempts(3))

	err := a.Dispatch(context.Background(), NewEnvelope(MethodSend, Room{ID: "r"}, User{ID: "u"}))
	if err == nil {
		t.Fatal("expected error after max attempts, got nil")
	}
	if stub.calls != 3 {
		t.Errorf("got %d calls, want 3", stub.calls)
	}
}

func TestWithRetryDispatchTimeoutExceeded(t *testing.T) {
	transient := &ErrTransientDispatch{Adapter: "stub", Err: errors.New("down")}
	stub := &stubAdapter{results: []error{transient, transient, transient}}
	a := WithRetry(stub, RetryBaseDelay(50*time.Millisecond), RetryTimeout(10*time.Millisecond))

	start := time.Now()
	err := a.Dispatch(context.Background(), NewEnvelope(MethodSend, Room{ID: "r"}, User{ID: "u"}))
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error due to timeout, got nil")
	}
	if elapsed > time.Second {
		t.Errorf("took too long to time out: %v", elapsed)
	}
}

func TestWithRetryDispatchDelegatesLifecycle(t *testing.T) {
	stub := &stubAdapter{}
	a := WithRetry(stub, RetryBaseDelay(0))

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
