package ai_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/tactful-app/tactful-backend/internal/ai"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// scriptedGenerator returns its scripted results in order, then repeats the
// last one.
type scriptedGenerator struct {
	mu      sync.Mutex
	texts   []string
	errs    []error
	calls   int
	block   time.Duration // simulated latency
}

func (s *scriptedGenerator) Generate(ctx context.Context, _ ai.Request) (string, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.mu.Unlock()

	if s.block > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.block):
		}
	}

	if i >= len(s.texts) {
		i = len(s.texts) - 1
	}
	return s.texts[i], s.errs[i]
}

func (s *scriptedGenerator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// discardLogger returns a *slog.Logger that silently drops all log output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─── FallbackGenerator ────────────────────────────────────────────────────────

func TestFallbackGenerator_PrimarySucceeds_SecondaryNotCalled(t *testing.T) {
	primary := &scriptedGenerator{texts: []string{"primary text"}, errs: []error{nil}}
	secondary := &scriptedGenerator{texts: []string{"secondary text"}, errs: []error{nil}}

	gen := ai.NewFallbackGenerator(primary, secondary, discardLogger())
	text, err := gen.Generate(context.Background(), ai.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "primary text" {
		t.Errorf("text = %q, want primary", text)
	}
	if secondary.callCount() != 0 {
		t.Errorf("secondary called %d times, want 0", secondary.callCount())
	}
}

func TestFallbackGenerator_PrimaryFails_SecondaryUsed(t *testing.T) {
	primary := &scriptedGenerator{texts: []string{""}, errs: []error{errors.New("provider down")}}
	secondary := &scriptedGenerator{texts: []string{"secondary text"}, errs: []error{nil}}

	gen := ai.NewFallbackGenerator(primary, secondary, discardLogger())
	text, err := gen.Generate(context.Background(), ai.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "secondary text" {
		t.Errorf("text = %q, want secondary", text)
	}
}

func TestFallbackGenerator_NoSecondary_PrimaryErrorReturned(t *testing.T) {
	cause := errors.New("provider down")
	primary := &scriptedGenerator{texts: []string{""}, errs: []error{cause}}

	gen := ai.NewFallbackGenerator(primary, nil, discardLogger())
	_, err := gen.Generate(context.Background(), ai.Request{})
	if !errors.Is(err, cause) {
		t.Errorf("want wrapped primary error, got %v", err)
	}
}

// ─── RetryGenerator ───────────────────────────────────────────────────────────

func TestRetryGenerator_TransientStatusRetriedOnce(t *testing.T) {
	inner := &scriptedGenerator{
		texts: []string{"", "recovered"},
		errs:  []error{&ai.ProviderError{Status: 429, Message: "rate limited"}, nil},
	}

	gen := ai.NewRetryGenerator(inner, time.Second, discardLogger())
	text, err := gen.Generate(context.Background(), ai.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "recovered" {
		t.Errorf("text = %q", text)
	}
	if inner.callCount() != 2 {
		t.Errorf("inner called %d times, want 2", inner.callCount())
	}
}

func TestRetryGenerator_NeverMoreThanOneRetry(t *testing.T) {
	inner := &scriptedGenerator{
		texts: []string{"", "", ""},
		errs: []error{
			&ai.ProviderError{Status: 503, Message: "unavailable"},
			&ai.ProviderError{Status: 503, Message: "unavailable"},
			nil, // would succeed on a third attempt — must never happen
		},
	}

	gen := ai.NewRetryGenerator(inner, time.Second, discardLogger())
	_, err := gen.Generate(context.Background(), ai.Request{})
	if err == nil {
		t.Fatal("want error after exhausting the single retry")
	}
	if inner.callCount() != 2 {
		t.Errorf("inner called %d times, want exactly 2", inner.callCount())
	}
}

func TestRetryGenerator_AuthErrorNotRetried(t *testing.T) {
	inner := &scriptedGenerator{
		texts: []string{"", "would recover"},
		errs:  []error{&ai.ProviderError{Status: 401, Message: "bad key"}, nil},
	}

	gen := ai.NewRetryGenerator(inner, time.Second, discardLogger())
	_, err := gen.Generate(context.Background(), ai.Request{})

	var pe *ai.ProviderError
	if !errors.As(err, &pe) || pe.Status != 401 {
		t.Fatalf("want 401 ProviderError, got %v", err)
	}
	if inner.callCount() != 1 {
		t.Errorf("inner called %d times, want 1 (auth is terminal)", inner.callCount())
	}
}

func TestRetryGenerator_EmptyResponseRetried(t *testing.T) {
	inner := &scriptedGenerator{
		texts: []string{"", "recovered"},
		errs:  []error{ai.ErrEmptyResponse, nil},
	}

	gen := ai.NewRetryGenerator(inner, time.Second, discardLogger())
	text, err := gen.Generate(context.Background(), ai.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "recovered" {
		t.Errorf("text = %q", text)
	}
}

func TestRetryGenerator_TimeoutReportedDistinctly(t *testing.T) {
	inner := &scriptedGenerator{
		texts: []string{"", ""},
		errs:  []error{nil, nil},
		block: 200 * time.Millisecond, // longer than the per-call deadline
	}

	gen := ai.NewRetryGenerator(inner, 20*time.Millisecond, discardLogger())
	_, err := gen.Generate(context.Background(), ai.Request{})
	if !errors.Is(err, ai.ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
	// Timeout is transient: one retry happened before giving up.
	if inner.callCount() != 2 {
		t.Errorf("inner called %d times, want 2", inner.callCount())
	}
}

func TestRetryGenerator_ParentContextCancelledNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &scriptedGenerator{
		texts: []string{""},
		errs:  []error{&ai.ProviderError{Status: 503, Message: "unavailable"}},
	}

	gen := ai.NewRetryGenerator(inner, time.Second, discardLogger())
	_, err := gen.Generate(ctx, ai.Request{})
	if err == nil {
		t.Fatal("want error with cancelled context")
	}
	if inner.callCount() > 1 {
		t.Errorf("inner called %d times, want at most 1", inner.callCount())
	}
}
