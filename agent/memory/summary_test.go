package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	statex "github.com/merrysway/brewflow/agent/state"
)

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
	lastOld []statex.Message
}

func (f *fakeSummarizer) Summarize(ctx context.Context, prior string, old []statex.Message) (string, error) {
	f.calls++
	f.lastOld = old
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func makeMessages(n int) []statex.Message {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	out := make([]statex.Message, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out = append(out, statex.UserMessage("u", now))
		} else {
			out = append(out, statex.AssistantMessage("a", now))
		}
	}
	return out
}

func TestFoldBelowWindowIsNoOp(t *testing.T) {
	t.Parallel()

	s := &fakeSummarizer{summary: "should not be used"}
	messages := makeMessages(4)

	res, err := Fold(context.Background(), s, messages, "prior", 6)
	if err != nil {
		t.Fatalf("Fold() error = %v", err)
	}
	if res.Folded {
		t.Fatal("expected no fold below window")
	}
	if len(res.Messages) != 4 || res.Summary != "prior" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if s.calls != 0 {
		t.Fatalf("summarizer must not run below window, called %d times", s.calls)
	}
}

func TestFoldTruncatesAndSummarizes(t *testing.T) {
	t.Parallel()

	s := &fakeSummarizer{summary: "folded summary"}
	messages := makeMessages(10)

	res, err := Fold(context.Background(), s, messages, "prior", 6)
	if err != nil {
		t.Fatalf("Fold() error = %v", err)
	}
	if !res.Folded {
		t.Fatal("expected a fold")
	}
	if len(res.Messages) != 6 {
		t.Fatalf("expected 6 retained messages, got %d", len(res.Messages))
	}
	if res.Summary != "folded summary" {
		t.Fatalf("summary = %q", res.Summary)
	}
	if len(s.lastOld) != 4 {
		t.Fatalf("expected 4 folded messages, got %d", len(s.lastOld))
	}
}

func TestFoldIsIdempotent(t *testing.T) {
	t.Parallel()

	s := &fakeSummarizer{summary: "folded summary"}
	messages := makeMessages(10)

	first, err := Fold(context.Background(), s, messages, "", 6)
	if err != nil {
		t.Fatalf("first Fold() error = %v", err)
	}
	second, err := Fold(context.Background(), s, first.Messages, first.Summary, 6)
	if err != nil {
		t.Fatalf("second Fold() error = %v", err)
	}
	if second.Folded {
		t.Fatal("second fold must be a no-op")
	}
	if s.calls != 1 {
		t.Fatalf("summarizer called %d times, want 1", s.calls)
	}
	if len(second.Messages) != 6 || second.Summary != "folded summary" {
		t.Fatalf("unexpected second result: %+v", second)
	}
}

func TestFoldKeepsTranscriptOnSummarizerError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("model down")
	s := &fakeSummarizer{err: wantErr}
	messages := makeMessages(10)

	res, err := Fold(context.Background(), s, messages, "prior", 6)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected summarizer error, got %v", err)
	}
	if len(res.Messages) != 10 {
		t.Fatalf("transcript must stay intact on error, got %d messages", len(res.Messages))
	}
	if res.Summary != "prior" {
		t.Fatalf("summary must stay intact on error, got %q", res.Summary)
	}
}

func TestFoldDefaultsWindow(t *testing.T) {
	t.Parallel()

	s := &fakeSummarizer{summary: "s"}
	res, err := Fold(context.Background(), s, makeMessages(8), "", 0)
	if err != nil {
		t.Fatalf("Fold() error = %v", err)
	}
	if len(res.Messages) != DefaultWindow {
		t.Fatalf("expected default window %d, got %d", DefaultWindow, len(res.Messages))
	}
}
