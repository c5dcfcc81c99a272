package openai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowkit/flowcore/flow/model"
)

type fakeOpenAIClient struct {
	calls int
	fail  int // number of leading calls that return err
	err   error
	out   model.ChatOut
}

func (f *fakeOpenAIClient) createChatCompletion(_ context.Context, _ []model.Message, _ []model.ToolSpec) (model.ChatOut, error) {
	f.calls++
	if f.calls <= f.fail {
		return model.ChatOut{}, f.err
	}
	return f.out, nil
}

func TestChatRetriesTransientErrors(t *testing.T) {
	fake := &fakeOpenAIClient{fail: 2, err: errors.New("503 service unavailable"), out: model.ChatOut{Text: "ok"}}
	m := &ChatModel{client: fake, maxRetries: 3, retryDelay: time.Millisecond}

	out, err := m.Chat(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Text != "ok" {
		t.Fatalf("out.Text = %q, want ok", out.Text)
	}
	if fake.calls != 3 {
		t.Fatalf("calls = %d, want 3 (2 failures + 1 success)", fake.calls)
	}
}

func TestChatGivesUpAfterMaxRetriesOnPersistentTransientError(t *testing.T) {
	fake := &fakeOpenAIClient{fail: 10, err: errors.New("timeout")}
	m := &ChatModel{client: fake, maxRetries: 2, retryDelay: time.Millisecond}

	_, err := m.Chat(context.Background(), nil, nil)
	if err == nil {
		t.Fatalf("expected an error after exhausting retries")
	}
	if fake.calls != 3 {
		t.Fatalf("calls = %d, want 3 (1 + 2 retries)", fake.calls)
	}
}

func TestChatDoesNotRetryNonTransientError(t *testing.T) {
	fake := &fakeOpenAIClient{fail: 10, err: errors.New("invalid api key")}
	m := &ChatModel{client: fake, maxRetries: 3, retryDelay: time.Millisecond}

	_, err := m.Chat(context.Background(), nil, nil)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if fake.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on a non-transient error)", fake.calls)
	}
}

func TestChatRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &ChatModel{client: &fakeOpenAIClient{}, maxRetries: 3, retryDelay: time.Millisecond}

	if _, err := m.Chat(ctx, nil, nil); err == nil {
		t.Fatalf("expected an error from a cancelled context")
	}
}

func TestNewChatModelDefaults(t *testing.T) {
	m := NewChatModel("key", "")
	if m.modelName != "gpt-4o" {
		t.Fatalf("modelName = %q, want gpt-4o", m.modelName)
	}
	if m.maxRetries != 3 {
		t.Fatalf("maxRetries = %d, want 3", m.maxRetries)
	}
}
