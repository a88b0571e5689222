package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockProvider returns a canned response for testing.
type mockProvider struct {
	response string
	err      error

	gotSystem  string
	gotReq     Request
	gotHistory []Turn
}

func (m *mockProvider) Complete(_ context.Context, systemPrompt string, req Request, history []Turn, _ int, _ float64) (string, error) {
	m.gotSystem = systemPrompt
	m.gotReq = req
	m.gotHistory = history
	return m.response, m.err
}

// swapProvider replaces the provider factory for the duration of a test.
func swapProvider(t *testing.T, p Provider, err error) {
	t.Helper()
	orig := NewProvider
	NewProvider = func(Options) (Provider, error) { return p, err }
	t.Cleanup(func() { NewProvider = orig })
}

func TestServiceAsk(t *testing.T) {
	mock := &mockProvider{response: "Take DSC 40A before DSC 40B."}
	swapProvider(t, mock, nil)

	svc, err := NewService(Options{Provider: "anthropic", Model: "test-model"})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	reply, err := svc.Ask(context.Background(), Request{Message: "What order for DSC 40A/40B?"})
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if reply != "Take DSC 40A before DSC 40B." {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(mock.gotSystem, "academic planning assistant") {
		t.Errorf("system prompt not applied: %q", mock.gotSystem)
	}
	if mock.gotReq.Message != "What order for DSC 40A/40B?" {
		t.Errorf("message = %q", mock.gotReq.Message)
	}
	if mock.gotReq.ThreadID != defaultThreadID {
		t.Errorf("thread id = %q, want %q", mock.gotReq.ThreadID, defaultThreadID)
	}
}

func TestServiceAskKeepsThreadHistory(t *testing.T) {
	mock := &mockProvider{response: "noted"}
	swapProvider(t, mock, nil)

	svc, err := NewService(Options{Provider: "anthropic"})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.Ask(ctx, Request{Message: "first question", ThreadID: "thread-42"}); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if len(mock.gotHistory) != 0 {
		t.Errorf("first turn saw history %+v, want none", mock.gotHistory)
	}

	if _, err := svc.Ask(ctx, Request{Message: "second question", ThreadID: "thread-42"}); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	want := []Turn{
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "noted"},
	}
	if len(mock.gotHistory) != len(want) {
		t.Fatalf("history = %+v, want %+v", mock.gotHistory, want)
	}
	for i := range want {
		if mock.gotHistory[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, mock.gotHistory[i], want[i])
		}
	}

	// Other threads stay isolated.
	if _, err := svc.Ask(ctx, Request{Message: "hello", ThreadID: "thread-7"}); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if len(mock.gotHistory) != 0 {
		t.Errorf("fresh thread saw history %+v, want none", mock.gotHistory)
	}
}

func TestThreadMemoryCapsHistory(t *testing.T) {
	m := newThreadMemory()
	for i := 0; i < maxHistoryTurns; i++ {
		m.record("t", "question", "answer")
	}
	got := m.history("t")
	if len(got) != maxHistoryTurns {
		t.Fatalf("history length = %d, want %d", len(got), maxHistoryTurns)
	}
}

func TestServiceAskEmptyMessage(t *testing.T) {
	swapProvider(t, &mockProvider{response: "x"}, nil)

	svc, err := NewService(Options{Provider: "anthropic"})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	if _, err := svc.Ask(context.Background(), Request{Message: "   "}); err == nil {
		t.Error("expected error for empty message")
	}
}

func TestServiceAskProviderError(t *testing.T) {
	mock := &mockProvider{err: errors.New("boom")}
	swapProvider(t, mock, nil)

	svc, err := NewService(Options{Provider: "openai"})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	if _, err := svc.Ask(context.Background(), Request{Message: "hello", ThreadID: "t"}); err == nil {
		t.Error("expected provider error to propagate")
	}

	// Failed turns are not remembered.
	mock.err = nil
	mock.response = "ok"
	if _, err := svc.Ask(context.Background(), Request{Message: "again", ThreadID: "t"}); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if len(mock.gotHistory) != 0 {
		t.Errorf("failed turn leaked into history: %+v", mock.gotHistory)
	}
}

func TestNewServiceUnknownProvider(t *testing.T) {
	if _, err := NewService(Options{Provider: "frontier"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestExtractReply(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			"message list",
			`{"messages":[{"type":"human","content":"hi"},{"type":"ai","content":"first"},{"type":"ai","content":"second"}]}`,
			"second",
			false,
		},
		{
			"message list without ai turn",
			`{"messages":[{"type":"human","content":"hi"}]}`,
			"",
			true,
		},
		{
			"content field",
			`{"content":"plain content"}`,
			"plain content",
			false,
		},
		{
			"response field",
			`{"response":"fallback response"}`,
			"fallback response",
			false,
		},
		{
			"error field",
			`{"error":"agent unavailable"}`,
			"",
			true,
		},
		{
			"empty object",
			`{}`,
			"",
			true,
		},
		{
			"malformed json",
			`{"content":`,
			"",
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractReply([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractReply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractReply() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpstreamProviderComplete(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"messages":[{"type":"ai","content":"plan looks good"}]}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	p, err := newUpstreamProvider(srv.URL)
	if err != nil {
		t.Fatalf("newUpstreamProvider() error: %v", err)
	}
	reply, err := p.Complete(context.Background(), "", Request{Message: "is my plan ok?", ThreadID: "thread-42"}, nil, 0, 0)
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if reply != "plan looks good" {
		t.Errorf("reply = %q", reply)
	}
	if got.Message != "is my plan ok?" {
		t.Errorf("forwarded message = %q", got.Message)
	}
	if got.ThreadID != "thread-42" {
		t.Errorf("forwarded thread id = %q, want %q", got.ThreadID, "thread-42")
	}
}

func TestUpstreamProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p, err := newUpstreamProvider(srv.URL)
	if err != nil {
		t.Fatalf("newUpstreamProvider() error: %v", err)
	}
	if _, err := p.Complete(context.Background(), "", Request{Message: "hello"}, nil, 0, 0); err == nil {
		t.Error("expected error for non-200 upstream status")
	}
}

func TestUpstreamProviderRequiresURL(t *testing.T) {
	if _, err := newUpstreamProvider(""); err == nil {
		t.Error("expected error for missing upstream URL")
	}
}
