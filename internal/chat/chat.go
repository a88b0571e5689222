// Package chat answers planning questions for the sidebar assistant. It
// speaks to an LLM provider directly or proxies to an external planning
// agent, normalizing the varied response shapes those agents return.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// ErrNoResponse is returned when the backend reply carries no usable
// assistant content in any known shape.
var ErrNoResponse = errors.New("chat: no response content")

// Provider is the interface for chat backends. The history holds the prior
// turns of the request's thread, oldest first; providers that delegate
// thread state to their backend (the upstream agent keys on the thread id)
// may ignore it.
type Provider interface {
	Complete(ctx context.Context, systemPrompt string, req Request, history []Turn, maxTokens int, temperature float64) (string, error)
}

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior exchange half in a thread.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options configures a chat service.
type Options struct {
	Provider    string
	Model       string
	Upstream    string
	MaxTokens   int
	Temperature float64
}

// NewProvider is the factory for creating chat providers. It is a
// package-level variable so tests can replace it with a mock without
// modifying the call site. Tests must restore the original value; use
// t.Cleanup to do so safely.
var NewProvider func(opts Options) (Provider, error) = defaultNewProvider

const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.3
	defaultThreadID    = "default-thread"

	// maxHistoryTurns bounds per-thread memory; older turns roll off.
	maxHistoryTurns = 20
)

const systemPrompt = `You are an academic planning assistant. Students ask about
degree requirements, course sequencing, and quarter-by-quarter scheduling.
Answer concisely and do not invent course codes or requirements.`

// Request is one chat turn from the client.
type Request struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// Service dispatches chat requests to the configured provider and keeps the
// per-thread conversation history the SDK providers replay.
type Service struct {
	provider Provider
	opts     Options
	memory   *threadMemory
}

// NewService builds a service for the configured provider.
func NewService(opts Options) (*Service, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	provider, err := NewProvider(opts)
	if err != nil {
		return nil, fmt.Errorf("chat: create provider: %w", err)
	}
	return &Service{provider: provider, opts: opts, memory: newThreadMemory()}, nil
}

// Ask sends one message on its thread and returns the assistant's reply.
// Requests without a thread id share one default thread.
func (s *Service) Ask(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", errors.New("chat: empty message")
	}
	if req.ThreadID == "" {
		req.ThreadID = defaultThreadID
	}
	history := s.memory.history(req.ThreadID)
	reply, err := s.provider.Complete(ctx, systemPrompt, req, history, s.opts.MaxTokens, s.opts.Temperature)
	if err != nil {
		return "", fmt.Errorf("chat: complete: %w", err)
	}
	s.memory.record(req.ThreadID, req.Message, reply)
	return reply, nil
}

// ── Thread memory ─────────────────────────────────────────────────────────────

type threadMemory struct {
	mu      sync.Mutex
	threads map[string][]Turn
}

func newThreadMemory() *threadMemory {
	return &threadMemory{threads: make(map[string][]Turn)}
}

// history returns a copy of the thread's prior turns, oldest first.
func (m *threadMemory) history(id string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.threads[id]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

func (m *threadMemory) record(id, message, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := append(m.threads[id],
		Turn{Role: RoleUser, Content: message},
		Turn{Role: RoleAssistant, Content: reply},
	)
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}
	m.threads[id] = turns
}

// ── Provider dispatch ─────────────────────────────────────────────────────────

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(opts Options) (Provider, error) {
	switch strings.ToLower(opts.Provider) {
	case "upstream", "":
		return newUpstreamProvider(opts.Upstream)
	case "anthropic":
		return newAnthropicProvider(opts.Model)
	case "openai":
		return newOpenAIProvider(opts.Model)
	case "google":
		return newGoogleProvider(opts.Model)
	default:
		return nil, fmt.Errorf("chat: unknown provider %q", opts.Provider)
	}
}

// ── Upstream provider ─────────────────────────────────────────────────────────

// HTTPClient is the subset of http.Client the upstream provider needs.
// Tests substitute a stub or an httptest server's client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// upstreamProvider proxies chat turns to an external planning agent over
// HTTP. The agent's reply shape varies by deployment, so extraction walks
// the known shapes in order.
type upstreamProvider struct {
	url    string
	client HTTPClient
}

func newUpstreamProvider(url string) (Provider, error) {
	if url == "" {
		return nil, errors.New("chat: upstream URL not configured")
	}
	return &upstreamProvider{url: url, client: http.DefaultClient}, nil
}

// Complete forwards the message and its thread id to the agent. The agent
// keeps its own per-thread state keyed on the id, so history is not sent.
func (p *upstreamProvider) Complete(ctx context.Context, _ string, creq Request, _ []Turn, _ int, _ float64) (string, error) {
	body, err := json.Marshal(Request{Message: creq.Message, ThreadID: creq.ThreadID})
	if err != nil {
		return "", fmt.Errorf("upstream: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upstream: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream: agent responded with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("upstream: read response: %w", err)
	}
	return ExtractReply(data)
}

// upstreamReply covers the response shapes the deployed agents emit: a
// LangGraph-style message list, a bare content field, a bare response
// field, or an error field.
type upstreamReply struct {
	Error    string `json:"error"`
	Content  string `json:"content"`
	Response string `json:"response"`
	Messages []struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"messages"`
}

// ExtractReply normalizes an upstream agent response body to the
// assistant's text. Shapes are tried in order: explicit error, last
// message of type "ai", content field, response field.
func ExtractReply(data []byte) (string, error) {
	var reply upstreamReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", fmt.Errorf("chat: decode upstream reply: %w", err)
	}

	if reply.Error != "" {
		return "", fmt.Errorf("chat: upstream error: %s", reply.Error)
	}
	if len(reply.Messages) > 0 {
		for i := len(reply.Messages) - 1; i >= 0; i-- {
			if reply.Messages[i].Type == "ai" && reply.Messages[i].Content != "" {
				return reply.Messages[i].Content, nil
			}
		}
		return "", ErrNoResponse
	}
	if reply.Content != "" {
		return reply.Content, nil
	}
	if reply.Response != "" {
		return reply.Response, nil
	}
	return "", ErrNoResponse
}
