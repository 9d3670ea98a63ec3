package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ibreez3/lawbot/chat"
	"github.com/ibreez3/lawbot/service"
	"github.com/ibreez3/lawbot/settings"
)

// MockTransport fails according to markers in the user message so every failure path can
// be exercised offline. Each marker fails only the first time it is seen.
type MockTransport struct {
	mu   sync.Mutex
	seen map[string]int
}

func (m *MockTransport) Post(ctx context.Context, req chat.Request, credential string) (*chat.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]int{}
	}
	u := strings.ToLower(req.UserMessage)
	switch {
	case strings.Contains(u, "[busy]"):
		m.seen["busy"]++
		if m.seen["busy"] < 3 {
			return nil, &chat.TransportError{StatusCode: 503, Message: "503 Service Unavailable"}
		}
	case strings.Contains(u, "[badkey]"):
		return nil, &chat.TransportError{StatusCode: 401, Message: "401 Unauthorized"}
	case strings.Contains(u, "[nomodel]"):
		return &chat.Payload{Error: &chat.APIError{Message: "model not found"}}, nil
	case strings.Contains(u, "[empty]"):
		return &chat.Payload{}, nil
	}
	return &chat.Payload{Choices: []chat.Choice{{Text: "General legal information about: " + req.UserMessage, FinishReason: "stop"}}}, nil
}

type check struct {
	message  string
	wantErr  bool
	category string
	attempts int
}

func main() {
	dir := filepath.Join("output", "mock-run")
	client := chat.NewClient(&MockTransport{}).
		WithLimiter(chat.NewRateLimiter(10 * time.Millisecond)).
		WithRetryPolicy(chat.RetryPolicy{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond, MaxDelay: 80 * time.Millisecond})
	store := settings.NewMemoryStore()
	_ = settings.SaveCredential(context.Background(), store, "mock-key")
	mgr := service.NewManager(client, store).WithTranscriptDir(dir)
	sess := mgr.Create()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	checks := []check{
		{message: "What is a power of attorney?", attempts: 1},
		{message: "[busy] Explain small claims court", attempts: 3},
		{message: "[badkey] hello", wantErr: true, category: "invalid_credential", attempts: 1},
		{message: "[nomodel] hello", wantErr: true, category: "upstream_error", attempts: 1},
		{message: "[empty] hello", attempts: 1},
	}
	for _, c := range checks {
		reply, err := sess.Send(ctx, c.message)
		if err != nil {
			fmt.Println("send failed:", err)
			os.Exit(1)
		}
		fmt.Printf("%-40s -> %s\n", c.message, reply.Content)
		if reply.IsError != c.wantErr || reply.Category != c.category || reply.Attempts != c.attempts {
			fmt.Printf("unexpected reply: %+v\n", reply)
			os.Exit(2)
		}
	}

	if _, err := sess.Retry(ctx); err != nil {
		fmt.Println("retry failed:", err)
		os.Exit(1)
	}
	if _, err := os.Stat(sess.TranscriptPath()); err != nil {
		fmt.Println("transcript missing:", err)
		os.Exit(3)
	}
	fmt.Println("messages:", len(sess.Messages()), "transcript:", sess.TranscriptPath())
}
