package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ibreez3/lawbot/chat"
	"github.com/ibreez3/lawbot/settings"
)

var (
	ErrBusy            = errors.New("session: a message is already in flight")
	ErrNothingToRetry  = errors.New("session: no user message to retry")
	ErrSessionNotFound = errors.New("session: not found")
)

// Sender is the part of chat.Client a session needs.
type Sender interface {
	SendMessage(ctx context.Context, userMessage, credential string) (*chat.Response, error)
}

type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
	IsError   bool      `json:"is_error"`
	Category  string    `json:"category,omitempty"`
	Attempts  int       `json:"attempts,omitempty"`
}

// Session is one conversation. At most one message is in flight at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	sender     Sender
	store      settings.Store
	fallback   string
	transcript *TranscriptLogger
	log        *slog.Logger

	mu       sync.Mutex
	messages []Message
	loading  bool
}

func newSession(id string, sender Sender, store settings.Store, fallback string, tl *TranscriptLogger, log *slog.Logger) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		sender:     sender,
		store:      store,
		fallback:   fallback,
		transcript: tl,
		log:        log.With("session", id),
	}
}

// Send appends text as a user message and the model's reply (or error sentence) after it.
// The reply is returned. ErrBusy is returned while another message is in flight.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, chat.ErrBlankMessage
	}
	cred, err := s.credential(ctx)
	if err != nil {
		return Message{}, err
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return Message{}, ErrBusy
	}
	s.loading = true
	s.messages = append(s.messages, newMessage(text, true))
	s.mu.Unlock()

	s.transcript.Log("user: %s", text)
	return s.exchange(ctx, text, cred)
}

// Retry drops trailing error replies and sends the last user message again. When that
// message already ends the conversation it is not appended a second time.
func (s *Session) Retry(ctx context.Context) (Message, error) {
	cred, err := s.credential(ctx)
	if err != nil {
		return Message{}, err
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return Message{}, ErrBusy
	}
	last := -1
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].IsUser {
			last = i
			break
		}
	}
	if last < 0 {
		s.mu.Unlock()
		return Message{}, ErrNothingToRetry
	}
	text := s.messages[last].Content
	n := len(s.messages)
	for n > 0 && s.messages[n-1].IsError {
		n--
	}
	s.messages = s.messages[:n]
	if n-1 != last {
		s.messages = append(s.messages, newMessage(text, true))
	}
	s.loading = true
	s.mu.Unlock()

	s.transcript.Log("retry: %s", text)
	return s.exchange(ctx, text, cred)
}

func (s *Session) exchange(ctx context.Context, text, cred string) (Message, error) {
	resp, err := s.sender.SendMessage(ctx, text, cred)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.log.Warn("Message not delivered", "error", err)
		s.transcript.Log("aborted: %v", err)
		return Message{}, err
	}

	reply := newMessage(resp.Text, false)
	reply.Attempts = resp.Attempts
	if resp.IsError() {
		reply.IsError = true
		reply.Category = resp.Failure.Category.String()
		s.transcript.Log("error[%s]: %s", reply.Category, resp.Text)
	} else {
		s.transcript.Log("assistant: %s", resp.Text)
	}
	s.messages = append(s.messages, reply)
	return reply, nil
}

func (s *Session) credential(ctx context.Context) (string, error) {
	cred, err := settings.LoadCredential(ctx, s.store)
	if err != nil {
		return "", fmt.Errorf("session %s: %w", s.ID, err)
	}
	if cred == "" {
		cred = s.fallback
	}
	if cred == "" {
		return "", chat.ErrMissingCredential
	}
	return cred, nil
}

// Clear removes every message. It does not interrupt a message in flight.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.transcript.Log("cleared")
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) TranscriptPath() string { return s.transcript.Path() }

func newMessage(content string, isUser bool) Message {
	return Message{ID: uuid.NewString(), Content: content, IsUser: isUser, Timestamp: time.Now()}
}
