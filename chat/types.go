package chat

import (
	"context"
	"fmt"
)

// Request is built fresh for every SendMessage call and never mutated.
type Request struct {
	SystemPrompt string
	UserMessage  string
	Model        string
	Temperature  float64
	MaxTokens    int
}

// Choice is one completion candidate returned by the model.
type Choice struct {
	Text         string
	FinishReason string
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// APIError is an error object the upstream embedded in an otherwise successful body.
type APIError struct {
	Message string
	Type    string
	Code    string
}

// Payload is a parsed chat completion body.
type Payload struct {
	Choices []Choice
	Usage   Usage
	Error   *APIError
}

// Transport delivers a Request to the model. The credential travels as a bearer token.
// Implementations return *TransportError for failures with an HTTP status and may return
// any other error for network-level failures.
type Transport interface {
	Post(ctx context.Context, req Request, credential string) (*Payload, error)
}

// TransportError is a failed exchange with the upstream API.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 && e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return e.Message
}

func (e *TransportError) Unwrap() error { return e.Err }

// Response is the outcome of SendMessage. Text is always presentable to the end user;
// Failure is non-nil when Text is an error sentence rather than an assistant reply.
type Response struct {
	Text     string
	Usage    Usage
	Attempts int
	Failure  *Failure
}

func (r *Response) IsError() bool { return r.Failure != nil }
