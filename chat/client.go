// Package chat sends user messages to a hosted language model and turns every outcome
// into text that can be shown in a conversation.
//
// A Client waits for a slot on a shared RateLimiter once per message, then makes up to
// RetryPolicy.MaxAttempts transport calls. Transient failures (timeouts, unreachable hosts,
// 5xx, 429, overload) are retried with exponential backoff; anything else ends the call.
// The final failure is mapped to one fixed sentence per Category.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ibreez3/lawbot/metrics"
)

var (
	ErrBlankMessage      = errors.New("chat: message is blank")
	ErrMissingCredential = errors.New("chat: credential is empty")
)

var tracer = otel.Tracer("github.com/ibreez3/lawbot/chat")

// Client is safe for concurrent use. Only the rate limiter is shared between calls.
type Client struct {
	transport   Transport
	limiter     *RateLimiter
	policy      RetryPolicy
	system      string
	model       string
	temperature float64
	maxTokens   int
	sleep       SleepFunc
	log         *slog.Logger
}

// NewClient builds a client with its own rate limiter. Share a limiter across clients
// with WithLimiter to keep the spacing guarantee process-wide.
func NewClient(t Transport) *Client {
	return &Client{
		transport:   t,
		limiter:     NewRateLimiter(MinRequestInterval),
		policy:      DefaultRetryPolicy,
		system:      LegalSystemPrompt,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		sleep:       sleepContext,
		log:         slog.Default(),
	}
}

func (c *Client) WithLimiter(l *RateLimiter) *Client {
	if l != nil {
		c.limiter = l
	}
	return c
}

func (c *Client) WithRetryPolicy(p RetryPolicy) *Client {
	c.policy = p
	return c
}

func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.log = l
	}
	return c
}

func (c *Client) WithSystemPrompt(s string) *Client {
	if s != "" {
		c.system = s
	}
	return c
}

// WithModel sets the model and its sampling parameters. An empty model, a negative
// temperature or a non-positive maxTokens keeps the corresponding default.
func (c *Client) WithModel(model string, temperature float64, maxTokens int) *Client {
	if model != "" {
		c.model = model
	}
	if temperature >= 0 {
		c.temperature = temperature
	}
	if maxTokens > 0 {
		c.maxTokens = maxTokens
	}
	return c
}

// WithSleep replaces the backoff sleep. Intended for tests.
func (c *Client) WithSleep(fn SleepFunc) *Client {
	if fn != nil {
		c.sleep = fn
	}
	return c
}

func (c *Client) Model() string { return c.model }

func (c *Client) Temperature() float64 { return c.temperature }

// SendMessage delivers one user message and returns the assistant reply, or a Response
// whose Failure is set and whose Text is the user-facing error sentence. The returned
// error is non-nil only for invalid input or when ctx ends while waiting.
func (c *Client) SendMessage(ctx context.Context, userMessage, credential string) (*Response, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, ErrBlankMessage
	}
	if credential == "" {
		return nil, ErrMissingCredential
	}

	ctx, span := tracer.Start(ctx, "chat.SendMessage", trace.WithAttributes(
		attribute.String("chat.model", c.model),
	))
	defer span.End()

	if err := c.limiter.Acquire(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter wait aborted")
		return nil, fmt.Errorf("wait for request slot: %w", err)
	}

	req := BuildRequest(c.system, userMessage, c.model, c.temperature, c.maxTokens)
	maxAttempts := c.policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		last     *Failure
		attempts int
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		c.log.Debug("Sending chat request", "attempt", attempt, "max_attempts", maxAttempts, "model", req.Model)

		start := time.Now()
		payload, err := c.transport.Post(ctx, req, credential)
		metrics.ChatLatency.WithLabelValues(req.Model).Observe(time.Since(start).Seconds())

		if err != nil && ctx.Err() != nil {
			span.RecordError(ctx.Err())
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("send message: %w", ctx.Err())
		}
		if err == nil && (payload == nil || payload.Error == nil) {
			metrics.ChatAttempts.WithLabelValues("success").Inc()
			span.SetAttributes(attribute.Int("chat.attempts", attempt))
			resp := &Response{Text: firstChoiceText(payload), Attempts: attempt}
			if payload != nil {
				resp.Usage = payload.Usage
			}
			return resp, nil
		}

		if err != nil {
			last = newFailure(err)
		} else {
			last = upstreamFailure(payload.Error)
		}
		retryable := last.Retryable()
		span.AddEvent("attempt failed", trace.WithAttributes(
			attribute.Int("chat.attempt", attempt),
			attribute.Bool("chat.retryable", retryable),
			attribute.String("chat.error", last.Error()),
		))

		if !retryable || attempt == maxAttempts {
			if retryable {
				metrics.ChatAttempts.WithLabelValues("retryable").Inc()
			} else {
				metrics.ChatAttempts.WithLabelValues("terminal").Inc()
			}
			c.log.Warn("Chat request failed", "attempt", attempt, "max_attempts", maxAttempts, "retryable", retryable, "error", last.Error())
			break
		}

		metrics.ChatAttempts.WithLabelValues("retryable").Inc()
		metrics.ChatRetries.Inc()
		delay := c.policy.Delay(attempt)
		c.log.Warn("Chat request failed, retrying", "attempt", attempt, "max_attempts", maxAttempts, "delay", delay, "error", last.Error())
		if err := c.sleep(ctx, delay); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cancelled during backoff")
			return nil, fmt.Errorf("backoff before attempt %d: %w", attempt+1, err)
		}
	}

	last.Category = last.categorize()
	metrics.ChatFailures.WithLabelValues(last.Category.String()).Inc()
	span.SetAttributes(
		attribute.Int("chat.attempts", attempts),
		attribute.String("chat.failure_category", last.Category.String()),
	)
	span.SetStatus(codes.Error, last.Category.String())
	c.log.Error("Chat message failed", "attempts", attempts, "category", last.Category.String(), "error", last.Error())

	return &Response{
		Text:     last.UserMessage(),
		Attempts: attempts,
		Failure:  last,
	}, nil
}

func firstChoiceText(p *Payload) string {
	if p == nil || len(p.Choices) == 0 {
		return NoChoicesText
	}
	return p.Choices[0].Text
}
