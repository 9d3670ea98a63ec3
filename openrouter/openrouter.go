// Package openrouter implements chat.Transport against the OpenRouter chat completions
// endpoint using the OpenAI Go SDK, which speaks the same wire format.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/tidwall/gjson"

	"github.com/ibreez3/lawbot/chat"
)

const (
	DefaultBaseURL        = "https://openrouter.ai/api/v1"
	DefaultReferer        = "https://lawbot.app"
	DefaultTitle          = "LawBot"
	DefaultConnectTimeout = 30 * time.Second
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
)

type Config struct {
	BaseURL        string
	Referer        string
	Title          string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// HTTPClient overrides the client built from the timeouts above.
	HTTPClient *http.Client
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Referer == "" {
		c.Referer = DefaultReferer
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	return c
}

type Transport struct {
	cli openai.Client
}

var _ chat.Transport = (*Transport)(nil)

func New(cfg Config) *Transport {
	cfg = cfg.withDefaults()
	hc := cfg.HTTPClient
	if hc == nil {
		hc = newHTTPClient(cfg)
	}
	cli := openai.NewClient(
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(hc),
		option.WithHeader("HTTP-Referer", cfg.Referer),
		option.WithHeader("X-Title", cfg.Title),
		// chat.Client owns retries and backoff.
		option.WithMaxRetries(0),
	)
	return &Transport{cli: cli}
}

// newHTTPClient applies the connect and read timeouts at the transport level. net/http has
// no per-write deadline, so the write budget is folded into the overall client timeout.
func newHTTPClient(cfg Config) *http.Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: cfg.ConnectTimeout + cfg.WriteTimeout + cfg.ReadTimeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   cfg.ConnectTimeout,
			ResponseHeaderTimeout: cfg.ReadTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Post sends one chat completion request authorised with credential.
func (t *Transport) Post(ctx context.Context, req chat.Request, credential string) (*chat.Payload, error) {
	params := openai.ChatCompletionNewParams{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserMessage),
		},
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	}
	res, err := t.cli.Chat.Completions.New(ctx, params, option.WithAPIKey(credential))
	if err != nil {
		return nil, toTransportError(ctx, err)
	}

	p := &chat.Payload{
		Usage: chat.Usage{
			PromptTokens:     int(res.Usage.PromptTokens),
			CompletionTokens: int(res.Usage.CompletionTokens),
			TotalTokens:      int(res.Usage.TotalTokens),
		},
	}
	for _, ch := range res.Choices {
		p.Choices = append(p.Choices, chat.Choice{
			Text:         ch.Message.Content,
			FinishReason: string(ch.FinishReason),
		})
	}
	p.Error = embeddedError(res.RawJSON())
	return p, nil
}

// embeddedError finds an error object the API placed inside a 2xx body.
func embeddedError(raw string) *chat.APIError {
	e := gjson.Get(raw, "error")
	if !e.Exists() || e.Type == gjson.Null {
		return nil
	}
	if e.Type == gjson.String {
		return &chat.APIError{Message: e.String()}
	}
	return &chat.APIError{
		Message: e.Get("message").String(),
		Type:    e.Get("type").String(),
		Code:    e.Get("code").String(),
	}
}

func toTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		msg := apiErr.Message
		if msg == "" {
			msg = bodyMessage(apiErr.Response)
		}
		text := fmt.Sprintf("%d %s", code, http.StatusText(code))
		if msg != "" {
			text += ": " + msg
		}
		return &chat.TransportError{StatusCode: code, Message: text, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return &chat.TransportError{Message: "unknown host " + dnsErr.Name + ": " + err.Error(), Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &chat.TransportError{Message: "timeout: " + err.Error(), Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &chat.TransportError{Message: "connection error: " + err.Error(), Err: err}
	}
	return &chat.TransportError{Message: err.Error(), Err: err}
}

func bodyMessage(res *http.Response) string {
	if res == nil || res.Body == nil {
		return ""
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil || len(b) == 0 {
		return ""
	}
	for _, path := range []string{"error.message", "message", "error"} {
		if v := gjson.GetBytes(b, path); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}
