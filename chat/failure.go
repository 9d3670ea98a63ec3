package chat

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Category is the user-facing class of a final failure.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryServiceBusy
	CategoryRateLimited
	CategoryServerOverloaded
	CategoryTimeout
	CategoryConnectionFailure
	CategoryInvalidCredential
	CategoryAccessDenied
	CategoryInvalidRequest
	CategoryUpstreamError
)

var categoryNames = map[Category]string{
	CategoryUnknown:           "unknown",
	CategoryServiceBusy:       "service_busy",
	CategoryRateLimited:       "rate_limited",
	CategoryServerOverloaded:  "server_overloaded",
	CategoryTimeout:           "timeout",
	CategoryConnectionFailure: "connection_failure",
	CategoryInvalidCredential: "invalid_credential",
	CategoryAccessDenied:      "access_denied",
	CategoryInvalidRequest:    "invalid_request",
	CategoryUpstreamError:     "upstream_error",
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "unknown"
}

// Categories lists every category in mapping order.
func Categories() []Category {
	return []Category{
		CategoryServiceBusy,
		CategoryRateLimited,
		CategoryServerOverloaded,
		CategoryTimeout,
		CategoryConnectionFailure,
		CategoryInvalidCredential,
		CategoryAccessDenied,
		CategoryInvalidRequest,
		CategoryUpstreamError,
		CategoryUnknown,
	}
}

const (
	NoChoicesText        = "Sorry, I couldn't generate a response."
	upstreamErrorPrefix  = "OpenRouter API Error: "
	unexpectedFailureMsg = "Sorry, I encountered an unexpected error. Please try again later."
)

var categoryText = map[Category]string{
	CategoryServiceBusy:       "The AI service is temporarily busy. Please try again in a few minutes.",
	CategoryRateLimited:       "Rate limit exceeded. Please wait a moment before trying again.",
	CategoryServerOverloaded:  "The AI model is currently overloaded. Please try again in 5-10 minutes.",
	CategoryTimeout:           "Request timed out. Please check your internet connection and try again.",
	CategoryConnectionFailure: "Connection error. Please check your internet connection and try again.",
	CategoryInvalidCredential: "Invalid API key. Please check your OpenRouter API key.",
	CategoryAccessDenied:      "Access denied. Please check your API key and permissions.",
	CategoryInvalidRequest:    "Invalid request. Please check your input and try again.",
	CategoryUpstreamError:     upstreamErrorPrefix + "{message}",
	CategoryUnknown:           unexpectedFailureMsg,
}

// Text returns the fixed sentence for the category. For CategoryUpstreamError the
// upstream message is substituted by Failure.UserMessage; here it stays a placeholder.
func (c Category) Text() string {
	if t, ok := categoryText[c]; ok {
		return t
	}
	return unexpectedFailureMsg
}

// Transient reports whether failures of this category are normally retried before they
// surface. Upstream errors are transient only when their message carries a retry marker.
func (c Category) Transient() bool {
	switch c {
	case CategoryServiceBusy, CategoryRateLimited, CategoryServerOverloaded,
		CategoryTimeout, CategoryConnectionFailure:
		return true
	}
	return false
}

// Failure describes one failed attempt.
type Failure struct {
	Category   Category
	Message    string
	StatusCode int
	// Upstream is set when the API answered with an embedded error object.
	Upstream bool
	Err      error
}

func (f *Failure) Error() string {
	if f.StatusCode > 0 && !strings.Contains(f.Message, strconv.Itoa(f.StatusCode)) {
		return fmt.Sprintf("%s (status %d)", f.Message, f.StatusCode)
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// Retryable reports whether another attempt may succeed. Checks run in a fixed order
// and the first match wins.
func (f *Failure) Retryable() bool {
	if isNetworkTimeout(f.Err) || isUnknownHost(f.Err) {
		return true
	}
	msg := strings.ToLower(f.Message)
	if strings.Contains(msg, "timeout") {
		return true
	}
	for _, code := range []int{500, 502, 503, 504, 429} {
		if f.hasStatus(code) {
			return true
		}
	}
	for _, s := range []string{"overloaded", "busy", "temporarily", "unavailable", "connection", "network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// UserMessage maps the failure to the sentence shown to the end user.
func (f *Failure) UserMessage() string {
	if f.Category == CategoryUpstreamError {
		return upstreamErrorPrefix + f.Message
	}
	return f.Category.Text()
}

// categorize assigns the final-failure category. Order matters: a message can contain
// several markers at once.
func (f *Failure) categorize() Category {
	msg := strings.ToLower(f.Message)
	switch {
	case f.hasStatus(503):
		return CategoryServiceBusy
	case f.hasStatus(429):
		return CategoryRateLimited
	case strings.Contains(msg, "overloaded"):
		return CategoryServerOverloaded
	case strings.Contains(msg, "timeout"):
		return CategoryTimeout
	case strings.Contains(msg, "connection"):
		return CategoryConnectionFailure
	case f.hasStatus(401):
		return CategoryInvalidCredential
	case f.hasStatus(403):
		return CategoryAccessDenied
	case f.hasStatus(400):
		return CategoryInvalidRequest
	case f.Upstream:
		return CategoryUpstreamError
	default:
		return CategoryUnknown
	}
}

// hasStatus matches either the structured status code or the code appearing in the message,
// since many transports only report the status inside their error text.
func (f *Failure) hasStatus(code int) bool {
	return f.StatusCode == code || strings.Contains(f.Message, strconv.Itoa(code))
}

// newFailure converts a transport error into a Failure.
func newFailure(err error) *Failure {
	f := &Failure{Message: err.Error(), Err: err}
	var te *TransportError
	if errors.As(err, &te) {
		f.StatusCode = te.StatusCode
	}
	if isNetworkTimeout(err) && !strings.Contains(strings.ToLower(f.Message), "timeout") {
		f.Message = "timeout: " + f.Message
	}
	return f
}

func upstreamFailure(e *APIError) *Failure {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return &Failure{Message: msg, Upstream: true}
}

func isNetworkTimeout(err error) bool {
	var ne net.Error
	return err != nil && errors.As(err, &ne) && ne.Timeout()
}

func isUnknownHost(err error) bool {
	var de *net.DNSError
	return err != nil && errors.As(err, &de) && de.IsNotFound
}
