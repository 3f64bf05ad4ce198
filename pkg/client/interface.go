package client

import (
	"context"
	"errors"
	"fmt"
)

// maxErrorBody bounds how much of a remote body is kept on errors
const maxErrorBody = 500

// ChatRequest is a single multimodal turn: system prompt, user text and one image
type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserText     string
	Image        []byte
	MIME         string
	Temperature  float64
}

// ChatClient is a remote multimodal backend
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Name() string
}

// ErrEmptyResponse is matched by EmptyResponseError
var ErrEmptyResponse = errors.New("empty response")

// HTTPError is returned when the backend answers with a non-2xx status
type HTTPError struct {
	StatusCode int
	Body       string
}

// NewHTTPError builds an HTTPError with a truncated body
func NewHTTPError(status int, body []byte) *HTTPError {
	return &HTTPError{StatusCode: status, Body: Truncate(string(body), maxErrorBody)}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// EmptyResponseError is returned when the backend answered without text content
type EmptyResponseError struct {
	Body string
}

// NewEmptyResponseError builds an EmptyResponseError with a truncated body
func NewEmptyResponseError(body []byte) *EmptyResponseError {
	return &EmptyResponseError{Body: Truncate(string(body), maxErrorBody)}
}

func (e *EmptyResponseError) Error() string { return "empty response" }

// Is lets errors.Is match ErrEmptyResponse
func (e *EmptyResponseError) Is(target error) bool { return target == ErrEmptyResponse }

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
