package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/photo-verifier/pkg/client"
)

// DefaultURL is the local Ollama server
const DefaultURL = "http://localhost:11434"

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultURL
	}
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", ollamaURL)
	}

	// Drop any path like /api/chat; the SDK adds its own
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	return &Client{client: api.NewClient(baseURL, &http.Client{Timeout: 5 * time.Minute})}, nil
}

// Name implements client.ChatClient
func (c *Client) Name() string { return "ollama" }

// Complete implements client.ChatClient
func (c *Client) Complete(ctx context.Context, req client.ChatRequest) (string, error) {
	messages := make([]api.Message, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemPrompt})
	}
	user := api.Message{Role: "user", Content: req.UserText}
	if len(req.Image) > 0 {
		user.Images = []api.ImageData{api.ImageData(req.Image)}
	}
	messages = append(messages, user)

	streamFalse := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &streamFalse,
		Format:   []byte(`"json"`),
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}

	var sb strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", client.NewHTTPError(statusErr.StatusCode, []byte(statusErr.ErrorMessage))
		}
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", client.NewEmptyResponseError(nil)
	}
	return text, nil
}
