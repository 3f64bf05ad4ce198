package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/photo-verifier/pkg/client"
	"github.com/menta2k/photo-verifier/pkg/processing"
)

const (
	// DefaultURL is the OpenRouter chat-completions endpoint
	DefaultURL   = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel = "google/gemini-3-pro-preview"

	appReferer = "https://github.com/menta2k/photo-verifier"
	appTitle   = "Photo Verifier"
)

// ErrMissingAPIKey is returned before any request when no key is configured
var ErrMissingAPIKey = errors.New("缺少 OPENROUTER_API_KEY")

// Client talks to an OpenAI-compatible chat-completions endpoint
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// OpenAI-compatible message format
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string or []ContentPart
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// NewClient creates a client for the given endpoint; an empty url means OpenRouter
func NewClient(endpoint, apiKey string) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &Client{
		url:    strings.TrimSuffix(endpoint, "/"),
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Name implements client.ChatClient
func (c *Client) Name() string { return "openrouter" }

// Complete sends one system+user turn with an inline image and returns the text reply
func (c *Client) Complete(ctx context.Context, req client.ChatRequest) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	content := []ContentPart{{Type: "text", Text: req.UserText}}
	if len(req.Image) > 0 {
		mime := req.MIME
		if mime == "" {
			mime = "image/jpeg"
		}
		content = append(content, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: processing.DataURL(mime, req.Image)},
		})
	}

	messages := make([]Message, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: content})

	body, err := c.sendRequest(ctx, ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		Stream:      false,
	})
	if err != nil {
		return "", err
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", client.NewEmptyResponseError(body)
	}
	if len(resp.Choices) == 0 {
		return "", client.NewEmptyResponseError(body)
	}

	text := messageText(resp.Choices[0].Message.Content)
	if strings.TrimSpace(text) == "" {
		return "", client.NewEmptyResponseError(body)
	}
	return text, nil
}

// messageText extracts text from string or array-of-parts content
func messageText(content interface{}) string {
	switch v := content.(type) {
	case string:
		return v
	case []interface{}:
		var parts []string
		for _, item := range v {
			if partMap, ok := item.(map[string]interface{}); ok {
				if text, ok := partMap["text"].(string); ok && text != "" {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, "")
	}
	return ""
}

func (c *Client) sendRequest(ctx context.Context, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", appReferer)
	req.Header.Set("X-Title", appTitle)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, client.NewHTTPError(resp.StatusCode, body)
	}
	return body, nil
}
