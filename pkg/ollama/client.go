package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/memorygarden/drawing-analyzer/pkg/client"
)

// DefaultTimeout bounds a single chat call when the caller's context carries
// no deadline of its own.
const DefaultTimeout = 120 * time.Second

// Client wraps the Ollama API client behind the ChatClient interface.
type Client struct {
	client  *api.Client
	timeout time.Duration
}

// NewClient creates a new Ollama client for the given server URL. A
// non-positive timeout falls back to DefaultTimeout.
func NewClient(ollamaURL string, timeout time.Duration) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Base URL only; paths like /api/chat are added by the SDK.
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		timeout: timeout,
	}, nil
}

// SupportsVision reports that Ollama chat accepts inline images.
func (c *Client) SupportsVision() bool { return true }

// Chat sends one system+user exchange and returns the model's full reply.
func (c *Client) Chat(ctx context.Context, req client.ChatRequest) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []api.Message{}
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}

	userMsg := api.Message{Role: "user", Content: req.Prompt}
	if req.ImageB64 != "" {
		imgBytes, err := base64.StdEncoding.DecodeString(req.ImageB64)
		if err != nil {
			return "", fmt.Errorf("failed to decode base64 image: %w", err)
		}
		userMsg.Images = []api.ImageData{api.ImageData(imgBytes)}
	}
	messages = append(messages, userMsg)

	options := map[string]any{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	streamFalse := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &streamFalse,
		Options:  options,
	}

	var responseContent string
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	if responseContent == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return responseContent, nil
}
