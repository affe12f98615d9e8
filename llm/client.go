package llm

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
)

var (
	ErrRateLimited   = errors.New("completion endpoint rate limited")
	ErrQuotaExceeded = errors.New("completion endpoint quota exceeded")
)

// UserMessage maps a streaming failure to the text shown to the user.
// Rate-limit and quota failures get specific remediation text, everything
// else a generic one.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "The assistant is handling too many requests right now. Please wait a moment and try again."
	case errors.Is(err, ErrQuotaExceeded):
		return "The assistant's usage quota has been exhausted. Please contact your administrator."
	default:
		return "The assistant could not be reached. Please try again."
	}
}

// Message is one turn of the chat context sent to the completion endpoint
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the body of the streaming completion call
type Request struct {
	Messages       []Message `json:"messages"`
	ConversationID string    `json:"conversationId"`
}

// Client calls an OpenAI-compatible completion endpoint.
// baseURL should include the /v1 prefix, e.g. "http://localhost:8000/v1".
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewClient builds a completion client. apiKey can be empty for local models
// that do not require authentication.
func NewClient(baseURL, apiKey, model string, temperature float64) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &Client{
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(apiKey),
		model:       strings.TrimSpace(model),
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type chatRequest struct {
	Model          string    `json:"model,omitempty"`
	Messages       []Message `json:"messages"`
	Stream         bool      `json:"stream"`
	Temperature    float64   `json:"temperature,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Stream opens the completion stream and pipes its bytes through a
// StreamParser, invoking onSnapshot with the accumulated text after each
// delta. It returns the final accumulated text. The read loop stops when the
// transport closes or ctx is cancelled, so an abandoned consumer tears the
// stream down instead of leaking it.
func (c *Client) Stream(ctx context.Context, req Request, onSnapshot func(string)) (string, error) {
	if c.baseURL == "" {
		return "", errors.New("completion endpoint not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       req.Messages,
		Stream:         true,
		Temperature:    c.temperature,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	// Classify the status before any parsing: the parser never sees HTTP
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", ErrQuotaExceeded
	case resp.StatusCode >= 400:
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return "", fmt.Errorf("completion endpoint error: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("completion endpoint error: %s", resp.Status)
	}

	parser := NewStreamParser()
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, snapshot := range parser.Feed(buf[:n]) {
				if onSnapshot != nil {
					onSnapshot(snapshot)
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			if ctx.Err() != nil {
				return parser.Text(), ctx.Err()
			}
			return parser.Text(), fmt.Errorf("completion stream read: %w", readErr)
		}
	}

	return parser.Text(), nil
}

// Embed returns the embedding of text via the endpoint's /embeddings API.
// Used only to form similarity-search queries; corpus chunk embeddings are
// produced by the external ingestion pipeline.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.baseURL == "" {
		return nil, errors.New("completion endpoint not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"input": text,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, fmt.Errorf("embedding endpoint error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("embedding endpoint error: %s", resp.Status)
	}

	var embResp struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("embedding decode: %w", err)
	}
	if len(embResp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return embResp.Data[0].Embedding, nil
}
