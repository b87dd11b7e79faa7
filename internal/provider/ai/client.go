package ai

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

const (
	defaultTimeout = 60 * time.Second
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	// The provider degrades on large prompts; callers must chunk.
	maxBatchSize = 25
)

// ErrTooManyItems is returned when a single Categorize call exceeds the
// batch limit. This is a caller bug, not a transient provider failure.
var ErrTooManyItems = errors.New("too many items in batch")

// Item is one transaction description submitted for categorization.
type Item struct {
	Ref         string `json:"ref"`
	Description string `json:"description"`
	Amount      string `json:"amount,omitempty"`
}

// Categorization is the provider's label for one submitted item.
type Categorization struct {
	Ref      string `json:"ref"`
	Category string `json:"category"`
}

// Client is a thin chat-completions wrapper for transaction categorization.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates a new AI provider client
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

const categorizeSystemPrompt = `You are a personal finance assistant. Categorize each transaction into one of:
Income, Groceries, Dining, Transport, Housing, Utilities, Health, Shopping, Entertainment, Transfers, Fees, Other.
Respond with a JSON object {"categorizations": [{"ref": "...", "category": "..."}]} covering every input item.`

// Categorize labels a batch of transaction descriptions. Batches are capped
// at 25 items; larger inputs return ErrTooManyItems without a request.
func (c *Client) Categorize(ctx context.Context, items []Item) ([]Categorization, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if len(items) > maxBatchSize {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyItems, len(items), maxBatchSize)
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}

	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: categorizeSystemPrompt},
		{Role: "user", Content: string(payload)},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Categorizations []Categorization `json:"categorizations"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("failed to decode categorizations: %w", err)
	}
	return result.Categorizations, nil
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	reqBody := chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    0,
		ResponseFormat: map[string]any{"type": "json_object"},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call AI provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI provider returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("AI provider error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("AI provider returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
