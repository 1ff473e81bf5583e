package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/homefix-vision/internal/domain/diagnosis"
)

const (
	defaultModel     = "gpt-4.1-mini"
	defaultMaxTokens = 2048
)

type Client struct {
	api       *openai.Client
	Model     string
	MaxTokens int
	// JSONMode asks the provider for a JSON object response. Extraction still runs.
	JSONMode bool
}

func NewClient(apiKey, model string) *Client {
	return NewClientWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewClientWithConfig allows pointing the client at a different base URL.
func NewClientWithConfig(cfg openai.ClientConfig, model string) *Client {
	return &Client{api: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Name() string { return "openai" }

func (c *Client) ModelName() string {
	if c.Model == "" {
		return defaultModel
	}
	return c.Model
}

// Complete sends the prompt once; the provider is never retried.
func (c *Client) Complete(ctx context.Context, p diagnosis.Prompt) (string, error) {
	model := c.ModelName()

	parts := make([]openai.ChatMessagePart, 0, len(p.Images)+1)
	parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text})
	for _, img := range p.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    img.URL,
				Detail: openai.ImageURLDetail(img.Detail),
			},
		})
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}
	if c.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	// reasoning models (o1/o3/o4/gpt-5*) reject MaxTokens
	if isReasoningModel(model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", providerError(err)
	}
	if len(resp.Choices) == 0 {
		return "", diagnosis.ModelError("empty output", errors.New("no choices in response"))
	}
	out := resp.Choices[0].Message.Content
	if strings.TrimSpace(out) == "" {
		return "", diagnosis.ModelError("empty output", nil)
	}
	return out, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// providerError keeps the status and error type the provider reported.
func providerError(err error) error {
	e := diagnosis.ModelError("openai request failed", err)

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		e.Status = apiErr.HTTPStatusCode
		e.ProviderType = apiErr.Type
		e.Detail = fmt.Sprintf("openai error (status %d)", apiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		e.Status = reqErr.HTTPStatusCode
		e.Detail = fmt.Sprintf("openai request failed (status %d)", reqErr.HTTPStatusCode)
	}
	return e
}
