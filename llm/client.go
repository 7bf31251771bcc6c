// Package llm генерирует ответы чата виджета через OpenAI-совместимый API
// (OpenAI, LM Studio, Ollama и т.п.).
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tech-monarch/schepen-kring-sub003/config"
)

// Completer возвращает текст ответа модели на переписку.
type Completer interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// ClientConfig: параметры подключения к LLM API.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client: Completer поверх go-openai.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient создаёт клиента. Пустой BaseURL означает api.openai.com.
func NewClient(cfg ClientConfig) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{
		client: openai.NewClientWithConfig(oc),
		model:  model,
	}
}

// Complete отправляет переписку в LLM API и возвращает текст первого варианта ответа.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: config.DefaultTemperature,
		MaxTokens:   config.MaxReplyTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("LLM API error: status %d: %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("LLM API request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
