package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dhcgn/llm-assist/model"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	DefaultMailModel  = "llama3-8b-8192"
	DefaultNotesModel = "llama3-70b-8192"

	DefaultMailTemperature  = 0.3
	DefaultNotesTemperature = 0.7
)

type Options struct {
	Model       string
	Temperature float32
}

// chatAPI is the part of *openai.Client the completion client needs.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client runs stateless single-turn completions. No history is kept between calls.
type Client struct {
	api    chatAPI
	opts   Options
	logger *slog.Logger
}

type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a client for an OpenAI-compatible endpoint.
func NewClient(cfg Config, opts Options, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, model.NewError(model.KindConfiguration, "llm client", model.ErrMissingCredential)
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		apiCfg.HTTPClient = cfg.HTTPClient
	}
	return newClient(openai.NewClientWithConfig(apiCfg), opts, logger), nil
}

func newClient(api chatAPI, opts Options, logger *slog.Logger) *Client {
	if opts.Model == "" {
		opts.Model = DefaultMailModel
	}
	return &Client{api: api, opts: opts, logger: logger}
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", model.NewError(model.KindValidation, "complete", model.ErrEmptyPrompt)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		if c.logger != nil {
			status := 0
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) {
				status = apiErr.HTTPStatusCode
			}
			c.logger.Warn("chat completion failed", "model", c.opts.Model, "status", status, "err", err)
		}
		return "", model.NewError(model.KindGeneration, "complete", fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", model.NewError(model.KindGeneration, "complete", errors.New("no choices returned"))
	}

	if c.logger != nil {
		c.logger.Debug("chat completion", "model", c.opts.Model, "prompt_chars", len(prompt), "completion_tokens", resp.Usage.CompletionTokens)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.opts.Model
}
