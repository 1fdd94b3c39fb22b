package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/spigell/hyresense/internal/ai"
)

const (
	// Provider is the name reported in logs and records.
	Provider     = "openai"
	defaultModel = "gpt-4o-mini"
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Client performs single chat-completion attempts against an OpenAI compatible API.
type Client struct {
	chat      chatCompleter
	modelName string
}

// NewClient creates a Client. baseURL may be empty to use the public endpoint.
func NewClient(apiKey, baseURL, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return newClient(goopenai.NewClientWithConfig(cfg), model), nil
}

func newClient(chat chatCompleter, model string) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Client{chat: chat, modelName: model}
}

// Complete sends one chat completion and returns the first choice content.
func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	if c == nil || c.chat == nil {
		return "", errors.New("openai client is not initialized")
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})

	// the request omits a zero temperature and the API would then apply its own default
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.chat.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.modelName,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxOutputTokens,
	})
	if err != nil {
		return "", classify(fmt.Errorf("create chat completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", ai.ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) Provider() string { return Provider }

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}

func classify(err error) error {
	code := 0

	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	default:
		return err
	}

	switch code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return ai.Permanent(err)
	default:
		return err
	}
}
