package narrative

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// Completer turns a prompt into a refined text. Implementations talk to a
// language model service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatConfig configures a ChatCompleter.
type ChatConfig struct {
	// URL is the full chat completions endpoint.
	URL         string        `yaml:"api_url" validate:"required,url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model_name" validate:"required"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatCompleter calls an OpenAI compatible chat completions endpoint.
type ChatCompleter struct {
	client *resty.Client
	config ChatConfig
}

// NewChatCompleter creates a completer. A zero timeout defaults to one minute.
func NewChatCompleter(config ChatConfig) *ChatCompleter {
	if config.Timeout == 0 {
		config.Timeout = time.Minute
	}

	client := resty.New().
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json")

	if config.APIKey != "" {
		client.SetAuthToken(config.APIKey)
	}

	return &ChatCompleter{client: client, config: config}
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *ChatCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	var out chatResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       c.config.Model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: c.config.Temperature,
		}).
		SetResult(&out).
		Post(c.config.URL)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeCompletionFailed, "completion request failed", err)
	}

	if resp.IsError() {
		return "", errors.Newf(errors.ErrCodeCompletionFailed,
			"completion request returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	if len(out.Choices) == 0 {
		return "", errors.New(errors.ErrCodeCompletionFailed, "completion response has no choices")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
