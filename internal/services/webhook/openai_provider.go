// File: internal/services/webhook/openai_provider.go
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider answers through any OpenAI-compatible chat completion API.
// The endpoint URL is used as the base URL when set.
type OpenAIProvider struct {
	config     *ClientConfig
	httpClient *http.Client
}

func NewOpenAIProvider(config *ClientConfig) *OpenAIProvider {
	return &OpenAIProvider{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func (p *OpenAIProvider) clientFor(endpoint EndpointConfig) *openai.Client {
	cfg := openai.DefaultConfig(p.config.OpenAIAPIKey)
	if endpoint.URL != "" {
		cfg.BaseURL = endpoint.URL
	}
	cfg.HTTPClient = p.httpClient
	return openai.NewClientWithConfig(cfg)
}

func (p *OpenAIProvider) Deliver(ctx context.Context, endpoint EndpointConfig, req Request) (string, error) {
	model := endpoint.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	resp, err := p.clientFor(endpoint).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Você é o assistente da área %s da Fios Tecnologia. Responda em português.", endpoint.DisplayName),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Message,
			},
		},
		User: req.ChatID,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &WebhookError{Type: ErrTypeProvider, Code: apiErr.HTTPStatusCode, Message: apiErr.Message, Cause: err}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &WebhookError{Type: ErrTypeProvider, Code: reqErr.HTTPStatusCode, Message: "completion request rejected", Cause: err}
		}
		return "", &WebhookError{Type: ErrTypeNetwork, Message: "completion request failed", Cause: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &WebhookError{Type: ErrTypeMalformed, Message: "empty completion response"}
	}
	return resp.Choices[0].Message.Content, nil
}
