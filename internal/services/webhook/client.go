package webhook

import (
	"context"
	"fmt"
)

// Client routes a delivery to the provider named by the endpoint.
type Client struct {
	providers map[string]Provider
}

// NewClient wires the built-in providers.
func NewClient(config *ClientConfig) *Client {
	return NewClientWithProviders(map[string]Provider{
		ProviderWebhook: NewHTTPProvider(config),
		ProviderOpenAI:  NewOpenAIProvider(config),
	})
}

// NewClientWithProviders builds a Client over an explicit provider table.
func NewClientWithProviders(providers map[string]Provider) *Client {
	copied := make(map[string]Provider, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &Client{providers: copied}
}

// Deliver sends req through the provider the endpoint names.
func (c *Client) Deliver(ctx context.Context, endpoint EndpointConfig, req Request) (string, error) {
	p, ok := c.providers[endpoint.provider()]
	if !ok {
		return "", &WebhookError{Type: ErrTypeConfig, Message: fmt.Sprintf("no provider %q", endpoint.provider())}
	}
	return p.Deliver(ctx, endpoint, req)
}
