// File: internal/services/webhook/http_provider.go
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const maxErrorBody = 512

// HTTPProvider posts the message as JSON to the endpoint URL and expects
// {"response": "..."} back.
type HTTPProvider struct {
	client *http.Client
}

func NewHTTPProvider(config *ClientConfig) *HTTPProvider {
	return &HTTPProvider{
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type replyBody struct {
	Response *string `json:"response"`
}

func (p *HTTPProvider) Deliver(ctx context.Context, endpoint EndpointConfig, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", &WebhookError{Type: ErrTypeConfig, Message: "invalid payload", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return "", &WebhookError{Type: ErrTypeConfig, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &WebhookError{Type: ErrTypeNetwork, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	return p.handleResponse(resp)
}

func (p *HTTPProvider) handleResponse(resp *http.Response) (string, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &WebhookError{
			Type:    ErrTypeProvider,
			Code:    resp.StatusCode,
			Message: string(responseBody),
		}
	}

	var reply replyBody
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", &WebhookError{Type: ErrTypeMalformed, Code: resp.StatusCode, Message: "response is not valid JSON", Cause: err}
	}
	if reply.Response == nil {
		return "", &WebhookError{Type: ErrTypeMalformed, Code: resp.StatusCode, Message: "response field missing"}
	}
	return *reply.Response, nil
}
