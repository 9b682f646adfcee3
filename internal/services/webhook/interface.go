package webhook

import (
	"context"

	"github.com/iyunix/fios-chat/internal/domain"
)

// Request is the payload sent for one user message.
type Request struct {
	ChatID   string          `json:"chatId"`
	Message  string          `json:"message"`
	Category domain.Category `json:"category"`
}

// Provider delivers a message to an enabled endpoint and returns the reply text.
type Provider interface {
	Deliver(ctx context.Context, endpoint EndpointConfig, req Request) (string, error)
}
