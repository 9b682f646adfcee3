// File: internal/services/webhook/errors.go
package webhook

import "fmt"

type ErrorType string

const (
	ErrTypeConfig    ErrorType = "CONFIG"
	ErrTypeNetwork   ErrorType = "NETWORK"
	ErrTypeProvider  ErrorType = "PROVIDER"
	ErrTypeMalformed ErrorType = "MALFORMED"
)

type WebhookError struct {
	Type    ErrorType
	Code    int
	Message string
	Cause   error
}

func (e *WebhookError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Webhook %s error: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("Webhook %s error: %s", e.Type, e.Message)
}

func (e *WebhookError) Unwrap() error {
	return e.Cause
}
