// File: internal/services/chat/errors.go
package chat

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeNoActiveChat ErrorType = "NO_ACTIVE_CHAT"
	ErrTypeDelivery     ErrorType = "DELIVERY"
	ErrTypePersistence  ErrorType = "PERSISTENCE"
	ErrTypeValidation   ErrorType = "VALIDATION"
)

// ChatError is the error type surfaced by the chat store and the dispatcher.
type ChatError struct {
	Type      ErrorType
	Operation string
	Message   string
	ChatID    string
	Code      int // HTTP status from a webhook, when known
	Cause     error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Chat %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Chat %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Cause
}

func NewNoActiveChatError(operation string) *ChatError {
	return &ChatError{Type: ErrTypeNoActiveChat, Operation: operation, Message: "no chat selected"}
}

func NewDeliveryError(operation, chatID, msg string, code int, cause error) *ChatError {
	return &ChatError{Type: ErrTypeDelivery, Operation: operation, Message: msg, ChatID: chatID, Code: code, Cause: cause}
}

func NewPersistenceError(operation, msg string, cause error) *ChatError {
	return &ChatError{Type: ErrTypePersistence, Operation: operation, Message: msg, Cause: cause}
}

func NewValidationError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

// IsType reports whether err wraps a *ChatError of type t.
func IsType(err error, t ErrorType) bool {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr.Type == t
	}
	return false
}
