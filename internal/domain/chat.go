// File: internal/domain/chat.go
package domain

import (
	"time"
	"unicode/utf8"
)

// PlaceholderTitle is the title every chat starts with.
const PlaceholderTitle = "Nova conversa"

// MaxTitleLength is the number of characters kept when a chat is titled from its first message.
const MaxTitleLength = 50

// Chat represents a single conversation thread scoped to one category.
type Chat struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// Renamed is set once the user picks a title; automatic titling never runs afterwards.
	Renamed bool `json:"renamed,omitempty"`
}

// Clone returns a copy whose message slice does not alias the receiver's.
func (c Chat) Clone() Chat {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	c.Messages = msgs
	return c
}

// TitleFromContent derives a chat title from the first user message.
func TitleFromContent(content string) string {
	if utf8.RuneCountInString(content) <= MaxTitleLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:MaxTitleLength]) + "..."
}
