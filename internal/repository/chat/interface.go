package chat

import (
	"context"

	"github.com/iyunix/fios-chat/internal/domain"
)

// ChatRepository persists the whole chat collection as one snapshot.
type ChatRepository interface {
	// Load returns the stored collection in display order. ErrNotFound means
	// nothing has been saved yet.
	Load(ctx context.Context) ([]domain.Chat, error)
	// Save replaces the stored snapshot with chats.
	Save(ctx context.Context, chats []domain.Chat) error
}
