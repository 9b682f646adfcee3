// File: internal/repository/chat/chat_repository.go
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iyunix/fios-chat/internal/domain"
)

// DefaultStorageKey is the key the chat snapshot lives under.
const DefaultStorageKey = "fios-chats"

var ErrNotFound = errors.New("chat snapshot not found")

// kvEntry is a single durable key holding a JSON document.
type kvEntry struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

// Migrate creates the key/value table used by the repository.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&kvEntry{})
}

type gormChatRepository struct {
	db  *gorm.DB
	key string
}

// NewChatRepository stores the chat collection under key. An empty key falls
// back to DefaultStorageKey.
func NewChatRepository(db *gorm.DB, key string) ChatRepository {
	if strings.TrimSpace(key) == "" {
		key = DefaultStorageKey
	}
	return &gormChatRepository{db: db, key: key}
}

func (r *gormChatRepository) Load(ctx context.Context) ([]domain.Chat, error) {
	// Find instead of First: a missing key is the normal first start and
	// must not be logged as a query error.
	var entry kvEntry
	result := r.db.WithContext(ctx).Where(&kvEntry{Key: r.key}).Limit(1).Find(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", r.key, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	chats, err := decodeChats([]byte(entry.Value))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", r.key, err)
	}
	return chats, nil
}

func (r *gormChatRepository) Save(ctx context.Context, chats []domain.Chat) error {
	data, err := encodeChats(chats)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", r.key, err)
	}

	entry := kvEntry{Key: r.key, Value: string(data), UpdatedAt: time.Now()}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w", r.key, err)
	}
	return nil
}

func encodeChats(chats []domain.Chat) ([]byte, error) {
	if chats == nil {
		chats = []domain.Chat{}
	}
	return json.Marshal(chats)
}

// decodeChats parses a snapshot. time.Time fields decode from RFC3339Nano, so
// timestamps come back as instants rather than strings.
func decodeChats(data []byte) ([]domain.Chat, error) {
	var chats []domain.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, err
	}
	for i := range chats {
		if chats[i].ID == "" {
			return nil, fmt.Errorf("chat at index %d has no id", i)
		}
		if chats[i].Messages == nil {
			chats[i].Messages = []domain.Message{}
		}
	}
	return chats, nil
}
