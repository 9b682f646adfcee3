package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iyunix/fios-chat/internal/domain"
	chatrepo "github.com/iyunix/fios-chat/internal/repository/chat"
)

const saveTimeout = 5 * time.Second

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator used for chats and messages.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Store owns every chat of the session plus the active chat pointer. Each
// mutation writes a full snapshot through the repository before returning.
//
// Store is safe for use by multiple goroutines, but it does not order two
// sends racing on the same chat: that is left to the caller (see
// dispatch.Dispatcher.Loading).
type Store struct {
	mu       sync.Mutex
	repo     chatrepo.ChatRepository
	logger   Logger
	now      func() time.Time
	newID    func() string
	chats    []domain.Chat // most recent first
	activeID string
}

// NewStore hydrates a store from repo. A missing or unreadable snapshot is
// logged and the store starts empty.
func NewStore(ctx context.Context, repo chatrepo.ChatRepository, logger Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
		chats:  []domain.Chat{},
	}
	for _, opt := range opts {
		opt(s)
	}

	chats, err := repo.Load(ctx)
	switch {
	case errors.Is(err, chatrepo.ErrNotFound):
		s.logger.Debug("no saved chats, starting empty")
	case err != nil:
		s.logger.Error("failed to load chats, starting empty",
			"error", NewPersistenceError("load", "could not hydrate chats", err))
	default:
		s.chats = chats
		s.logger.Info("chats loaded", "count", len(chats))
	}
	return s
}

// CreateChat starts a new chat in category, puts it first and makes it active.
func (s *Store) CreateChat(category domain.Category) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := domain.Chat{
		ID:        s.newID(),
		Category:  category,
		Title:     domain.PlaceholderTitle,
		Messages:  []domain.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.chats = append([]domain.Chat{c}, s.chats...)
	s.activeID = c.ID
	s.save("create_chat")

	s.logger.Info("chat created", "chat_id", c.ID, "category", category)
	return c.ID
}

// AddMessage appends a message to chatID and reports whether it landed.
//
// An unknown chatID is not an error: replies routinely arrive after their chat
// was deleted, so the call is a silent no-op that returns false. Do not turn
// this into a failure.
func (s *Store) AddMessage(chatID, content string, role domain.Role) (domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(chatID)
	if i < 0 {
		s.logger.Debug("dropping message for unknown chat", "chat_id", chatID, "role", role)
		return domain.Message{}, false
	}

	now := s.now()
	msg := domain.Message{
		ID:        s.newID(),
		Content:   content,
		Role:      role,
		Timestamp: now,
	}

	c := &s.chats[i]
	if len(c.Messages) == 0 && role == domain.RoleUser && !c.Renamed {
		c.Title = domain.TitleFromContent(content)
	}
	c.Messages = append(c.Messages, msg)
	touch(c, now)
	s.save("add_message")

	return msg, true
}

// DeleteChat removes chatID. Deleting an unknown id does nothing.
func (s *Store) DeleteChat(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(chatID)
	if i < 0 {
		return
	}
	s.chats = append(s.chats[:i], s.chats[i+1:]...)
	if s.activeID == chatID {
		s.activeID = ""
	}
	s.save("delete_chat")

	s.logger.Info("chat deleted", "chat_id", chatID)
}

// RenameChat sets a user-chosen title. Once renamed, a chat is never
// retitled from its first message, even if it has no messages yet.
func (s *Store) RenameChat(chatID, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if title == "" {
		return false
	}
	i := s.indexOf(chatID)
	if i < 0 {
		return false
	}

	c := &s.chats[i]
	c.Title = title
	c.Renamed = true
	touch(c, s.now())
	s.save("rename_chat")
	return true
}

// SetActiveChat points the session at chatID. The id is not checked; an
// empty id clears the selection.
func (s *Store) SetActiveChat(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = chatID
}

// ActiveChatID returns the raw pointer, which may reference a deleted chat.
func (s *Store) ActiveChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// ActiveChat resolves the active pointer.
func (s *Store) ActiveChat() (domain.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.activeID)
}

// Chat returns a copy of chatID, or false if it does not exist.
func (s *Store) Chat(chatID string) (domain.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(chatID)
}

// Chats returns copies of every chat, most recent first.
func (s *Store) Chats() []domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Chat, len(s.chats))
	for i := range s.chats {
		out[i] = s.chats[i].Clone()
	}
	return out
}

// ChatsByCategory keeps the collection order, so sidebar groups stay stable.
func (s *Store) ChatsByCategory(category domain.Category) []domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Chat{}
	for i := range s.chats {
		if s.chats[i].Category == category {
			out = append(out, s.chats[i].Clone())
		}
	}
	return out
}

// Close flushes the collection one last time.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, s.chats); err != nil {
		return NewPersistenceError("close", "final flush failed", err)
	}
	return nil
}

func (s *Store) indexOf(chatID string) int {
	if chatID == "" {
		return -1
	}
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			return i
		}
	}
	return -1
}

func (s *Store) lookup(chatID string) (domain.Chat, bool) {
	i := s.indexOf(chatID)
	if i < 0 {
		return domain.Chat{}, false
	}
	return s.chats[i].Clone(), true
}

// save is best effort: in-memory state stays authoritative when it fails.
func (s *Store) save(operation string) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := s.repo.Save(ctx, s.chats); err != nil {
		s.logger.Error("failed to persist chats",
			"error", NewPersistenceError(operation, "snapshot not saved", err))
	}
}

// touch keeps UpdatedAt monotonic even if the clock steps backwards.
func touch(c *domain.Chat, now time.Time) {
	if now.After(c.UpdatedAt) {
		c.UpdatedAt = now
	}
}
