package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/fios-chat/internal/domain"
	chatrepo "github.com/iyunix/fios-chat/internal/repository/chat"
)

type memoryRepo struct {
	mu      sync.Mutex
	chats   []domain.Chat
	loadErr error
	saveErr error
	saves   int
}

func (r *memoryRepo) Load(ctx context.Context) ([]domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.chats == nil {
		return nil, chatrepo.ErrNotFound
	}
	return cloneAll(r.chats), nil
}

func (r *memoryRepo) Save(ctx context.Context, chats []domain.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.chats = cloneAll(chats)
	return nil
}

func (r *memoryRepo) snapshot() []domain.Chat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.chats)
}

func cloneAll(chats []domain.Chat) []domain.Chat {
	out := make([]domain.Chat, len(chats))
	for i := range chats {
		out[i] = chats[i].Clone()
	}
	return out
}

// fakeClock advances one second on every reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T, repo *memoryRepo) *Store {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(context.Background(), repo, nil, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
}

func TestCreateChat(t *testing.T) {
	repo := &memoryRepo{}
	s := newTestStore(t, repo)

	first := s.CreateChat(domain.CategorySupport)
	second := s.CreateChat(domain.CategoryFinance)

	chats := s.Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, second, chats[0].ID, "newest chat goes first")
	assert.Equal(t, first, chats[1].ID)
	assert.Equal(t, domain.PlaceholderTitle, chats[0].Title)
	assert.Equal(t, domain.CategoryFinance, chats[0].Category)
	assert.Empty(t, chats[0].Messages)
	assert.Equal(t, chats[0].CreatedAt, chats[0].UpdatedAt)
	assert.Equal(t, second, s.ActiveChatID())

	assert.Len(t, repo.snapshot(), 2, "create persists")
}

func TestAddMessageAppendsInOrder(t *testing.T) {
	s := newTestStore(t, &memoryRepo{})
	id := s.CreateChat(domain.CategorySales)

	contents := []string{"primeira", "segunda", "terceira", "quarta"}
	var lastUpdated time.Time
	for i, content := range contents {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		msg, ok := s.AddMessage(id, content, role)
		require.True(t, ok)
		assert.Equal(t, content, msg.Content)

		c, found := s.Chat(id)
		require.True(t, found)
		assert.Len(t, c.Messages, i+1)
		assert.False(t, c.UpdatedAt.Before(lastUpdated), "updatedAt must not go backwards")
		assert.False(t, c.UpdatedAt.Before(c.CreatedAt))
		lastUpdated = c.UpdatedAt
	}

	c, _ := s.Chat(id)
	for i, content := range contents {
		assert.Equal(t, content, c.Messages[i].Content)
	}
}

func TestAddMessageUnknownChatIsNoOp(t *testing.T) {
	repo := &memoryRepo{}
	s := newTestStore(t, repo)
	id := s.CreateChat(domain.CategoryInfra)
	before := s.Chats()
	savesBefore := repo.saves

	assert.NotPanics(t, func() {
		_, ok := s.AddMessage("missing", "olá", domain.RoleUser)
		assert.False(t, ok)
	})

	s.DeleteChat(id)
	_, ok := s.AddMessage(id, "resposta tardia", domain.RoleAssistant)
	assert.False(t, ok)

	assert.Empty(t, s.Chats())
	assert.Len(t, before, 1)
	assert.Equal(t, savesBefore+1, repo.saves, "only the delete saved")
}

func TestFirstUserMessageSetsTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short", content: "Meu acesso caiu", want: "Meu acesso caiu"},
		{name: "fifty", content: strings.Repeat("x", 50), want: strings.Repeat("x", 50)},
		{name: "long", content: strings.Repeat("y", 80), want: strings.Repeat("y", 50) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, &memoryRepo{})
			id := s.CreateChat(domain.CategorySupport)
			s.AddMessage(id, tt.content, domain.RoleUser)

			c, _ := s.Chat(id)
			assert.Equal(t, tt.want, c.Title)
		})
	}
}

func TestTitleOnlyFromFirstMessage(t *testing.T) {
	s := newTestStore(t, &memoryRepo{})
	id := s.CreateChat(domain.CategorySupport)

	s.AddMessage(id, "primeira pergunta", domain.RoleUser)
	s.AddMessage(id, "segunda pergunta", domain.RoleUser)

	c, _ := s.Chat(id)
	assert.Equal(t, "primeira pergunta", c.Title)
}

func TestAssistantFirstMessageKeepsPlaceholder(t *testing.T) {
	s := newTestStore(t, &memoryRepo{})
	id := s.CreateChat(domain.CategorySupport)

	s.AddMessage(id, "bem-vindo", domain.RoleAssistant)
	s.AddMessage(id, "obrigado", domain.RoleUser)

	c, _ := s.Chat(id)
	assert.Equal(t, domain.PlaceholderTitle, c.Title)
}

func TestRenameBeforeFirstMessageSticks(t *testing.T) {
	s := newTestStore(t, &memoryRepo{})
	id := s.CreateChat(domain.CategoryFinance)

	require.True(t, s.RenameChat(id, "Fatura de março"))
	s.AddMessage(id, "quero a segunda via", domain.RoleUser)

	c, _ := s.Chat(id)
	assert.Equal(t, "Fatura de março", c.Title)
	assert.True(t, c.Renamed)
}

func TestRenameSurvivesReload(t *testing.T) {
	repo := &memoryRepo{}
	s := newTestStore(t, repo)
	id := s.CreateChat(domain.CategoryFinance)
	s.RenameChat(id, "Contrato")

	reloaded := newTestStore(t, repo)
	reloaded.AddMessage(id, "primeira mensagem", domain.RoleUser)

	c, ok := reloaded.Chat(id)
	require.True(t, ok)
	assert.Equal(t, "Contrato", c.Title)
}

func TestRenameBumpsUpdatedAt(t *testing.T) {
	s := newTestStore(t, &memoryRepo{})
	id := s.CreateChat(domain.CategoryInfra)
	before, _ := s.Chat(id)

	assert.True(t, s.RenameChat(id, "Rede"))
	after, _ := s.Chat(id)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	assert.False(t, s.RenameChat("missing", "x"))
	assert.False(t, s.RenameChat(id, ""))
}

func TestDeleteChat(t *testing.T) {
	repo := &memoryRepo{}
	s := newTestStore(t, repo)
	keep := s.CreateChat(domain.CategorySupport)
	drop := s.CreateChat(domain.CategorySupport)

	s.DeleteChat(drop)
	_, ok := s.ActiveChat()
	assert.False(t, ok, "deleting the active chat clears the pointer")
	assert.Empty(t, s.ActiveChatID())

	s.DeleteChat(drop)
	s.DeleteChat("never-existed")

	chats := s.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, keep, chats[0].ID)
	assert.Len(t, repo.snapshot(), 1)
}

func TestDeleteInactiveChatKeepsPointer(t *testing.T) {
	s := newTestStore(t, &memoryRepo{})
	other := s.CreateChat(domain.CategorySupport)
	active := s.CreateChat(domain.CategorySales)

	s.DeleteChat(other)
	assert.Equal(t, active, s.ActiveChatID())
}

func TestDeleteLastChatPersistsEmptyCollection(t *testing.T) {
	repo := &memoryRepo{}
	s := newTestStore(t, repo)
	id := s.CreateChat(domain.CategorySupport)
	s.DeleteChat(id)

	snap := repo.snapshot()
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}

func TestSetActiveChatIsNotValidated(t *testing.T) {
	s := newTestStore(t, &memoryRepo{})
	s.SetActiveChat("ghost")

	assert.Equal(t, "ghost", s.ActiveChatID())
	_, ok := s.ActiveChat()
	assert.False(t, ok)

	id := s.CreateChat(domain.CategoryFinance)
	s.SetActiveChat("")
	_, ok = s.ActiveChat()
	assert.False(t, ok)

	s.SetActiveChat(id)
	c, ok := s.ActiveChat()
	require.True(t, ok)
	assert.Equal(t, id, c.ID)
}

func TestHydratesFromRepository(t *testing.T) {
	repo := &memoryRepo{}
	first := newTestStore(t, repo)
	id := first.CreateChat(domain.CategoryInfra)
	first.AddMessage(id, "servidor caiu", domain.RoleUser)

	second := newTestStore(t, repo)
	chats := second.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, "servidor caiu", chats[0].Title)
	assert.Empty(t, second.ActiveChatID(), "active pointer is not persisted")
}

func TestHydrationFailureStartsEmpty(t *testing.T) {
	repo := &memoryRepo{loadErr: errors.New("corrupt snapshot")}

	var s *Store
	assert.NotPanics(t, func() { s = newTestStore(t, repo) })
	assert.Empty(t, s.Chats())
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	repo := &memoryRepo{saveErr: errors.New("disk full")}
	s := newTestStore(t, repo)

	id := s.CreateChat(domain.CategorySales)
	_, ok := s.AddMessage(id, "ainda em memória", domain.RoleUser)
	assert.True(t, ok)
	assert.Len(t, s.Chats(), 1)

	err := s.Close(context.Background())
	assert.True(t, IsType(err, ErrTypePersistence))
}

func TestChatsByCategory(t *testing.T) {
	s := newTestStore(t, &memoryRepo{})
	a := s.CreateChat(domain.CategorySupport)
	s.CreateChat(domain.CategoryFinance)
	b := s.CreateChat(domain.CategorySupport)

	support := s.ChatsByCategory(domain.CategorySupport)
	require.Len(t, support, 2)
	assert.Equal(t, b, support[0].ID)
	assert.Equal(t, a, support[1].ID)
	assert.Empty(t, s.ChatsByCategory(domain.CategoryInfra))
}

func TestReturnedChatsAreCopies(t *testing.T) {
	s := newTestStore(t, &memoryRepo{})
	id := s.CreateChat(domain.CategorySupport)
	s.AddMessage(id, "original", domain.RoleUser)

	c, _ := s.Chat(id)
	c.Messages[0].Content = "mutated"
	c.Title = "mutated"

	again, _ := s.Chat(id)
	assert.Equal(t, "original", again.Messages[0].Content)
	assert.Equal(t, "original", again.Title)
}

func TestUpdatedAtMonotonicWithBackwardsClock(t *testing.T) {
	times := []time.Time{
		time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC),
	}
	n := 0
	clock := func() time.Time {
		ts := times[n%len(times)]
		n++
		return ts
	}
	s := NewStore(context.Background(), &memoryRepo{}, nil, WithClock(clock))
	id := s.CreateChat(domain.CategorySupport)
	s.AddMessage(id, "oi", domain.RoleUser)

	c, _ := s.Chat(id)
	assert.Equal(t, times[0], c.UpdatedAt)
	assert.False(t, c.UpdatedAt.Before(c.CreatedAt))
}

func TestChatErrorFormatting(t *testing.T) {
	cause := errors.New("boom")
	err := NewDeliveryError("send", "c1", "webhook failed", 500, cause)

	assert.Contains(t, err.Error(), "DELIVERY")
	assert.Contains(t, err.Error(), "boom")
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsType(fmt.Errorf("wrapped: %w", err), ErrTypeDelivery))
	assert.False(t, IsType(cause, ErrTypeDelivery))
}
