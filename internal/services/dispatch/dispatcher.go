// File: internal/services/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iyunix/fios-chat/internal/domain"
	"github.com/iyunix/fios-chat/internal/metrics"
	"github.com/iyunix/fios-chat/internal/services/chat"
	"github.com/iyunix/fios-chat/internal/services/webhook"
)

const (
	modeWebhook   = "webhook"
	modeSimulated = "simulated"
)

// Store is the part of chat.Store the dispatcher needs.
type Store interface {
	Chat(chatID string) (domain.Chat, bool)
	AddMessage(chatID, content string, role domain.Role) (domain.Message, bool)
}

// Router resolves a category to its endpoint.
type Router interface {
	Resolve(category domain.Category) webhook.EndpointConfig
}

// Result describes what a send left in the chat.
type Result struct {
	UserMessage domain.Message
	Reply       domain.Message
	// Delivered is false when the chat was deleted while the reply was pending.
	Delivered bool
	// Simulated is true when the reply is the canned "not available" text.
	Simulated bool
}

// Dispatcher runs the send flow for the active chat.
//
// A send happens in two phases with a suspension point between them: the
// user message is appended and persisted first, then the reply is fetched
// and appended. While the reply is pending the user message is already
// visible in the store and Loading reports true. Nothing is rolled back on
// failure.
type Dispatcher struct {
	config   *Config
	store    Store
	router   Router
	provider webhook.Provider
	logger   chat.Logger
	metrics  *metrics.Metrics

	inFlight atomic.Int32
	sleep    func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	state       State
	subscribers map[int]func(Event)
	nextSubID   int
}

func NewDispatcher(
	config *Config,
	store Store,
	router Router,
	provider webhook.Provider,
	logger chat.Logger,
	m *metrics.Metrics,
) (*Dispatcher, error) {
	if store == nil {
		return nil, chat.NewValidationError("constructor", "chat store is required")
	}
	if router == nil {
		return nil, chat.NewValidationError("constructor", "webhook router is required")
	}
	if provider == nil {
		return nil, chat.NewValidationError("constructor", "webhook provider is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, chat.NewValidationError("config", err.Error())
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Dispatcher{
		config:      config,
		store:       store,
		router:      router,
		provider:    provider,
		logger:      logger,
		metrics:     m,
		sleep:       sleepContext,
		subscribers: make(map[int]func(Event)),
	}, nil
}

// Loading reports whether any send is waiting for its reply.
func (d *Dispatcher) Loading() bool {
	return d.inFlight.Load() > 0
}

// State returns the state of the most recent transition.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Subscribe registers fn for state events. fn runs synchronously on the
// sending goroutine and must not block.
func (d *Dispatcher) Subscribe(fn func(Event)) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextSubID
	d.nextSubID++
	d.subscribers[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subscribers, id)
	}
}

// Send appends text as a user message to chatID and then appends the reply
// from the chat's category endpoint.
//
// Errors are *chat.ChatError: NO_ACTIVE_CHAT (nothing was changed),
// VALIDATION (empty text, nothing was changed) or DELIVERY (the user message
// stays, no reply was added). There is no retry.
func (d *Dispatcher) Send(ctx context.Context, chatID, text string) (Result, error) {
	if chatID == "" {
		return Result{}, chat.NewNoActiveChatError("send")
	}
	current, ok := d.store.Chat(chatID)
	if !ok {
		return Result{}, chat.NewNoActiveChatError("send")
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, chat.NewValidationError("send", "message cannot be empty")
	}

	start := time.Now()
	d.inFlight.Add(1)
	d.metrics.SendStarted()
	d.transition(StateSending, chatID, nil)
	defer func() {
		d.inFlight.Add(-1)
		d.metrics.SendFinished()
		d.transition(StateIdle, chatID, nil)
	}()

	// Phase one: the user message is stored before any I/O.
	userMsg, ok := d.store.AddMessage(chatID, text, domain.RoleUser)
	if !ok {
		err := chat.NewNoActiveChatError("send")
		d.transition(StateFailed, chatID, err)
		return Result{}, err
	}
	result := Result{UserMessage: userMsg}

	// Phase two: fetch the reply. This is the only point where the send waits.
	endpoint := d.router.Resolve(current.Category)
	reply, mode, err := d.fetchReply(ctx, endpoint, webhook.Request{
		ChatID:   chatID,
		Message:  text,
		Category: current.Category,
	})
	if err != nil {
		d.logger.Error("reply delivery failed",
			"chat_id", chatID, "category", current.Category, "error", err)
		d.metrics.RecordSend(string(current.Category), mode, "failed", time.Since(start))
		d.transition(StateFailed, chatID, err)
		return result, err
	}

	result.Simulated = mode == modeSimulated
	result.Reply, result.Delivered = d.store.AddMessage(chatID, reply, domain.RoleAssistant)
	if !result.Delivered {
		d.logger.Info("chat deleted before reply arrived", "chat_id", chatID)
	}

	d.metrics.RecordSend(string(current.Category), mode, "succeeded", time.Since(start))
	d.transition(StateSucceeded, chatID, nil)
	return result, nil
}

func (d *Dispatcher) fetchReply(ctx context.Context, endpoint webhook.EndpointConfig, req webhook.Request) (string, string, error) {
	if !endpoint.Enabled {
		if err := d.sleep(ctx, d.config.SimulatedDelay); err != nil {
			return "", modeSimulated, chat.NewDeliveryError("send", req.ChatID, "send cancelled", 0, err)
		}
		return FallbackReply(endpoint.DisplayName), modeSimulated, nil
	}

	reply, err := d.provider.Deliver(ctx, endpoint, req)
	if err != nil {
		code := 0
		var whErr *webhook.WebhookError
		if errors.As(err, &whErr) {
			code = whErr.Code
		}
		return "", modeWebhook, chat.NewDeliveryError("send", req.ChatID, "webhook delivery failed", code, err)
	}
	return reply, modeWebhook, nil
}

// FallbackReply is the canned answer for categories without an endpoint.
func FallbackReply(displayName string) string {
	return fmt.Sprintf("O atendimento de %s ainda não está disponível. "+
		"Em breve você poderá conversar com nossa equipe por aqui.", displayName)
}

func (d *Dispatcher) transition(state State, chatID string, err error) {
	ev := Event{
		State:   state,
		ChatID:  chatID,
		Loading: d.Loading(),
		At:      time.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}

	d.mu.Lock()
	d.state = state
	subs := make([]func(Event), 0, len(d.subscribers))
	for _, fn := range d.subscribers {
		subs = append(subs, fn)
	}
	d.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
