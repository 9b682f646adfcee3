// File: internal/handlers/chat_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/iyunix/fios-chat/internal/domain"
	"github.com/iyunix/fios-chat/internal/render"
	"github.com/iyunix/fios-chat/internal/services/chat"
	"github.com/iyunix/fios-chat/internal/services/dispatch"
	"github.com/iyunix/fios-chat/internal/services/webhook"
)

// Notices shown to the user for send failures.
const (
	NoticeNoActiveChat = "Selecione ou crie um chat primeiro"
	NoticeSendFailed   = "Falha ao enviar mensagem. Tente novamente."
)

// Sender runs the send flow. *dispatch.Dispatcher implements it.
type Sender interface {
	Send(ctx context.Context, chatID, text string) (dispatch.Result, error)
	Loading() bool
}

type ChatHandler struct {
	Store    *chat.Store
	Sender   Sender
	Router   *webhook.Router
	Renderer *render.Renderer
}

func NewChatHandler(store *chat.Store, sender Sender, router *webhook.Router, renderer *render.Renderer) *ChatHandler {
	return &ChatHandler{
		Store:    store,
		Sender:   sender,
		Router:   router,
		Renderer: renderer,
	}
}

// MessageView is a message with its content rendered for display.
type MessageView struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	HTML      string      `json:"html"`
	Role      domain.Role `json:"role"`
	Timestamp time.Time   `json:"timestamp"`
}

type ChatView struct {
	ID        string          `json:"id"`
	Category  domain.Category `json:"category"`
	Title     string          `json:"title"`
	Messages  []MessageView   `json:"messages"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Renamed   bool            `json:"renamed,omitempty"`
	Active    bool            `json:"active"`
}

type CategoryView struct {
	ID          domain.Category `json:"id"`
	DisplayName string          `json:"displayName"`
	Enabled     bool            `json:"enabled"`
}

type SendResponse struct {
	ChatID      string       `json:"chatId"`
	UserMessage MessageView  `json:"userMessage"`
	Reply       *MessageView `json:"reply,omitempty"`
	Simulated   bool         `json:"simulated"`
}

// ListCategories returns the sidebar categories in display order.
func (h *ChatHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	out := make([]CategoryView, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		ep := h.Router.Resolve(c)
		out = append(out, CategoryView{ID: c, DisplayName: ep.DisplayName, Enabled: ep.Enabled})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListChats returns every chat, or one category's chats with ?category=.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	var chats []domain.Chat
	if raw := r.URL.Query().Get("category"); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			writeError(w, "Unknown category", http.StatusBadRequest)
			return
		}
		chats = h.Store.ChatsByCategory(category)
	} else {
		chats = h.Store.Chats()
	}

	activeID := h.Store.ActiveChatID()
	out := make([]ChatView, 0, len(chats))
	for _, c := range chats {
		out = append(out, h.chatView(c, activeID))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateChat starts a chat in the requested category and selects it.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		writeError(w, "Unknown category", http.StatusBadRequest)
		return
	}

	id := h.Store.CreateChat(category)
	created, _ := h.Store.Chat(id)
	writeJSON(w, http.StatusCreated, h.chatView(created, id))
}

func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	c, ok := h.Store.Chat(mux.Vars(r)["id"])
	if !ok {
		writeError(w, "Chat not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.chatView(c, h.Store.ActiveChatID()))
}

// RenameChat sets a user-chosen title. Blank titles are rejected.
func (h *ChatHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, "Title cannot be empty", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	if !h.Store.RenameChat(id, title) {
		writeError(w, "Chat not found", http.StatusNotFound)
		return
	}
	c, _ := h.Store.Chat(id)
	writeJSON(w, http.StatusOK, h.chatView(c, h.Store.ActiveChatID()))
}

// DeleteChat is idempotent; unknown ids also answer 204.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	h.Store.DeleteChat(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"chatId":  h.Store.ActiveChatID(),
		"loading": h.Sender.Loading(),
	}
	if c, ok := h.Store.ActiveChat(); ok {
		resp["chat"] = h.chatView(c, c.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetActive selects a chat; an empty chatId clears the selection.
func (h *ChatHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID string `json:"chatId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ChatID != "" {
		if _, ok := h.Store.Chat(req.ChatID); !ok {
			writeError(w, "Chat not found", http.StatusNotFound)
			return
		}
	}
	h.Store.SetActiveChat(req.ChatID)
	writeJSON(w, http.StatusOK, map[string]string{"chatId": req.ChatID})
}

// SendMessage sends to the active chat and waits for the reply. The send
// outlives the request: a client that disconnects still gets its reply stored.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	chatID := h.Store.ActiveChatID()
	result, err := h.Sender.Send(context.WithoutCancel(r.Context()), chatID, req.Message)
	if err != nil {
		writeSendError(w, err)
		return
	}

	resp := SendResponse{
		ChatID:      chatID,
		UserMessage: h.messageView(result.UserMessage),
		Simulated:   result.Simulated,
	}
	if result.Delivered {
		reply := h.messageView(result.Reply)
		resp.Reply = &reply
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeSendError(w http.ResponseWriter, err error) {
	var chatErr *chat.ChatError
	if !errors.As(err, &chatErr) {
		writeError(w, NoticeSendFailed, http.StatusInternalServerError)
		return
	}
	switch chatErr.Type {
	case chat.ErrTypeNoActiveChat:
		writeError(w, NoticeNoActiveChat, http.StatusConflict)
	case chat.ErrTypeValidation:
		writeError(w, chatErr.Message, http.StatusBadRequest)
	default:
		writeError(w, NoticeSendFailed, http.StatusBadGateway)
	}
}

func (h *ChatHandler) chatView(c domain.Chat, activeID string) ChatView {
	msgs := make([]MessageView, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, h.messageView(m))
	}
	return ChatView{
		ID:        c.ID,
		Category:  c.Category,
		Title:     c.Title,
		Messages:  msgs,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Renamed:   c.Renamed,
		Active:    c.ID == activeID,
	}
}

func (h *ChatHandler) messageView(m domain.Message) MessageView {
	return MessageView{
		ID:        m.ID,
		Content:   m.Content,
		HTML:      h.Renderer.HTML(m.Content),
		Role:      m.Role,
		Timestamp: m.Timestamp,
	}
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
