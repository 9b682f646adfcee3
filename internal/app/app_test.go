package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/fios-chat/internal/config"
	"github.com/iyunix/fios-chat/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("GO_ENV", "test")
	return &config.Config{
		DatabasePath:  filepath.Join(t.TempDir(), "chat.db"),
		StorageKey:    "fios-chats",
		LogLevel:      "ERROR",
		SendRateLimit: 2,
	}
}

func TestApplicationServesAPI(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close(context.Background())

	h := a.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fioschat_http_requests_total")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	for _, path := range []string{"/api/chats", "/health"} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, path, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func TestSendIsRateLimited(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close(context.Background())

	h := a.Handler()
	send := func() int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"message":"oi"}`))
		req.RemoteAddr = "198.51.100.1:4000"
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// No active chat: allowed requests answer 409.
	assert.Equal(t, http.StatusConflict, send())
	assert.Equal(t, http.StatusConflict, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestChatsSurviveRestart(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	id := a.Store.CreateChat(domain.CategorySales)
	_, ok := a.Store.AddMessage(id, "quero um orçamento", domain.RoleUser)
	require.True(t, ok)
	require.NoError(t, a.Close(context.Background()))

	b, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close(context.Background())

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chats/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Title    string `json:"title"`
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "quero um orçamento", view.Title)
	require.Len(t, view.Messages, 1)
	assert.Empty(t, b.Store.ActiveChatID(), "the active pointer is not persisted")
}

func TestProductionRejectsEnabledEndpointWithoutURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Environment = "production"
	enabled := true
	cfg.Webhooks = map[domain.Category]config.WebhookOverride{
		domain.CategorySupport: {Enabled: &enabled},
	}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
