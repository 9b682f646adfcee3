package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iyunix/fios-chat/internal/middleware"
)

// Handler builds the HTTP router. CORS wraps the router from outside so
// preflight requests are answered for every path without a route of their own.
func (a *Application) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.RecoverPanic(a.Logger))
	r.Use(middleware.LoggingMiddleware(a.Logger, a.Metrics))

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})).Methods("GET")

	// --- API Routes ---
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/log", a.LogHandler.LogFrontendEvent).Methods("POST")
	api.HandleFunc("/categories", a.ChatHandler.ListCategories).Methods("GET")
	api.HandleFunc("/chats", a.ChatHandler.ListChats).Methods("GET")
	api.HandleFunc("/chats", a.ChatHandler.CreateChat).Methods("POST")
	api.HandleFunc("/chats/{id}", a.ChatHandler.GetChat).Methods("GET")
	api.HandleFunc("/chats/{id}", a.ChatHandler.RenameChat).Methods("PATCH")
	api.HandleFunc("/chats/{id}", a.ChatHandler.DeleteChat).Methods("DELETE")
	api.HandleFunc("/active", a.ChatHandler.GetActive).Methods("GET")
	api.HandleFunc("/active", a.ChatHandler.SetActive).Methods("PUT")
	api.Handle("/events", a.EventsHandler).Methods("GET")

	var send http.Handler = http.HandlerFunc(a.ChatHandler.SendMessage)
	if a.Limiter != nil {
		send = middleware.RateLimitMiddleware(a.Limiter, "send", a.Logger)(send)
	}
	api.Handle("/messages", send).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not found"}` + "\n"))
	})

	return middleware.CORS(r)
}
