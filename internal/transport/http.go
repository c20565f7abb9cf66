package transport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Options configures the HTTP router.
type Options struct {
	// Auth guards /mcp when set. /health is always open.
	Auth   func(http.Handler) http.Handler
	Logger *slog.Logger
}

// NewServer creates an HTTP server router with middleware. mcpHandler
// serves the streamable MCP endpoint.
func NewServer(mcpHandler http.Handler, opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(SessionMiddleware)
	r.Use(RequestLogger(opts.Logger))

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Handle("/mcp", mcpHandler)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
