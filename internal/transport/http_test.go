package transport

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	sessionID string
	calls     int
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	h.sessionID, _ = SessionIDFromContext(r.Context())
	w.WriteHeader(http.StatusAccepted)
}

func TestHTTPServer_MCP(t *testing.T) {
	handler := &recordingHandler{}
	server := httptest.NewServer(NewServer(handler, Options{Auth: AuthMiddleware(StaticToken("token"))}))
	t.Cleanup(server.Close)

	body := bytes.NewBufferString(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)
	req, err := http.NewRequest(http.MethodPost, server.URL+"/mcp", body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Mcp-Session-Id", "sess1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, "sess1", handler.sessionID)

	resp, err = http.Post(server.URL+"/mcp", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 1, handler.calls)
}

func TestHTTPServer_Health(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	router := NewServer(&recordingHandler{}, Options{
		Auth:   AuthMiddleware(StaticToken("token")),
		Logger: logger,
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.Contains(t, logs.String(), "path=/health")
	require.Contains(t, logs.String(), "status=200")
}
