package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/quickssh/internal/codec"
	"github.com/ganot/quickssh/internal/domain/activity"
	"github.com/ganot/quickssh/internal/domain/store"
	"github.com/ganot/quickssh/internal/launcher"
	"github.com/ganot/quickssh/internal/mcp"
	"github.com/ganot/quickssh/internal/sqlite"
	"github.com/ganot/quickssh/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// StoreName is the document and activity scope used by the test server.
const StoreName = "sessions"

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Store    *store.Service
	Activity *activity.Service
	Backend  *sqlite.DocumentBackend
	Launcher *launcher.DryRun
	Token    string
}

// New starts an HTTP MCP server over an in-memory database. The codec
// uses K1=42, K2="my_key".
func New(t *testing.T, token string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	c, err := codec.New(42, "my_key")
	require.NoError(t, err)

	backend := sqlite.NewDocumentBackend(sqlite.NewDocumentRepository(db), StoreName, string(store.FormatJSON))
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), StoreName, nil)
	dry := launcher.NewDryRun(nil)

	storeSvc, err := store.NewService(store.Dependencies{
		Codec:    c,
		Backend:  backend,
		Menu:     backend,
		Launcher: dry,
		Activity: activitySvc,
	}, store.Options{Command: "putty", SessionsFile: StoreName}, nil)
	require.NoError(t, err)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      mcp.Services{Store: storeSvc, Activity: activitySvc},
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	opts := transport.Options{}
	if token != "" {
		opts.Auth = transport.AuthMiddleware(transport.StaticToken(token))
	}
	server := httptest.NewServer(transport.NewServer(mcpHandler, opts))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Store:    storeSvc,
		Activity: activitySvc,
		Backend:  backend,
		Launcher: dry,
		Token:    token,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// Connect opens an MCP client session against the server, sending the
// bearer token on every request.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	httpClient := &http.Client{Transport: bearerTransport{token: ts.Token, next: http.DefaultTransport}}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "quickssh-test", Version: "0.0.1"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: httpClient,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (b bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if b.token == "" {
		return b.next.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(r)
}
