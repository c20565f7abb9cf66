package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ganot/quickssh/internal/codec"
	"github.com/ganot/quickssh/internal/domain/activity"
	"github.com/ganot/quickssh/internal/domain/store"
	"github.com/ganot/quickssh/internal/domain/tree"
	"github.com/ganot/quickssh/internal/filestore"
	"github.com/ganot/quickssh/internal/launcher"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type activityStub struct {
	listFn func(context.Context, activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

func (a activityStub) GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	return a.listFn(ctx, opts)
}

type handlerFixture struct {
	handler  *Handler
	store    *store.Service
	launcher *launcher.DryRun
	file     *filestore.File
}

func newHandlerFixture(t *testing.T, activitySvc ActivityService) *handlerFixture {
	t.Helper()

	c, err := codec.New(42, "my_key")
	require.NoError(t, err)

	dir := t.TempDir()
	file := filestore.New(filepath.Join(dir, "sessions.json"), filepath.Join(dir, "menu.json"))
	dry := launcher.NewDryRun(nil)
	svc, err := store.NewService(store.Dependencies{
		Codec:    c,
		Backend:  file,
		Menu:     file,
		Launcher: dry,
	}, store.Options{Command: "putty", SessionsFile: file.Path()}, nil)
	require.NoError(t, err)

	return &handlerFixture{
		handler:  NewHandler(svc, activitySvc),
		store:    svc,
		launcher: dry,
		file:     file,
	}
}

func (f *handlerFixture) call(t *testing.T, sessionID, method, params string) (any, error) {
	t.Helper()
	var raw json.RawMessage
	if params != "" {
		raw = json.RawMessage(params)
	}
	return f.handler.Handle(context.Background(), sessionID, method, raw)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	require.Equal(t, code, apiErr.Code)
}

func TestHandler_TreeCommands(t *testing.T) {
	f := newHandlerFixture(t, nil)

	resp, err := f.call(t, "s1", "new_folder", `{"name": "work"}`)
	require.NoError(t, err)
	require.Equal(t, CreatedResponse{Path: tree.Path{0}, Location: "/work"}, resp)

	resp, err = f.call(t, "s1", "new_session", `{"parent": {"location": "/work"}, "name": "db", "host": "10,0,0,5", "port": 22, "login": "alice", "password": "secret"}`)
	require.NoError(t, err)
	require.Equal(t, CreatedResponse{Path: tree.Path{0, 0}, Location: "/work/db"}, resp)

	_, err = f.call(t, "s1", "new_folder", `{"parent": {"path": [0]}, "name": "nested"}`)
	require.NoError(t, err)

	resp, err = f.call(t, "s1", "list_sessions", "")
	require.NoError(t, err)
	list := resp.(ListSessionsResponse)
	require.Equal(t, "/", list.Location)
	require.Equal(t, 1, list.Sessions)
	require.Len(t, list.Nodes, 1)
	require.Len(t, list.Nodes[0].Children, 2)
	require.Equal(t, NodeResponse{
		Path:        tree.Path{0, 0},
		Name:        "db",
		Kind:        tree.KindSession,
		Host:        "10.0.0.5",
		Port:        22,
		Login:       "alice",
		HasPassword: true,
	}, list.Nodes[0].Children[0])

	resp, err = f.call(t, "s1", "list_sessions", `{"location": "/work/db"}`)
	require.NoError(t, err)
	list = resp.(ListSessionsResponse)
	require.Equal(t, "/work/db", list.Location)
	require.Equal(t, tree.Path{0, 0}, list.Nodes[0].Path)

	resp, err = f.call(t, "s1", "list_folders", `{"path": [0]}`)
	require.NoError(t, err)
	require.Equal(t, ListFoldersResponse{Location: "/work", Folders: []tree.FolderEntry{{Index: 1, Name: "nested"}}}, resp)

	_, err = f.call(t, "s1", "new_session", `{"parent": {"location": "work"}, "name": "db", "host": "h", "port": 22}`)
	requireCode(t, err, "DUPLICATE_NAME")

	_, err = f.call(t, "s1", "new_session", `{"name": "x", "host": "h", "port": 0}`)
	requireCode(t, err, "INVALID_INPUT")

	_, err = f.call(t, "s1", "list_sessions", `{"location": "/nope"}`)
	requireCode(t, err, "NODE_NOT_FOUND")
}

func TestHandler_RemoveNeedsConfirmation(t *testing.T) {
	f := newHandlerFixture(t, nil)
	_, err := f.call(t, "s1", "new_folder", `{"name": "work"}`)
	require.NoError(t, err)
	_, err = f.call(t, "s1", "new_session", `{"parent": {"path": [0]}, "name": "db", "host": "h", "port": 22}`)
	require.NoError(t, err)

	resp, err := f.call(t, "s1", "remove_node", `{"location": "/work"}`)
	require.NoError(t, err)
	require.Equal(t, RemoveNodeResponse{Location: "/work", Description: `folder "work" (1 subitems)`}, resp)

	tr, err := f.store.Sessions(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, tr.Len())

	resp, err = f.call(t, "s1", "remove_node", `{"path": [0], "confirm": true}`)
	require.NoError(t, err)
	require.True(t, resp.(RemoveNodeResponse).Removed)

	tr, err = f.store.Sessions(context.Background())
	require.NoError(t, err)
	require.Zero(t, tr.Len())

	_, err = f.call(t, "s1", "remove_node", `{"confirm": true}`)
	requireCode(t, err, "NODE_NOT_FOUND")
}

func TestHandler_OpenSession(t *testing.T) {
	f := newHandlerFixture(t, nil)
	_, err := f.call(t, "s1", "new_session", `{"name": "db", "host": "h", "port": 2222, "login": "root", "password": "secret"}`)
	require.NoError(t, err)

	resp, err := f.call(t, "s1", "open_session", `{"location": "db"}`)
	require.NoError(t, err)
	require.Equal(t, OpenSessionResponse{Launched: true, Target: "root@h:2222"}, resp)

	resp, err = f.call(t, "s1", "open_session", "")
	require.NoError(t, err)
	require.Equal(t, OpenSessionResponse{Launched: true, Target: "(no host)"}, resp)

	calls := f.launcher.Calls()
	require.Equal(t, []string{"putty", "-ssh", "h", "-P", "2222", "-l", "root", "-pw", "secret"}, calls[0])
	require.Equal(t, []string{"putty"}, calls[1])

	_, err = f.call(t, "s1", "open_session", `{"host": "h", "password": "***"}`)
	requireCode(t, err, "DECODE_FAILED")
}

func TestHandler_Navigation(t *testing.T) {
	f := newHandlerFixture(t, nil)
	_, err := f.call(t, "s1", "new_folder", `{"name": "work"}`)
	require.NoError(t, err)
	_, err = f.call(t, "s1", "new_session", `{"parent": {"path": [0]}, "name": "db", "host": "h", "port": 22}`)
	require.NoError(t, err)

	resp, err := f.call(t, "s1", "begin_navigation", `{"mode": "insert"}`)
	require.NoError(t, err)
	nav := resp.(NavigationResponse)
	require.NotEmpty(t, nav.NavigationID)
	require.Equal(t, tree.StatusBrowsing, nav.State.Status)
	require.Equal(t, []tree.Entry{{Index: 0, Name: "work", Kind: tree.KindFolder}}, nav.Prompt.Entries)

	_, err = f.call(t, "s2", "navigate", `{"navigation_id": "`+nav.NavigationID+`", "event": "select_here"}`)
	requireCode(t, err, "NAVIGATION_NOT_FOUND")

	resp, err = f.call(t, "s1", "navigate", `{"navigation_id": "`+nav.NavigationID+`", "event": "enter_folder", "index": 0}`)
	require.NoError(t, err)
	require.Equal(t, "/work", resp.(NavigationResponse).Prompt.Location)

	_, err = f.call(t, "s1", "navigate", `{"navigation_id": "`+nav.NavigationID+`", "event": "select_child", "index": 0}`)
	requireCode(t, err, "INVALID_EVENT")

	resp, err = f.call(t, "s1", "navigate", `{"navigation_id": "`+nav.NavigationID+`", "event": "select_here"}`)
	require.NoError(t, err)
	done := resp.(NavigationResponse)
	require.Equal(t, tree.State{Path: tree.Path{0}, Status: tree.StatusSelected}, done.State)
	require.Equal(t, "/work", done.Location)
	require.Zero(t, f.handler.navigations.count())

	_, err = f.call(t, "s1", "navigate", `{"navigation_id": "`+nav.NavigationID+`", "event": "cancel"}`)
	requireCode(t, err, "NAVIGATION_NOT_FOUND")

	resp, err = f.call(t, "s1", "begin_navigation", `{"mode": "remove"}`)
	require.NoError(t, err)
	id := resp.(NavigationResponse).NavigationID

	_, err = f.call(t, "s1", "navigate", `{"navigation_id": "`+id+`", "event": "select_here"}`)
	requireCode(t, err, "INVALID_EVENT")

	_, err = f.call(t, "s1", "navigate", `{"navigation_id": "`+id+`", "event": "enter_folder", "index": 0}`)
	require.NoError(t, err)
	resp, err = f.call(t, "s1", "navigate", `{"navigation_id": "`+id+`", "event": "select_child", "index": 0}`)
	require.NoError(t, err)
	require.Equal(t, `session "db" (h)`, resp.(NavigationResponse).Description)

	_, err = f.call(t, "s1", "begin_navigation", `{"mode": "browse"}`)
	requireCode(t, err, "INVALID_INPUT")
}

func TestHandler_InvalidDocument(t *testing.T) {
	f := newHandlerFixture(t, nil)
	require.NoError(t, f.file.Write(context.Background(), []byte(`[{"name": "x", "host": 5, "port": 22}]`)))

	_, err := f.call(t, "s1", "list_sessions", "")
	requireCode(t, err, "INVALID_SESSIONS")

	_, err = f.call(t, "s1", "reload_sessions", "")
	requireCode(t, err, "INVALID_SESSIONS")

	require.NoError(t, f.file.Write(context.Background(), []byte(`[{"name": "x", "host": "h", "port": 22, "password": "pw", "encrypt": true}]`)))
	resp, err := f.call(t, "s1", "reload_sessions", "")
	require.NoError(t, err)
	require.Equal(t, store.ReloadResult{Sessions: 1, Reencrypted: 1}, resp)

	resp, err = f.call(t, "s1", "render_menu", "")
	require.NoError(t, err)
	require.Contains(t, resp.(MenuResponse).Menu, store.OpenCommand)
}

func TestHandler_RecentActivity(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var got activity.ListActivityOptions
	f := newHandlerFixture(t, activityStub{
		listFn: func(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
			got = opts
			return []activity.ActivityEntry{{
				ActivityType: activity.TypeSessionCreated,
				Subject:      "/work/db",
				Summary:      `created session "db"`,
				CreatedAt:    now,
			}}, nil
		},
	})

	resp, err := f.call(t, "s1", "get_recent_activity", `{"subject": "/work/db", "type": "session_created", "limit": 5}`)
	require.NoError(t, err)
	require.Equal(t, []ActivityEntryResponse{{
		Timestamp: now,
		Type:      activity.TypeSessionCreated,
		Subject:   "/work/db",
		Summary:   `created session "db"`,
	}}, resp)
	require.Equal(t, "/work/db", *got.Subject)
	require.Equal(t, activity.TypeSessionCreated, *got.ActivityType)
	require.Equal(t, 5, got.Limit)

	empty := newHandlerFixture(t, nil)
	resp, err = empty.call(t, "s1", "get_recent_activity", "")
	require.NoError(t, err)
	require.Empty(t, resp)
}

func TestHandler_UnknownAndMalformed(t *testing.T) {
	f := newHandlerFixture(t, nil)

	_, err := f.call(t, "s1", "create_project", "")
	require.ErrorContains(t, err, "unknown method")

	_, err = f.call(t, "s1", "new_folder", `{"name": 5}`)
	requireCode(t, err, "INVALID_PARAMS")
}

func TestNavigations_Expire(t *testing.T) {
	navs := newNavigations()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	navs.now = func() time.Time { return now }

	id, _ := navs.begin("s1", tree.ModeInsert)
	_, err := navs.get("s1", id)
	require.NoError(t, err)

	now = now.Add(navigationTTL + time.Second)
	_, err = navs.get("s1", id)
	require.ErrorIs(t, err, errNavigationNotFound)
}

func TestFormatPayload_MasksPasswords(t *testing.T) {
	out := formatPayload(map[string]any{"host": "h", "password": `se"cret`})
	require.Equal(t, `{"host":"h","password":"***"}`, out)
	require.Equal(t, "<nil>", formatPayload(nil))
}

func TestServer_ToolsOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	f := newHandlerFixture(t, nil)

	server := NewServer(Config{
		Services:      Services{Store: f.store},
		TransportMode: "stdio",
	})
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, len(buildToolCatalog()))

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "new_folder",
		Arguments: map[string]any{"name": "work"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.JSONEq(t, `{"path": [0], "location": "/work"}`, res.Content[0].(*sdkmcp.TextContent).Text)

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "new_folder",
		Arguments: map[string]any{"name": "work"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	var apiErr APIError
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(*sdkmcp.TextContent).Text), &apiErr))
	require.Equal(t, "DUPLICATE_NAME", apiErr.Code)

	resources, err := session.ListResources(ctx, nil)
	require.NoError(t, err)
	require.Len(t, resources.Resources, len(docResources))
}
