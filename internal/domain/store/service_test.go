package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ganot/quickssh/internal/domain/activity"
	"github.com/ganot/quickssh/internal/domain/store"
	"github.com/ganot/quickssh/internal/domain/tree"
	"github.com/ganot/quickssh/internal/repository"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	data    []byte
	present bool
	writes  int
}

func (b *memBackend) Read(context.Context) ([]byte, error) {
	if !b.present {
		return nil, repository.ErrNotFound
	}
	return b.data, nil
}

func (b *memBackend) Write(_ context.Context, data []byte) error {
	b.data = append([]byte(nil), data...)
	b.present = true
	b.writes++
	return nil
}

type memMenu struct {
	data   []byte
	writes int
}

func (m *memMenu) WriteMenu(_ context.Context, data []byte) error {
	m.data = data
	m.writes++
	return nil
}

type recordingLauncher struct {
	argv [][]string
	err  error
}

func (l *recordingLauncher) Launch(_ context.Context, argv []string) error {
	l.argv = append(l.argv, argv)
	return l.err
}

type recordingActivity struct {
	entries []activity.ActivityEntry
}

func (a *recordingActivity) LogActivity(_ context.Context, entry *activity.ActivityEntry) error {
	a.entries = append(a.entries, *entry)
	return nil
}

func (a *recordingActivity) types() []activity.ActivityType {
	out := make([]activity.ActivityType, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.ActivityType)
	}
	return out
}

type fixture struct {
	svc      *store.Service
	backend  *memBackend
	menu     *memMenu
	launcher *recordingLauncher
	activity *recordingActivity
}

func newFixture(t *testing.T, doc string) *fixture {
	t.Helper()
	f := &fixture{
		backend:  &memBackend{},
		menu:     &memMenu{},
		launcher: &recordingLauncher{},
		activity: &recordingActivity{},
	}
	if doc != "" {
		f.backend.data = []byte(doc)
		f.backend.present = true
	}
	svc, err := store.NewService(store.Dependencies{
		Codec:    newCodec(t),
		Backend:  f.backend,
		Menu:     f.menu,
		Launcher: f.launcher,
		Activity: f.activity,
	}, store.Options{Command: "putty", SessionsFile: "sessions.json"}, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := store.NewService(store.Dependencies{Backend: &memBackend{}}, store.Options{}, nil)
	require.Error(t, err)

	_, err = store.NewService(store.Dependencies{Codec: newCodec(t)}, store.Options{}, nil)
	require.Error(t, err)
}

func TestService_CreateSessionOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	folder, err := f.svc.CreateFolder(ctx, tree.Path{}, "  work ")
	require.NoError(t, err)
	require.Equal(t, tree.Path{0}, folder)

	path, err := f.svc.CreateSession(ctx, folder, store.SessionInput{
		Name:     "db",
		Host:     "http://10,0,0,5:22",
		Port:     22,
		Login:    " alice ",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, tree.Path{0, 0}, path)
	require.Equal(t, 2, f.backend.writes)
	require.Equal(t, 2, f.menu.writes)
	require.Contains(t, string(f.menu.data), secretToken)
	require.NotContains(t, string(f.backend.data), `"secret"`)

	tr, err := f.svc.Sessions(ctx)
	require.NoError(t, err)
	node, err := tr.Get(path)
	require.NoError(t, err)
	require.Equal(t, &tree.Session{Name: "db", Host: "10.0.0.5", Port: 22, Login: "alice", Password: secretToken}, node)

	require.Equal(t, []activity.ActivityType{activity.TypeFolderCreated, activity.TypeSessionCreated}, f.activity.types())
	require.Equal(t, "/work/db", f.activity.entries[1].Subject)
}

func TestService_CreateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, `[{"name": "db", "host": "h", "port": 22}]`)

	cases := map[string]store.SessionInput{
		"empty name": {Name: "  ", Host: "h", Port: 22},
		"empty host": {Name: "x", Host: " ", Port: 22},
		"zero port":  {Name: "x", Host: "h"},
		"negative":   {Name: "x", Host: "h", Port: -5},
	}
	for name, in := range cases {
		_, err := f.svc.CreateSession(ctx, tree.Path{}, in)
		require.ErrorIs(t, err, store.ErrInvalidInput, name)
	}

	_, err := f.svc.CreateSession(ctx, tree.Path{}, store.SessionInput{Name: "db", Host: "h", Port: 22})
	require.ErrorIs(t, err, store.ErrDuplicateName)

	_, err = f.svc.CreateFolder(ctx, tree.Path{0}, "nested")
	require.ErrorIs(t, err, tree.ErrNotFound, "sessions cannot hold children")

	_, err = f.svc.CreateFolder(ctx, tree.Path{}, "")
	require.ErrorIs(t, err, store.ErrInvalidInput)

	require.Zero(t, f.backend.writes)
	require.Zero(t, f.menu.writes)
}

func TestService_InvalidDocumentBlocksWrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, `[{"name": "x"}]`)

	_, err := f.svc.CreateFolder(ctx, tree.Path{}, "new")
	require.ErrorIs(t, err, tree.ErrInvalidSessions)

	_, err = f.svc.Reload(ctx)
	require.ErrorIs(t, err, tree.ErrInvalidSessions)

	f.backend.data = []byte("{")
	_, err = f.svc.Menu(ctx)
	require.ErrorIs(t, err, store.ErrInvalidFormat)

	require.Zero(t, f.backend.writes)
	require.Zero(t, f.menu.writes)
}

func TestService_ReloadReencryptsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, `[{"name": "s", "host": "h", "port": 22, "password": "secret", "encrypt": true}]`)

	result, err := f.svc.Reload(ctx)
	require.NoError(t, err)
	require.Equal(t, store.ReloadResult{Sessions: 1, Reencrypted: 1}, result)
	require.Equal(t, 1, f.backend.writes)
	require.Contains(t, string(f.backend.data), secretToken)

	result, err = f.svc.Reload(ctx)
	require.NoError(t, err)
	require.Zero(t, result.Reencrypted)
	require.Equal(t, 1, f.backend.writes, "nothing to write back")

	tr, err := f.svc.Sessions(ctx)
	require.NoError(t, err)
	require.Equal(t, &tree.Session{Name: "s", Host: "h", Port: 22, Password: secretToken}, tr.Roots[0])

	require.Equal(t, []activity.ActivityType{
		activity.TypePasswordsReencrypted,
		activity.TypeSessionsReloaded,
		activity.TypeSessionsReloaded,
	}, f.activity.types())
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, `[{"name": "work", "children": [
		{"name": "db", "host": "10.0.0.5", "port": 22},
		{"name": "web", "host": "w", "port": 22}
	]}]`)

	removal, err := f.svc.Remove(ctx, tree.Path{0, 0})
	require.NoError(t, err)
	require.Equal(t, "/work/db", removal.Location)
	require.Equal(t, `session "db" (10.0.0.5)`, removal.Description)

	removal, err = f.svc.Remove(ctx, tree.Path{0})
	require.NoError(t, err)
	require.Equal(t, `folder "work" (1 subitems)`, removal.Description)

	tr, err := f.svc.Sessions(ctx)
	require.NoError(t, err)
	require.Zero(t, tr.Len())

	_, err = f.svc.Remove(ctx, tree.Path{0})
	require.ErrorIs(t, err, tree.ErrNotFound)
	_, err = f.svc.Remove(ctx, tree.Path{})
	require.ErrorIs(t, err, tree.ErrNotFound)
	require.Equal(t, 2, f.backend.writes)
}

func TestService_Launch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, `[{"name": "work", "children": [
		{"name": "db", "host": "10.0.0.5", "port": 2222, "login": "alice", "password": "`+secretToken+`"}
	]}]`)

	spec, err := f.svc.LaunchPath(ctx, tree.Path{0, 0})
	require.NoError(t, err)
	require.Equal(t, "secret", spec.Password)
	require.Equal(t, [][]string{{"putty", "-ssh", "10.0.0.5", "-P", "2222", "-l", "alice", "-pw", "secret"}}, f.launcher.argv)

	_, err = f.svc.LaunchPath(ctx, tree.Path{0})
	require.ErrorIs(t, err, store.ErrNotSession)

	_, err = f.svc.Launch(ctx, store.OpenRequest{})
	require.NoError(t, err)
	require.Equal(t, []string{"putty"}, f.launcher.argv[1])

	f.launcher.err = errors.New("not installed")
	_, err = f.svc.Launch(ctx, store.OpenRequest{Host: "h"})
	require.ErrorContains(t, err, "not installed")

	for _, e := range f.activity.entries {
		require.False(t, strings.Contains(e.Summary, "secret"), "plaintext never reaches the activity log")
	}
}

func TestService_Menu(t *testing.T) {
	f := newFixture(t, "")

	data, err := f.svc.Menu(context.Background())
	require.NoError(t, err)
	require.Contains(t, string(data), `"file": "sessions.json"`)
	require.Contains(t, string(data), store.NewCommand)
}
