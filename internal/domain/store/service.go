package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ganot/quickssh/internal/domain/activity"
	"github.com/ganot/quickssh/internal/domain/tree"
	"github.com/ganot/quickssh/internal/repository"
)

// Options configures a Service.
type Options struct {
	Format       Format
	Command      string // external client executable
	SessionsFile string // shown by the menu's "Manage sessions" entry
}

// Dependencies are the collaborators of a Service. Menu, Launcher and
// Activity are optional.
type Dependencies struct {
	Codec    Codec
	Backend  Backend
	Menu     MenuSink
	Launcher Launcher
	Activity ActivityLogger
}

// Service owns the sessions document for the duration of each operation.
type Service struct {
	mu       sync.Mutex
	codec    Codec
	backend  Backend
	menu     MenuSink
	launcher Launcher
	activity ActivityLogger
	opts     Options
	logger   *slog.Logger
}

// NewService creates a new store service.
func NewService(deps Dependencies, opts Options, logger *slog.Logger) (*Service, error) {
	if deps.Codec == nil {
		return nil, errors.New("store: codec is required")
	}
	if deps.Backend == nil {
		return nil, errors.New("store: backend is required")
	}
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		codec:    deps.Codec,
		backend:  deps.Backend,
		menu:     deps.Menu,
		launcher: deps.Launcher,
		activity: deps.Activity,
		opts:     opts,
		logger:   logger,
	}, nil
}

// SessionInput is the data collected by the creation flow.
type SessionInput struct {
	Name     string
	Host     string
	Port     int
	Login    string
	Password string // plaintext
}

// Removal describes a deleted node.
type Removal struct {
	Node        tree.Node
	Location    string
	Description string
}

// ReloadResult summarizes a reload.
type ReloadResult struct {
	Sessions    int `json:"sessions"`
	Reencrypted int `json:"reencrypted"`
}

// Sessions returns the current tree, writing it back first when the
// re-encrypt pass changed anything.
func (s *Service) Sessions(ctx context.Context) (tree.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, _, err := s.load(ctx)
	return t, err
}

// Reload re-reads the document, writes it back if passwords were
// re-encoded and regenerates the menu.
func (s *Service) Reload(ctx context.Context) (ReloadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, n, err := s.load(ctx)
	if err != nil {
		return ReloadResult{}, err
	}
	if err := s.writeMenu(ctx, t); err != nil {
		return ReloadResult{}, err
	}

	result := ReloadResult{Sessions: len(t.Sessions()), Reencrypted: n}
	s.logActivity(ctx, activity.TypeSessionsReloaded, "", fmt.Sprintf("reloaded %d sessions", result.Sessions), result)
	s.logger.Info("sessions reloaded", "sessions", result.Sessions, "reencrypted", n)
	return result, nil
}

// Menu returns the rendered menu document.
func (s *Service) Menu(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return RenderMenu(t, s.opts.SessionsFile)
}

// CreateSession validates in, encodes its password and appends it to the
// folder at parent.
func (s *Service) CreateSession(ctx context.Context, parent tree.Path, in SessionInput) (tree.Path, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: session name cannot be empty", ErrInvalidInput)
	}
	host := NormalizeHost(in.Host)
	if host == "" {
		return nil, fmt.Errorf("%w: server host cannot be empty", ErrInvalidInput)
	}
	if in.Port <= 0 {
		return nil, fmt.Errorf("%w: server port must be a natural number", ErrInvalidInput)
	}

	sess := &tree.Session{Name: name, Host: host, Port: in.Port, Login: strings.TrimSpace(in.Login)}
	if password := strings.TrimSpace(in.Password); password != "" {
		token, err := s.codec.Encode(password)
		if err != nil {
			return nil, fmt.Errorf("encrypting password: %w", err)
		}
		sess.Password = token
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, location, err := s.insert(ctx, parent, sess)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, activity.TypeSessionCreated, location, fmt.Sprintf("created session %q", name), map[string]any{"host": host, "port": in.Port})
	s.logger.Info("session created", "location", location, "host", host)
	return path, nil
}

// CreateFolder appends an empty folder to the folder at parent.
func (s *Service) CreateFolder(ctx context.Context, parent tree.Path, name string) (tree.Path, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name cannot be empty", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, location, err := s.insert(ctx, parent, &tree.Folder{Name: name, Children: []tree.Node{}})
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, activity.TypeFolderCreated, location, fmt.Sprintf("created folder %q", name), nil)
	s.logger.Info("folder created", "location", location)
	return path, nil
}

// Remove deletes the node at path.
func (s *Service) Remove(ctx context.Context, path tree.Path) (Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, _, err := s.load(ctx)
	if err != nil {
		return Removal{}, err
	}
	location, err := t.DescribePath(path)
	if err != nil {
		return Removal{}, err
	}
	node, err := t.Remove(path)
	if err != nil {
		return Removal{}, err
	}
	if err := s.commit(ctx, t); err != nil {
		return Removal{}, err
	}

	removal := Removal{Node: node, Location: location, Description: Describe(node)}
	s.logActivity(ctx, activity.TypeNodeRemoved, location, "removed "+removal.Description, nil)
	s.logger.Info("node removed", "location", location)
	return removal, nil
}

// Launch resolves req and starts the external client.
func (s *Service) Launch(ctx context.Context, req OpenRequest) (LaunchSpec, error) {
	spec, err := Open(s.codec, req)
	if err != nil {
		return LaunchSpec{}, err
	}
	if s.launcher == nil {
		return LaunchSpec{}, errors.New("store: no launcher configured")
	}
	if err := s.launcher.Launch(ctx, spec.Argv(s.opts.Command)); err != nil {
		return LaunchSpec{}, fmt.Errorf("launching %s: %w", spec, err)
	}

	s.logActivity(ctx, activity.TypeSessionOpened, "", "opened "+spec.String(), nil)
	s.logger.Info("session opened", "target", spec.String())
	return spec, nil
}

// LaunchPath launches the stored session at path.
func (s *Service) LaunchPath(ctx context.Context, path tree.Path) (LaunchSpec, error) {
	t, err := s.Sessions(ctx)
	if err != nil {
		return LaunchSpec{}, err
	}
	node, err := t.Get(path)
	if err != nil {
		return LaunchSpec{}, err
	}
	sess, ok := node.(*tree.Session)
	if !ok {
		return LaunchSpec{}, fmt.Errorf("%w: %s", ErrNotSession, path)
	}
	return s.Launch(ctx, OpenRequest{Host: sess.Host, Port: sess.Port, Login: sess.Login, Password: sess.Password})
}

// Describe renders the confirmation text shown before removing n.
func Describe(n tree.Node) string {
	switch v := n.(type) {
	case *tree.Folder:
		return fmt.Sprintf("folder %q (%d subitems)", v.Name, len(v.Children))
	case *tree.Session:
		return fmt.Sprintf("session %q (%s)", v.Name, v.Host)
	default:
		return ""
	}
}

func (s *Service) insert(ctx context.Context, parent tree.Path, node tree.Node) (tree.Path, string, error) {
	t, _, err := s.load(ctx)
	if err != nil {
		return nil, "", err
	}
	exists, err := t.FindSiblingsWithName(parent, node.NodeName())
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", fmt.Errorf("%w: %q", ErrDuplicateName, node.NodeName())
	}
	path, err := t.Insert(parent, node)
	if err != nil {
		return nil, "", err
	}
	location, err := t.DescribePath(path)
	if err != nil {
		return nil, "", err
	}
	if err := s.commit(ctx, t); err != nil {
		return nil, "", err
	}
	return path, location, nil
}

// load reads and validates the document. A missing document is an empty
// tree. Re-encoded passwords are written back before returning.
func (s *Service) load(ctx context.Context) (tree.Tree, int, error) {
	raw, err := s.backend.Read(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return tree.Tree{Roots: []tree.Node{}}, 0, nil
	}
	if err != nil {
		return tree.Tree{}, 0, fmt.Errorf("reading sessions: %w", err)
	}

	t, n, err := Load(s.codec, raw, s.opts.Format)
	if err != nil {
		s.logger.Warn("sessions rejected", "error", err)
		return tree.Tree{}, 0, err
	}
	if n > 0 {
		if err := s.commit(ctx, t); err != nil {
			return tree.Tree{}, 0, err
		}
		s.logActivity(ctx, activity.TypePasswordsReencrypted, "", fmt.Sprintf("re-encrypted %d passwords", n), nil)
		s.logger.Info("passwords re-encrypted", "count", n)
	}
	return t, n, nil
}

// commit persists t and regenerates the menu.
func (s *Service) commit(ctx context.Context, t tree.Tree) error {
	data, err := Persist(t, s.opts.Format)
	if err != nil {
		return err
	}
	if err := s.backend.Write(ctx, data); err != nil {
		return fmt.Errorf("writing sessions: %w", err)
	}
	return s.writeMenu(ctx, t)
}

func (s *Service) writeMenu(ctx context.Context, t tree.Tree) error {
	if s.menu == nil {
		return nil
	}
	data, err := RenderMenu(t, s.opts.SessionsFile)
	if err != nil {
		return err
	}
	if err := s.menu.WriteMenu(ctx, data); err != nil {
		return fmt.Errorf("writing menu: %w", err)
	}
	return nil
}

func (s *Service) logActivity(ctx context.Context, typ activity.ActivityType, subject, summary string, details any) {
	if s.activity == nil {
		return
	}
	entry := &activity.ActivityEntry{ActivityType: typ, Subject: subject, Summary: summary}
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			entry.Details = string(b)
		}
	}
	if err := s.activity.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("activity not recorded", "type", typ, "error", err)
	}
}
