package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ganot/quickssh/internal/domain/activity"
	"github.com/ganot/quickssh/internal/domain/store"
	"github.com/ganot/quickssh/internal/domain/tree"
)

// StoreService defines session store operations needed by MCP.
type StoreService interface {
	Sessions(ctx context.Context) (tree.Tree, error)
	Reload(ctx context.Context) (store.ReloadResult, error)
	Menu(ctx context.Context) ([]byte, error)
	CreateSession(ctx context.Context, parent tree.Path, in store.SessionInput) (tree.Path, error)
	CreateFolder(ctx context.Context, parent tree.Path, name string) (tree.Path, error)
	Remove(ctx context.Context, path tree.Path) (store.Removal, error)
	Launch(ctx context.Context, req store.OpenRequest) (store.LaunchSpec, error)
	LaunchPath(ctx context.Context, path tree.Path) (store.LaunchSpec, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Handler dispatches MCP commands.
type Handler struct {
	store       StoreService
	activity    ActivityService
	navigations *navigations
}

// NewHandler creates a new MCP handler. activitySvc may be nil, in which
// case get_recent_activity returns an empty list.
func NewHandler(storeSvc StoreService, activitySvc ActivityService) *Handler {
	return &Handler{
		store:       storeSvc,
		activity:    activitySvc,
		navigations: newNavigations(),
	}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, sessionID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "list_sessions":
		var req ListSessionsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.listSessions(ctx, req.NodeRef)
	case "list_folders":
		var req ListFoldersParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		t, path, err := h.resolve(ctx, req.NodeRef)
		if err != nil {
			return nil, mapError(err)
		}
		folders, err := t.ListFolders(path)
		if err != nil {
			return nil, mapError(err)
		}
		location, err := t.DescribePath(path)
		if err != nil {
			return nil, mapError(err)
		}
		return ListFoldersResponse{Location: location, Folders: folders}, nil
	case "new_session":
		var req NewSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		_, parent, err := h.resolve(ctx, req.Parent)
		if err != nil {
			return nil, mapError(err)
		}
		path, err := h.store.CreateSession(ctx, parent, store.SessionInput{
			Name:     req.Name,
			Host:     req.Host,
			Port:     req.Port,
			Login:    req.Login,
			Password: req.Password,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return h.created(ctx, path)
	case "new_folder":
		var req NewFolderParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		_, parent, err := h.resolve(ctx, req.Parent)
		if err != nil {
			return nil, mapError(err)
		}
		path, err := h.store.CreateFolder(ctx, parent, req.Name)
		if err != nil {
			return nil, mapError(err)
		}
		return h.created(ctx, path)
	case "remove_node":
		var req RemoveNodeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.removeNode(ctx, req)
	case "open_session":
		var req OpenSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var (
			spec store.LaunchSpec
			err  error
		)
		if req.NodeRef.isSet() {
			_, path, rerr := h.resolve(ctx, req.NodeRef)
			if rerr != nil {
				return nil, mapError(rerr)
			}
			spec, err = h.store.LaunchPath(ctx, path)
		} else {
			spec, err = h.store.Launch(ctx, toOpenRequest(req))
		}
		if err != nil {
			return nil, mapError(err)
		}
		return OpenSessionResponse{Launched: true, Target: spec.String()}, nil
	case "render_menu":
		data, err := h.store.Menu(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return MenuResponse{Menu: string(data)}, nil
	case "reload_sessions":
		result, err := h.store.Reload(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return result, nil
	case "begin_navigation":
		var req BeginNavigationParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.beginNavigation(ctx, sessionID, req)
	case "navigate":
		var req NavigateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.navigate(ctx, sessionID, req)
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.recentActivity(ctx, req)
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func (h *Handler) listSessions(ctx context.Context, ref NodeRef) (any, error) {
	t, path, err := h.resolve(ctx, ref)
	if err != nil {
		return nil, mapError(err)
	}
	location, err := t.DescribePath(path)
	if err != nil {
		return nil, mapError(err)
	}
	resp := ListSessionsResponse{Location: location, Sessions: len(t.Sessions())}
	if path.IsRoot() {
		resp.Nodes = toNodeResponses(tree.Path{}, t.Roots)
		return resp, nil
	}

	node, err := t.Get(path)
	if err != nil {
		return nil, mapError(err)
	}
	if folder, ok := node.(*tree.Folder); ok {
		resp.Nodes = toNodeResponses(path, folder.Children)
		return resp, nil
	}
	parent, idx, _ := path.Parent()
	resp.Nodes = toNodeResponses(parent, []tree.Node{node})
	resp.Nodes[0].Path = parent.Child(idx)
	return resp, nil
}

func (h *Handler) removeNode(ctx context.Context, req RemoveNodeParams) (any, error) {
	t, path, err := h.resolve(ctx, req.NodeRef)
	if err != nil {
		return nil, mapError(err)
	}
	if !req.Confirm {
		node, err := t.Get(path)
		if err != nil {
			return nil, mapError(err)
		}
		location, err := t.DescribePath(path)
		if err != nil {
			return nil, mapError(err)
		}
		return RemoveNodeResponse{Location: location, Description: store.Describe(node)}, nil
	}

	removal, err := h.store.Remove(ctx, path)
	if err != nil {
		return nil, mapError(err)
	}
	return RemoveNodeResponse{Removed: true, Location: removal.Location, Description: removal.Description}, nil
}

func (h *Handler) beginNavigation(ctx context.Context, sessionID string, req BeginNavigationParams) (any, error) {
	if req.Mode != tree.ModeInsert && req.Mode != tree.ModeRemove {
		return nil, mapError(fmt.Errorf("%w: mode must be %q or %q", store.ErrInvalidInput, tree.ModeInsert, tree.ModeRemove))
	}
	t, err := h.store.Sessions(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	id, state := h.navigations.begin(sessionID, req.Mode)
	prompt, err := tree.PromptFor(t, req.Mode, state)
	if err != nil {
		return nil, mapError(err)
	}
	return NavigationResponse{NavigationID: id, Mode: req.Mode, State: state, Prompt: &prompt}, nil
}

func (h *Handler) navigate(ctx context.Context, sessionID string, req NavigateParams) (any, error) {
	nav, err := h.navigations.get(sessionID, req.NavigationID)
	if err != nil {
		return nil, mapError(err)
	}
	t, err := h.store.Sessions(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	state, err := tree.Step(t, nav.mode, nav.state, tree.Event{Type: req.Event, Index: req.Index})
	if err != nil {
		return nil, mapError(err)
	}
	h.navigations.update(req.NavigationID, state)

	resp := NavigationResponse{NavigationID: req.NavigationID, Mode: nav.mode, State: state}
	switch state.Status {
	case tree.StatusBrowsing:
		prompt, err := tree.PromptFor(t, nav.mode, state)
		if err != nil {
			return nil, mapError(err)
		}
		resp.Prompt = &prompt
	case tree.StatusSelected:
		if resp.Location, err = t.DescribePath(state.Path); err != nil {
			return nil, mapError(err)
		}
		if nav.mode == tree.ModeRemove {
			node, err := t.Get(state.Path)
			if err != nil {
				return nil, mapError(err)
			}
			resp.Description = store.Describe(node)
		}
	}
	return resp, nil
}

func (h *Handler) recentActivity(ctx context.Context, req GetRecentActivityParams) (any, error) {
	resp := []ActivityEntryResponse{}
	if h.activity == nil {
		return resp, nil
	}
	opts := activity.ListActivityOptions{Limit: req.Limit, Offset: req.Offset}
	if req.Subject != "" {
		opts.Subject = &req.Subject
	}
	if req.Type != "" {
		typ := activity.ActivityType(req.Type)
		opts.ActivityType = &typ
	}
	entries, err := h.activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return nil, mapError(err)
	}
	for _, entry := range entries {
		resp = append(resp, ActivityEntryResponse{
			Timestamp: entry.CreatedAt,
			Type:      entry.ActivityType,
			Subject:   entry.Subject,
			Summary:   entry.Summary,
			Details:   entry.Details,
		})
	}
	return resp, nil
}

func (h *Handler) created(ctx context.Context, path tree.Path) (any, error) {
	t, err := h.store.Sessions(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	location, err := t.DescribePath(path)
	if err != nil {
		return nil, mapError(err)
	}
	return CreatedResponse{Path: path, Location: location}, nil
}

// resolve loads the tree and turns ref into a path. An empty ref is the root.
func (h *Handler) resolve(ctx context.Context, ref NodeRef) (tree.Tree, tree.Path, error) {
	t, err := h.store.Sessions(ctx)
	if err != nil {
		return tree.Tree{}, nil, err
	}
	if len(ref.Path) > 0 {
		return t, tree.Path(ref.Path), nil
	}
	path, err := t.ResolveLocation(ref.Location)
	if err != nil {
		return tree.Tree{}, nil, err
	}
	return t, path, nil
}

func (r NodeRef) isSet() bool {
	return len(r.Path) > 0 || strings.Trim(r.Location, "/") != ""
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: "INVALID_PARAMS", Message: "invalid parameters", Details: err.Error()}
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
