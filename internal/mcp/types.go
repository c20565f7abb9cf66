package mcp

import (
	"time"

	"github.com/ganot/quickssh/internal/domain/activity"
	"github.com/ganot/quickssh/internal/domain/store"
	"github.com/ganot/quickssh/internal/domain/tree"
)

// NodeRef addresses a node either by index path or by slash-separated
// location. Path wins when both are set.
type NodeRef struct {
	Path     []int  `json:"path,omitempty"`
	Location string `json:"location,omitempty"`
}

type ListSessionsParams struct {
	NodeRef
}

type ListFoldersParams struct {
	NodeRef
}

type NewSessionParams struct {
	Parent   NodeRef `json:"parent"`
	Name     string  `json:"name"`
	Host     string  `json:"host"`
	Port     int     `json:"port"`
	Login    string  `json:"login,omitempty"`
	Password string  `json:"password,omitempty"`
}

type NewFolderParams struct {
	Parent NodeRef `json:"parent"`
	Name   string  `json:"name"`
}

type RemoveNodeParams struct {
	NodeRef
	Confirm bool `json:"confirm"`
}

type OpenSessionParams struct {
	NodeRef
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Login    string `json:"login,omitempty"`
	Password string `json:"password,omitempty"` // stored token
}

type BeginNavigationParams struct {
	Mode tree.Mode `json:"mode"`
}

type NavigateParams struct {
	NavigationID string         `json:"navigation_id"`
	Event        tree.EventType `json:"event"`
	Index        int            `json:"index,omitempty"`
}

type GetRecentActivityParams struct {
	Subject string `json:"subject,omitempty"`
	Type    string `json:"type,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// NodeResponse is the wire view of a tree node. Password tokens are never
// listed; HasPassword tells whether one is stored.
type NodeResponse struct {
	Path        tree.Path      `json:"path"`
	Name        string         `json:"name"`
	Kind        tree.Kind      `json:"kind"`
	Host        string         `json:"host,omitempty"`
	Port        int            `json:"port,omitempty"`
	Login       string         `json:"login,omitempty"`
	HasPassword bool           `json:"has_password,omitempty"`
	Children    []NodeResponse `json:"children,omitempty"`
}

type ListSessionsResponse struct {
	Location string         `json:"location"`
	Nodes    []NodeResponse `json:"nodes"`
	Sessions int            `json:"sessions"`
}

type ListFoldersResponse struct {
	Location string             `json:"location"`
	Folders  []tree.FolderEntry `json:"folders"`
}

type CreatedResponse struct {
	Path     tree.Path `json:"path"`
	Location string    `json:"location"`
}

type RemoveNodeResponse struct {
	Removed     bool   `json:"removed"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type OpenSessionResponse struct {
	Launched bool   `json:"launched"`
	Target   string `json:"target"`
}

type MenuResponse struct {
	Menu string `json:"menu"`
}

type NavigationResponse struct {
	NavigationID string       `json:"navigation_id"`
	Mode         tree.Mode    `json:"mode"`
	State        tree.State   `json:"state"`
	Prompt       *tree.Prompt `json:"prompt,omitempty"`
	Location     string       `json:"location,omitempty"`
	Description  string       `json:"description,omitempty"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	Subject   string                `json:"subject,omitempty"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}

func toNodeResponses(prefix tree.Path, list []tree.Node) []NodeResponse {
	out := make([]NodeResponse, 0, len(list))
	for i, n := range list {
		path := prefix.Child(i)
		switch v := n.(type) {
		case *tree.Folder:
			out = append(out, NodeResponse{
				Path:     path,
				Name:     v.Name,
				Kind:     tree.KindFolder,
				Children: toNodeResponses(path, v.Children),
			})
		case *tree.Session:
			out = append(out, NodeResponse{
				Path:        path,
				Name:        v.Name,
				Kind:        tree.KindSession,
				Host:        v.Host,
				Port:        v.Port,
				Login:       v.Login,
				HasPassword: v.Password != "",
			})
		}
	}
	return out
}

func toOpenRequest(p OpenSessionParams) store.OpenRequest {
	return store.OpenRequest{Host: p.Host, Port: p.Port, Login: p.Login, Password: p.Password}
}
