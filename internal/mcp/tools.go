package mcp

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func nodeRefProperties(what string) map[string]any {
	return map[string]any{
		"path": map[string]any{
			"type":        "array",
			"description": "Child indices from the root to the " + what + " (omit for the root)",
			"items":       map[string]any{"type": "integer", "minimum": 0},
		},
		"location": map[string]any{
			"type":        "string",
			"description": "Slash-separated names, e.g. /work/db (used when path is omitted)",
		},
	}
}

func nodeRefSchema(what string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "The " + what + ", by path or location",
		"properties":  nodeRefProperties(what),
	}
}

func withProperties(base map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Browsing
		{
			Name:        "list_sessions",
			Description: "List the folder/session tree, or the subtree under a folder. Passwords are never returned.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": nodeRefProperties("folder"),
			},
		},
		{
			Name:        "list_folders",
			Description: "List the direct subfolders of a folder with their indices",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": nodeRefProperties("folder"),
			},
		},
		{
			Name:        "render_menu",
			Description: "Render the editor menu document generated from the sessions",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "get_recent_activity",
			Description: "Get recent store activity, newest first",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"subject": map[string]any{
						"type":        "string",
						"description": "Filter by node location, e.g. /work/db",
					},
					"type": map[string]any{
						"type":        "string",
						"description": "Filter by activity type",
						"enum": []string{
							"session_created", "folder_created", "node_removed",
							"sessions_reloaded", "passwords_reencrypted", "session_opened",
						},
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of entries",
					},
					"offset": map[string]any{
						"type":        "integer",
						"description": "Offset for pagination",
					},
				},
			},
		},

		// Mutation
		{
			Name:        "new_session",
			Description: "Create a session in a folder. The password is stored encoded.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"parent": nodeRefSchema("parent folder"),
					"name": map[string]any{
						"type":        "string",
						"description": "Session name, unique within the folder",
					},
					"host": map[string]any{
						"type":        "string",
						"description": "Server host; sloppy IPv4 such as http://10,0,0,5 is normalized",
					},
					"port": map[string]any{
						"type":        "integer",
						"description": "Server port",
						"minimum":     1,
					},
					"login": map[string]any{
						"type":        "string",
						"description": "Login name",
					},
					"password": map[string]any{
						"type":        "string",
						"description": "Plaintext password",
					},
				},
				"required": []string{"name", "host", "port"},
			},
		},
		{
			Name:        "new_folder",
			Description: "Create an empty folder",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"parent": nodeRefSchema("parent folder"),
					"name": map[string]any{
						"type":        "string",
						"description": "Folder name, unique within the parent",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "remove_node",
			Description: "Remove a session or a folder with everything in it. Without confirm=true only describes what would be removed.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": withProperties(nodeRefProperties("node"), map[string]any{
					"confirm": map[string]any{
						"type":        "boolean",
						"description": "Actually remove the node",
					},
				}),
			},
		},
		{
			Name:        "reload_sessions",
			Description: "Re-read the sessions file, encode pending passwords and regenerate the menu",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},

		// Launching
		{
			Name:        "open_session",
			Description: "Launch the SSH client for a stored session (by path or location) or for explicit connection details",
			InputSchema: map[string]any{
				"type": "object",
				"properties": withProperties(nodeRefProperties("session"), map[string]any{
					"host": map[string]any{
						"type":        "string",
						"description": "Host (when no stored session is addressed; omit to start the client bare)",
					},
					"port": map[string]any{
						"type":        "integer",
						"description": "Port, default 22",
					},
					"login": map[string]any{
						"type":        "string",
						"description": "Login name",
					},
					"password": map[string]any{
						"type":        "string",
						"description": "Stored password token",
					},
				}),
			},
		},

		// Navigation
		{
			Name:        "begin_navigation",
			Description: "Start an interactive walk of the tree to pick an insertion folder or a node to remove",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"mode": map[string]any{
						"type": "string",
						"enum": []string{"insert", "remove"},
					},
				},
				"required": []string{"mode"},
			},
		},
		{
			Name:        "navigate",
			Description: "Feed one event to a navigation started with begin_navigation",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"navigation_id": map[string]any{
						"type": "string",
					},
					"event": map[string]any{
						"type": "string",
						"enum": []string{"enter_folder", "select_here", "select_child", "cancel"},
					},
					"index": map[string]any{
						"type":        "integer",
						"description": "Child index for enter_folder and select_child",
						"minimum":     0,
					},
				},
				"required": []string{"navigation_id", "event"},
			},
		},
	}
}
