package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ganot/quickssh/internal/domain/tree"
)

const (
	// OpenCommand is the menu command that launches a session.
	OpenCommand = "quickssh_open"
	// NewCommand and RemoveCommand start the interactive flows.
	NewCommand    = "quickssh_new"
	RemoveCommand = "quickssh_remove"

	separatorCaption = "-"
)

// MenuItem is one node of the menu document. Items with a non-nil
// Children slice are groups; the rest are entries.
type MenuItem struct {
	Caption  string         `json:"caption"`
	Mnemonic string         `json:"mnemonic,omitempty"`
	ID       string         `json:"id,omitempty"`
	Command  string         `json:"command,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
	Children []MenuItem     `json:"children,omitempty"`
}

// IsGroup reports whether the item holds children.
func (m MenuItem) IsGroup() bool {
	return m.Children != nil
}

type menuGroup struct {
	Caption  string     `json:"caption"`
	Mnemonic string     `json:"mnemonic,omitempty"`
	ID       string     `json:"id,omitempty"`
	Children []MenuItem `json:"children"`
}

type menuEntry struct {
	Caption string         `json:"caption"`
	Command string         `json:"command,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
}

// MarshalJSON always emits "children" for groups, even empty ones.
func (m MenuItem) MarshalJSON() ([]byte, error) {
	if m.IsGroup() {
		return json.Marshal(menuGroup{Caption: m.Caption, Mnemonic: m.Mnemonic, ID: m.ID, Children: m.Children})
	}
	return json.Marshal(menuEntry{Caption: m.Caption, Command: m.Command, Args: m.Args})
}

// ToMenu mirrors the tree as menu items. Sessions carry their stored
// password token, never plaintext.
func ToMenu(t tree.Tree) []MenuItem {
	return buildMenu(t.Roots)
}

func buildMenu(nodes []tree.Node) []MenuItem {
	items := make([]MenuItem, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case *tree.Folder:
			items = append(items, MenuItem{Caption: v.Name, Children: buildMenu(v.Children)})
		case *tree.Session:
			args := map[string]any{"host": v.Host, "port": v.Port}
			if v.Login != "" {
				args["login"] = v.Login
			}
			if v.Password != "" {
				args["password"] = v.Password
			}
			items = append(items, MenuItem{Caption: v.Name, Command: OpenCommand, Args: args})
		}
	}
	return items
}

// menuTemplate returns the fixed part of the menu document. Session items
// are appended to the last top-level group.
func menuTemplate(sessionsFile string) []MenuItem {
	return []MenuItem{
		{
			Caption:  "Preferences",
			Mnemonic: "n",
			ID:       "preferences",
			Children: []MenuItem{{
				Caption:  "Package Settings",
				Mnemonic: "P",
				ID:       "package-settings",
				Children: []MenuItem{{
					Caption:  "quickssh",
					Mnemonic: "Q",
					ID:       "quickssh",
					Children: []MenuItem{{
						Caption: "Settings",
						Command: "edit_settings",
						Args: map[string]any{
							"base_file": "${packages}/quickssh/quickssh.sublime-settings",
							"default":   "{\n\t$0\n}\n",
						},
					}},
				}},
			}},
		},
		{
			Caption:  "SSH",
			Mnemonic: "u",
			ID:       "quickssh-sessions",
			Children: []MenuItem{
				{Caption: "New session", Command: NewCommand},
				{Caption: "Manage sessions", Command: "open_file", Args: map[string]any{"file": sessionsFile}},
				{Caption: "Remove session", Command: RemoveCommand},
				{Caption: separatorCaption},
			},
		},
	}
}

// RenderMenu produces the full menu document for t. sessionsFile is the
// location opened by the "Manage sessions" entry.
func RenderMenu(t tree.Tree, sessionsFile string) ([]byte, error) {
	menu := menuTemplate(sessionsFile)
	last := &menu[len(menu)-1]
	last.Children = append(last.Children, ToMenu(t)...)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(menu); err != nil {
		return nil, fmt.Errorf("encoding menu: %w", err)
	}
	return buf.Bytes(), nil
}
