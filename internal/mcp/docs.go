package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `quickssh keeps SSH session shortcuts in a folder/session tree and launches an external SSH client for them.

Core concepts:
- Folder: a named group of sessions and nested folders. Child order is the order shown in menus.
- Session: name, host, port and optional login and password. Passwords are stored as base-36 tokens, never in plaintext.
- Path: child indices from the root, e.g. [0, 2]. Location: slash-separated names, e.g. /work/db. Tools accept either.

Default workflow:
1) Orient: list_sessions (optionally under a folder).
2) Create: new_folder / new_session. Names must be unique within their folder.
3) Remove: remove_node without confirm shows what would go; repeat with confirm=true.
4) Launch: open_session by path or location.
5) After editing the sessions file by hand, call reload_sessions; sessions marked "encrypt": true get their password encoded.

Interactive picking: begin_navigation(mode=insert|remove) then navigate with enter_folder / select_here / select_child / cancel.

Docs:
- quickssh://docs/index
- quickssh://docs/sessions-file
- quickssh://docs/navigation
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "quickssh://docs/index",
		Name:        "docs_index",
		Title:       "quickssh docs index",
		Description: "Entry point: what the tools do and which doc to read next.",
		Content: `# quickssh: Agent Docs Index

## Quick start

1. ` + "`list_sessions`" + ` to see the tree (passwords are never listed).
2. ` + "`new_folder`" + ` / ` + "`new_session`" + ` to add entries.
3. ` + "`open_session`" + ` to launch the configured SSH client.
4. ` + "`get_recent_activity`" + ` to see what changed.

## Docs

- ` + "`quickssh://docs/sessions-file`" + ` - the on-disk document, the encrypt marker and the legacy layout.
- ` + "`quickssh://docs/navigation`" + ` - the interactive folder picker.

## Limitations

- Password tokens are obfuscated, not encrypted. Anyone with the key material can decode them.
- A document that fails validation blocks every write until it is fixed by hand.
`,
	},
	{
		URI:         "quickssh://docs/sessions-file",
		Name:        "docs_sessions_file",
		Title:       "The sessions file",
		Description: "Document layout, validation rules and password handling.",
		Content: `# The sessions file

The document is a list of nodes, in JSON (with // line comments) or YAML.

- Folder: ` + "`{\"name\": \"work\", \"children\": [...]}`" + `
- Session: ` + "`{\"name\": \"db\", \"host\": \"10.0.0.5\", \"port\": 22, \"login\": \"alice\", \"password\": \"...\"}`" + `

## Validation

- Every node needs a string name.
- A folder's children must be a list. A session must have a string host and an integer port.
- login and password, when present, must be strings.
- The first violation rejects the whole document; nothing is written back.

## Passwords

Write a plaintext password and add ` + "`\"encrypt\": true`" + `. On the next load the password is
replaced by its token and the marker is dropped. Tokens are base-36 and decode only with the
same key material.

## Legacy layout

A top-level mapping of name to session fields is read as a flat list of sessions, in key order.
It is rewritten as a list on the next save.
`,
	},
	{
		URI:         "quickssh://docs/navigation",
		Name:        "docs_navigation",
		Title:       "Interactive navigation",
		Description: "How begin_navigation and navigate pick a folder or node.",
		Content: `# Interactive navigation

` + "`begin_navigation`" + ` returns a navigation_id and a prompt listing the choices at the root.

Modes:
- insert: only folders are listed. select_here picks the current folder (the root is allowed).
- remove: every child is listed. select_child picks a node; select_here picks the current folder (not the root).

Events: enter_folder(index), select_here, select_child(index), cancel.

A selected or cancelled navigation is finished; further events fail with NAVIGATION_DONE.
The selected path is then passed to new_session / new_folder (as parent) or remove_node.
Idle navigations expire after 30 minutes.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
