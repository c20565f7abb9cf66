package tree

import (
	"strconv"
	"strings"
)

// Kind distinguishes folders from sessions.
type Kind string

const (
	KindFolder  Kind = "folder"
	KindSession Kind = "session"
)

// Node is either a *Folder or a *Session.
type Node interface {
	NodeName() string
	Kind() Kind
	clone() Node
}

// Folder groups sessions and nested folders. Child order is significant.
type Folder struct {
	Name     string
	Children []Node
}

// Session is a leaf describing one remote target. Password holds a codec
// token once the encrypt marker has been processed; Encrypt mirrors that
// marker while it is still pending.
type Session struct {
	Name     string
	Host     string
	Port     int
	Login    string
	Password string
	Encrypt  bool
}

func (f *Folder) NodeName() string { return f.Name }
func (f *Folder) Kind() Kind       { return KindFolder }

func (f *Folder) clone() Node {
	cp := &Folder{Name: f.Name, Children: make([]Node, len(f.Children))}
	for i, child := range f.Children {
		cp.Children[i] = child.clone()
	}
	return cp
}

func (s *Session) NodeName() string { return s.Name }
func (s *Session) Kind() Kind       { return KindSession }

func (s *Session) clone() Node {
	cp := *s
	return &cp
}

// Path addresses a node by child indices from the root list. The empty
// path is the root itself.
type Path []int

// Child returns a new path one level below p.
func (p Path) Child(index int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, index)
}

// Parent returns the containing path and the index within it.
func (p Path) Parent() (Path, int, bool) {
	if len(p) == 0 {
		return nil, 0, false
	}
	return p[:len(p)-1], p[len(p)-1], true
}

// IsRoot reports whether p is the empty path.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return "/" + strings.Join(parts, "/")
}

// FolderEntry is one folder in a listing, with its index among all siblings.
type FolderEntry struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Entry is one child of any kind in a listing.
type Entry struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Host     string `json:"host,omitempty"`
	Children int    `json:"children,omitempty"`
}

// Tree is the ordered list of root-level nodes.
type Tree struct {
	Roots []Node
}
