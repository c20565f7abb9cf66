package tree

import (
	"fmt"
	"strings"
)

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	out := Tree{Roots: make([]Node, len(t.Roots))}
	for i, n := range t.Roots {
		out.Roots[i] = n.clone()
	}
	return out
}

// Len returns the number of root-level nodes.
func (t Tree) Len() int {
	return len(t.Roots)
}

// Get returns the node at path.
func (t Tree) Get(path Path) (Node, error) {
	if path.IsRoot() {
		return nil, fmt.Errorf("%w: root is not a node", ErrNotFound)
	}
	parent, idx, _ := path.Parent()
	children, err := t.children(parent)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(children) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return children[idx], nil
}

// children resolves the child list at path, which must be the root or a folder.
func (t Tree) children(path Path) ([]Node, error) {
	list := t.Roots
	for depth, idx := range path {
		if idx < 0 || idx >= len(list) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path[:depth+1])
		}
		folder, ok := list[idx].(*Folder)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a folder", ErrNotFound, path[:depth+1])
		}
		list = folder.Children
	}
	return list, nil
}

// setChildren replaces the child list at path.
func (t *Tree) setChildren(path Path, list []Node) error {
	if path.IsRoot() {
		t.Roots = list
		return nil
	}
	node, err := t.Get(path)
	if err != nil {
		return err
	}
	folder, ok := node.(*Folder)
	if !ok {
		return fmt.Errorf("%w: %s is not a folder", ErrNotFound, path)
	}
	folder.Children = list
	return nil
}

// Insert appends node as the last child of the folder at parent and returns
// the new node's path.
func (t *Tree) Insert(parent Path, node Node) (Path, error) {
	if node == nil {
		return nil, fmt.Errorf("insert: nil node")
	}
	list, err := t.children(parent)
	if err != nil {
		return nil, err
	}
	list = append(list, node)
	if err := t.setChildren(parent, list); err != nil {
		return nil, err
	}
	return parent.Child(len(list) - 1), nil
}

// Remove deletes the node at path and returns it.
func (t *Tree) Remove(path Path) (Node, error) {
	parent, idx, ok := path.Parent()
	if !ok {
		return nil, fmt.Errorf("%w: cannot remove root", ErrNotFound)
	}
	list, err := t.children(parent)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(list) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	removed := list[idx]
	next := make([]Node, 0, len(list)-1)
	next = append(next, list[:idx]...)
	next = append(next, list[idx+1:]...)
	if err := t.setChildren(parent, next); err != nil {
		return nil, err
	}
	return removed, nil
}

// FindSiblingsWithName reports whether the folder at parent already holds a
// direct child called name.
func (t Tree) FindSiblingsWithName(parent Path, name string) (bool, error) {
	list, err := t.children(parent)
	if err != nil {
		return false, err
	}
	for _, n := range list {
		if n.NodeName() == name {
			return true, nil
		}
	}
	return false, nil
}

// ListFolders returns the folders directly under parent in child order.
func (t Tree) ListFolders(parent Path) ([]FolderEntry, error) {
	list, err := t.children(parent)
	if err != nil {
		return nil, err
	}
	folders := []FolderEntry{}
	for i, n := range list {
		if f, ok := n.(*Folder); ok {
			folders = append(folders, FolderEntry{Index: i, Name: f.Name})
		}
	}
	return folders, nil
}

// ListChildren returns every direct child of parent.
func (t Tree) ListChildren(parent Path) ([]Entry, error) {
	list, err := t.children(parent)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(list))
	for i, n := range list {
		entry := Entry{Index: i, Name: n.NodeName(), Kind: n.Kind()}
		switch v := n.(type) {
		case *Folder:
			entry.Children = len(v.Children)
		case *Session:
			entry.Host = v.Host
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ResolveNames walks the tree by names, taking the first match at each level.
func (t Tree) ResolveNames(names []string) (Path, error) {
	var path Path
	for _, name := range names {
		list, err := t.children(path)
		if err != nil {
			return nil, err
		}
		found := -1
		for i, n := range list {
			if n.NodeName() == name {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("%w: no child named %q under %s", ErrNotFound, name, path)
		}
		path = path.Child(found)
	}
	return path, nil
}

// ResolveLocation resolves a slash-separated location such as "/work/db".
// The empty location and "/" are the root.
func (t Tree) ResolveLocation(location string) (Path, error) {
	var names []string
	for _, part := range strings.Split(location, "/") {
		if part != "" {
			names = append(names, part)
		}
	}
	path, err := t.ResolveNames(names)
	if err != nil {
		return nil, err
	}
	if path == nil {
		path = Path{}
	}
	return path, nil
}

// Walk visits every node depth-first in child order. Returning a non-nil
// error from fn stops the walk.
func (t Tree) Walk(fn func(path Path, node Node) error) error {
	return walk(nil, t.Roots, fn)
}

func walk(prefix Path, list []Node, fn func(Path, Node) error) error {
	for i, n := range list {
		p := prefix.Child(i)
		if err := fn(p, n); err != nil {
			return err
		}
		if f, ok := n.(*Folder); ok {
			if err := walk(p, f.Children, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sessions returns every leaf in depth-first order.
func (t Tree) Sessions() []*Session {
	var out []*Session
	_ = t.Walk(func(_ Path, n Node) error {
		if s, ok := n.(*Session); ok {
			out = append(out, s)
		}
		return nil
	})
	return out
}
