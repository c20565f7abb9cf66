package mcp

import (
	"sync"
	"time"

	"github.com/ganot/quickssh/internal/domain/tree"
	"github.com/google/uuid"
)

// navigationTTL bounds how long an idle navigation is kept.
const navigationTTL = 30 * time.Minute

type navigation struct {
	owner   string
	mode    tree.Mode
	state   tree.State
	touched time.Time
}

// navigations holds in-progress tree navigations keyed by a random ID.
// Each navigation belongs to the MCP session that started it.
type navigations struct {
	mu    sync.Mutex
	items map[string]*navigation
	now   func() time.Time
}

func newNavigations() *navigations {
	return &navigations{items: make(map[string]*navigation), now: time.Now}
}

func (n *navigations) begin(owner string, mode tree.Mode) (string, tree.State) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.pruneLocked()
	id := uuid.NewString()
	state := tree.Start()
	n.items[id] = &navigation{owner: owner, mode: mode, state: state, touched: n.now()}
	return id, state
}

func (n *navigations) get(owner, id string) (navigation, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.pruneLocked()
	nav, ok := n.items[id]
	if !ok || nav.owner != owner {
		return navigation{}, errNavigationNotFound
	}
	return *nav, nil
}

// update stores state, dropping the navigation once it is terminal.
func (n *navigations) update(id string, state tree.State) {
	n.mu.Lock()
	defer n.mu.Unlock()

	nav, ok := n.items[id]
	if !ok {
		return
	}
	if state.Done() {
		delete(n.items, id)
		return
	}
	nav.state = state
	nav.touched = n.now()
}

func (n *navigations) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.items)
}

func (n *navigations) pruneLocked() {
	cutoff := n.now().Add(-navigationTTL)
	for id, nav := range n.items {
		if nav.touched.Before(cutoff) {
			delete(n.items, id)
		}
	}
}
