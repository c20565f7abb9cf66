package tree

import "fmt"

// Mode selects what a navigation is for.
type Mode string

const (
	// ModeInsert picks a folder (or the root) to insert into.
	ModeInsert Mode = "insert"
	// ModeRemove picks a node to delete.
	ModeRemove Mode = "remove"
)

// Status is the lifecycle stage of a navigation.
type Status string

const (
	StatusBrowsing  Status = "browsing"
	StatusSelected  Status = "selected"
	StatusCancelled Status = "cancelled"
)

// EventType names a navigation input.
type EventType string

const (
	EventEnterFolder EventType = "enter_folder"
	EventSelectHere  EventType = "select_here"
	EventSelectChild EventType = "select_child"
	EventCancel      EventType = "cancel"
)

// Event is one user input fed to the navigation state machine.
type Event struct {
	Type  EventType `json:"type"`
	Index int       `json:"index,omitempty"`
}

func EnterFolder(index int) Event { return Event{Type: EventEnterFolder, Index: index} }
func SelectHere() Event           { return Event{Type: EventSelectHere} }
func SelectChild(index int) Event { return Event{Type: EventSelectChild, Index: index} }
func Cancel() Event               { return Event{Type: EventCancel} }

// State is the current position of a navigation. When Status is
// StatusSelected, Path is the chosen target: the insertion folder in
// ModeInsert, the node to delete in ModeRemove.
type State struct {
	Path   Path   `json:"path"`
	Status Status `json:"status"`
}

// Start returns the initial state, positioned at the root.
func Start() State {
	return State{Path: Path{}, Status: StatusBrowsing}
}

// Done reports whether the state is terminal.
func (s State) Done() bool {
	return s.Status != StatusBrowsing
}

// Step applies one event. It never mutates t or s.
func Step(t Tree, mode Mode, s State, e Event) (State, error) {
	if s.Done() {
		return s, ErrNavigationDone
	}

	switch e.Type {
	case EventCancel:
		return State{Path: s.Path, Status: StatusCancelled}, nil

	case EventEnterFolder:
		next := s.Path.Child(e.Index)
		node, err := t.Get(next)
		if err != nil {
			return s, err
		}
		if _, ok := node.(*Folder); !ok {
			return s, fmt.Errorf("%w: %s is not a folder", ErrNotFound, next)
		}
		return State{Path: next, Status: StatusBrowsing}, nil

	case EventSelectHere:
		if mode == ModeRemove && s.Path.IsRoot() {
			return s, fmt.Errorf("%w: the root cannot be removed", ErrInvalidEvent)
		}
		if _, err := t.children(s.Path); err != nil {
			return s, err
		}
		return State{Path: s.Path, Status: StatusSelected}, nil

	case EventSelectChild:
		if mode != ModeRemove {
			return s, fmt.Errorf("%w: %s is only valid when removing", ErrInvalidEvent, e.Type)
		}
		target := s.Path.Child(e.Index)
		if _, err := t.Get(target); err != nil {
			return s, err
		}
		return State{Path: target, Status: StatusSelected}, nil

	default:
		return s, fmt.Errorf("%w: %q", ErrInvalidEvent, e.Type)
	}
}

// Prompt describes what the UI should offer for a browsing state.
type Prompt struct {
	Mode     Mode    `json:"mode"`
	Path     Path    `json:"path"`
	Location string  `json:"location"`
	CanHere  bool    `json:"can_select_here"`
	Entries  []Entry `json:"entries"`
}

// PromptFor lists the choices available at s. In ModeInsert only folders
// are listed; in ModeRemove every child is.
func PromptFor(t Tree, mode Mode, s State) (Prompt, error) {
	p := Prompt{Mode: mode, Path: s.Path, CanHere: !(mode == ModeRemove && s.Path.IsRoot())}

	location, err := t.DescribePath(s.Path)
	if err != nil {
		return Prompt{}, err
	}
	p.Location = location

	switch mode {
	case ModeRemove:
		p.Entries, err = t.ListChildren(s.Path)
		if err != nil {
			return Prompt{}, err
		}
	default:
		folders, err := t.ListFolders(s.Path)
		if err != nil {
			return Prompt{}, err
		}
		p.Entries = make([]Entry, 0, len(folders))
		for _, f := range folders {
			p.Entries = append(p.Entries, Entry{Index: f.Index, Name: f.Name, Kind: KindFolder})
		}
	}
	return p, nil
}

// DescribePath renders a path as slash-separated names.
func (t Tree) DescribePath(path Path) (string, error) {
	location := "/"
	for depth := range path {
		node, err := t.Get(path[:depth+1])
		if err != nil {
			return "", err
		}
		if depth > 0 {
			location += "/"
		}
		location += node.NodeName()
	}
	return location, nil
}
