package tree

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// RawMap is a decoded mapping that remembers key order.
type RawMap struct {
	Keys   []string
	Values map[string]any
}

// NewRawMap returns an empty RawMap.
func NewRawMap() *RawMap {
	return &RawMap{Values: map[string]any{}}
}

// Set stores value under key, keeping the first position of repeated keys.
func (m *RawMap) Set(key string, value any) {
	if _, exists := m.Values[key]; !exists {
		m.Keys = append(m.Keys, key)
	}
	m.Values[key] = value
}

// Get returns the value stored under key.
func (m *RawMap) Get(key string) (any, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// Validate checks a decoded document and converts it into a Tree. The
// document must be a sequence of nodes; the first violation aborts
// validation and nothing is returned.
func Validate(raw any) (Tree, error) {
	list, ok := raw.([]any)
	if !ok {
		return Tree{}, &ValidationError{Reason: fmt.Sprintf("expected a list of nodes, got %s", describe(raw))}
	}
	roots, err := validateList(nil, list)
	if err != nil {
		return Tree{}, err
	}
	return Tree{Roots: roots}, nil
}

// ValidateLegacy converts the flat name → session mapping layout into a tree
// of root-level sessions, in document order.
func ValidateLegacy(m *RawMap) (Tree, error) {
	roots := make([]Node, 0, len(m.Keys))
	for i, name := range m.Keys {
		fields, ok := asMap(m.Values[name])
		if !ok {
			return Tree{}, &ValidationError{Path: strconv.Quote(name), Reason: "session must be a mapping"}
		}
		sess, err := validateSession(Path{i}, name, fields)
		if err != nil {
			return Tree{}, err
		}
		roots = append(roots, sess)
	}
	return Tree{Roots: roots}, nil
}

func validateList(prefix Path, list []any) ([]Node, error) {
	nodes := make([]Node, 0, len(list))
	for i, item := range list {
		path := prefix.Child(i)
		fields, ok := asMap(item)
		if !ok {
			return nil, &ValidationError{Path: path.String(), Reason: "node must be a mapping"}
		}
		nameValue, ok := fields.Get("name")
		if !ok {
			return nil, &ValidationError{Path: path.String(), Reason: "missing name"}
		}
		name, ok := nameValue.(string)
		if !ok {
			return nil, &ValidationError{Path: path.String(), Reason: "name must be a string"}
		}

		if childrenValue, isFolder := fields.Get("children"); isFolder {
			childList, ok := childrenValue.([]any)
			if !ok {
				return nil, &ValidationError{Path: path.String(), Reason: "children must be a list"}
			}
			children, err := validateList(path, childList)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Folder{Name: name, Children: children})
			continue
		}

		sess, err := validateSession(path, name, fields)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, sess)
	}
	return nodes, nil
}

func validateSession(path Path, name string, fields *RawMap) (*Session, error) {
	sess := &Session{Name: name}

	hostValue, ok := fields.Get("host")
	if !ok {
		return nil, &ValidationError{Path: path.String(), Reason: "missing host"}
	}
	if sess.Host, ok = hostValue.(string); !ok {
		return nil, &ValidationError{Path: path.String(), Reason: "host must be a string"}
	}

	portValue, ok := fields.Get("port")
	if !ok {
		return nil, &ValidationError{Path: path.String(), Reason: "missing port"}
	}
	port, ok := asInt(portValue)
	if !ok {
		return nil, &ValidationError{Path: path.String(), Reason: "port must be an integer"}
	}
	if port < 0 {
		return nil, &ValidationError{Path: path.String(), Reason: fmt.Sprintf("port must not be negative, got %d", port)}
	}
	sess.Port = port

	if v, present := fields.Get("login"); present {
		if sess.Login, ok = v.(string); !ok {
			return nil, &ValidationError{Path: path.String(), Reason: "login must be a string"}
		}
	}
	if v, present := fields.Get("password"); present {
		if sess.Password, ok = v.(string); !ok {
			return nil, &ValidationError{Path: path.String(), Reason: "password must be a string"}
		}
	}
	_, sess.Encrypt = fields.Get("encrypt")

	return sess, nil
}

func asMap(v any) (*RawMap, bool) {
	switch m := v.(type) {
	case *RawMap:
		return m, true
	case map[string]any:
		out := NewRawMap()
		for k, val := range m {
			out.Set(k, val)
		}
		return out, true
	default:
		return nil, false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 0)
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case *RawMap, map[string]any:
		return "a mapping"
	case string:
		return "a string"
	default:
		return fmt.Sprintf("%T", v)
	}
}
