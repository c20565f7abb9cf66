package store

import (
	"fmt"

	"github.com/ganot/quickssh/internal/domain/tree"
)

// Load parses and validates a persisted document, then runs the re-encrypt
// pass. The returned count reports how many passwords were re-encoded; a
// non-zero count means the caller must write the tree back.
func Load(c Codec, raw []byte, format Format) (tree.Tree, int, error) {
	doc, err := decodeDocument(raw, format)
	if err != nil {
		return tree.Tree{}, 0, err
	}

	var t tree.Tree
	if legacy, ok := doc.(*tree.RawMap); ok {
		t, err = tree.ValidateLegacy(legacy)
	} else {
		t, err = tree.Validate(doc)
	}
	if err != nil {
		return tree.Tree{}, 0, err
	}

	n, err := ReEncrypt(c, &t)
	if err != nil {
		return tree.Tree{}, 0, err
	}
	return t, n, nil
}

// ReEncrypt encodes the password of every session carrying the encrypt
// marker and clears the marker. Sessions without the marker are left alone,
// so running it twice is a no-op. On error t is not modified.
func ReEncrypt(c Codec, t *tree.Tree) (int, error) {
	type pending struct {
		session *tree.Session
		token   string
	}
	var updates []pending

	err := t.Walk(func(path tree.Path, n tree.Node) error {
		s, ok := n.(*tree.Session)
		if !ok || !s.Encrypt {
			return nil
		}
		token := s.Password
		if s.Password != "" {
			encoded, err := c.Encode(s.Password)
			if err != nil {
				return fmt.Errorf("encrypting password of %s: %w", path, err)
			}
			token = encoded
		}
		updates = append(updates, pending{session: s, token: token})
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, u := range updates {
		u.session.Password = u.token
		u.session.Encrypt = false
	}
	return len(updates), nil
}

// Persist serializes t in a form Load accepts.
func Persist(t tree.Tree, format Format) ([]byte, error) {
	return encodeDocument(t, format)
}
