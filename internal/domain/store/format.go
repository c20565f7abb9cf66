package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ganot/quickssh/internal/domain/tree"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding of the persisted sessions document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a configuration value to a Format. An empty value means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown sessions format %q", s)
	}
}

// EncryptHint is written above the persisted document.
const EncryptHint = `If you change a password, add "encrypt": true to that session and save; it will be re-encoded.`

// decodeDocument parses raw into ordered maps, lists and scalars. A blank
// document decodes to an empty list.
func decodeDocument(raw []byte, format Format) (any, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(raw)
	case FormatJSON, "":
		return decodeJSON(raw)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidFormat, format)
	}
}

// stripLineComments blanks out lines whose first non-space characters are //.
func stripLineComments(raw []byte) []byte {
	var out bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), len(raw)+1)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(bytes.TrimSpace(line), []byte("//")) {
			out.Write(line)
		}
		out.WriteByte('\n')
	}
	return out.Bytes()
}

func decodeJSON(raw []byte) (any, error) {
	cleaned := stripLineComments(raw)
	if len(bytes.TrimSpace(cleaned)) == 0 {
		return []any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(cleaned))
	dec.UseNumber()

	value, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after document", ErrInvalidFormat)
	}
	return value, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		m := tree.NewRawMap()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key %v is not a string", keyTok)
			}
			value, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			m.Set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return m, nil
	case '[':
		list := []any{}
		for dec.More() {
			value, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

func decodeYAML(raw []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return []any{}, nil
	}
	value, err := convertYAML(doc.Content[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return value, nil
}

func convertYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return convertYAML(n.Content[0])
	case yaml.AliasNode:
		return convertYAML(n.Alias)
	case yaml.MappingNode:
		m := tree.NewRawMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			value, err := convertYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(keyNode.Value, value)
		}
		return m, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := convertYAML(item)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int":
			var i int64
			if err := n.Decode(&i); err != nil {
				return nil, fmt.Errorf("line %d: %v", n.Line, err)
			}
			return i, nil
		case "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return nil, fmt.Errorf("line %d: %v", n.Line, err)
			}
			return f, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, fmt.Errorf("line %d: %v", n.Line, err)
			}
			return b, nil
		case "!!null":
			return nil, nil
		default:
			return n.Value, nil
		}
	default:
		return nil, fmt.Errorf("line %d: unsupported node", n.Line)
	}
}

// sessionDoc and folderDoc fix the key order of persisted nodes.
type folderDoc struct {
	Name     string `json:"name" yaml:"name"`
	Children []any  `json:"children" yaml:"children"`
}

type sessionDoc struct {
	Name     string `json:"name" yaml:"name"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Login    string `json:"login,omitempty" yaml:"login,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Encrypt  bool   `json:"encrypt,omitempty" yaml:"encrypt,omitempty"`
}

func toDocs(nodes []tree.Node) []any {
	docs := make([]any, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case *tree.Folder:
			docs = append(docs, folderDoc{Name: v.Name, Children: toDocs(v.Children)})
		case *tree.Session:
			docs = append(docs, sessionDoc{
				Name:     v.Name,
				Host:     v.Host,
				Port:     v.Port,
				Login:    v.Login,
				Password: v.Password,
				Encrypt:  v.Encrypt,
			})
		}
	}
	return docs
}

func encodeDocument(t tree.Tree, format Format) ([]byte, error) {
	docs := toDocs(t.Roots)
	var buf bytes.Buffer

	switch format {
	case FormatYAML:
		buf.WriteString("# " + EncryptHint + "\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
	case FormatJSON, "":
		buf.WriteString("// " + EncryptHint + "\n")
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		if err := enc.Encode(docs); err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidFormat, format)
	}
	return buf.Bytes(), nil
}
