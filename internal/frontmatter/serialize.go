package frontmatter

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Serialize encodes fields without delimiters, in the syntax recorded in
// style (YAML when unset). Keys are sorted so equal maps give equal bytes,
// and an empty map gives an empty block.
func Serialize(fields map[string]any, style Style) ([]byte, error) {
	if style.Format == FormatTOML {
		return SerializeTOML(fields, style)
	}
	return SerializeYAML(fields, style)
}

// SerializeTOML relies on go-toml sorting map keys.
func SerializeTOML(fields map[string]any, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}
	out, err := toml.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return withNewline(out, style.Newline), nil
}

func SerializeYAML(fields map[string]any, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}
	root, err := mappingNode(fields)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return withNewline(buf.Bytes(), style.Newline), nil
}

func withNewline(out []byte, nl string) []byte {
	if nl == "" || nl == "\n" {
		return out
	}
	return bytes.ReplaceAll(out, []byte("\n"), []byte(nl))
}

// mappingNode emits m with sorted keys, recursing into nested maps and
// lists; map iteration order never reaches the output.
func mappingNode(m map[string]any) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		v, err := valueNode(m[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, v)
	}
	return n, nil
}

func valueNode(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case map[string]any:
		return mappingNode(vv)
	case map[any]any:
		converted := make(map[string]any, len(vv))
		for k, val := range vv {
			converted[fmt.Sprint(k)] = val
		}
		return mappingNode(converted)
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			child, err := valueNode(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, child)
		}
		return seq, nil
	case time.Time:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: vv.Format(time.RFC3339)}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}
