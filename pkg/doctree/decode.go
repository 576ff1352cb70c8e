package doctree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/example/npdoc2json/pkg/numpydoc"
)

// Decode parses a tree written as JSON or YAML, keeping key order.
func Decode(data []byte) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tree: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("parse tree: empty document")
	}
	return DecodeNode(doc.Content[0])
}

// ReadFile loads a tree from disk.
func ReadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	return Decode(data)
}

// IsRecordNode reports whether n holds a function record rather than a
// submodule tree: a mapping with a Summary key whose value is not a mapping.
func IsRecordNode(n *yaml.Node) bool {
	if n.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == numpydoc.Summary {
			return n.Content[i+1].Kind != yaml.MappingNode
		}
	}
	return false
}

// DecodeNode converts a mapping node into a Tree.
func DecodeNode(n *yaml.Node) (*Tree, error) {
	return decodeTree(n, "")
}

func decodeTree(n *yaml.Node, path string) (*Tree, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: expected a mapping, line %d", displayPath(path), n.Line)
	}
	tree := NewTree()
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, val := n.Content[i].Value, n.Content[i+1]
		sub := joinPath(path, name)
		if IsRecordNode(val) {
			rec, err := decodeRecord(val, sub)
			if err != nil {
				return nil, err
			}
			tree.Set(name, rec)
			continue
		}
		child, err := decodeTree(val, sub)
		if err != nil {
			return nil, err
		}
		tree.Set(name, child)
	}
	return tree, nil
}

func decodeRecord(n *yaml.Node, path string) (*Record, error) {
	rec := &Record{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, val := n.Content[i].Value, n.Content[i+1]
		v, err := decodeValue(name, val)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, name, err)
		}
		rec.Set(name, v)
	}
	return rec, nil
}

func decodeValue(name string, n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "", nil
		}
		return n.Value, nil
	case yaml.SequenceNode:
		if name == numpydoc.SeeAlso {
			return decodeSeeAlso(n)
		}
		if len(n.Content) > 0 && n.Content[0].Kind == yaml.MappingNode {
			var params []Param
			if err := n.Decode(&params); err != nil {
				return nil, err
			}
			return params, nil
		}
		lines := []string{}
		if err := n.Decode(&lines); err != nil {
			return nil, err
		}
		return lines, nil
	case yaml.MappingNode:
		m := map[string]any{}
		if err := n.Decode(&m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// decodeSeeAlso reads the [[[name, role], ...], [desc, ...]] item shape.
func decodeSeeAlso(n *yaml.Node) ([]numpydoc.SeeAlsoItem, error) {
	items := make([]numpydoc.SeeAlsoItem, 0, len(n.Content))
	for _, it := range n.Content {
		if it.Kind != yaml.SequenceNode || len(it.Content) != 2 || it.Content[0].Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("see also item at line %d: expected [funcs, desc]", it.Line)
		}
		item := numpydoc.SeeAlsoItem{Funcs: []numpydoc.SeeAlsoFunc{}, Desc: []string{}}
		for _, fn := range it.Content[0].Content {
			if fn.Kind != yaml.SequenceNode || len(fn.Content) == 0 {
				return nil, fmt.Errorf("see also reference at line %d: expected [name, role]", fn.Line)
			}
			ref := numpydoc.SeeAlsoFunc{Name: fn.Content[0].Value}
			if len(fn.Content) > 1 && fn.Content[1].Tag != "!!null" {
				ref.Role = fn.Content[1].Value
			}
			item.Funcs = append(item.Funcs, ref)
		}
		if err := it.Content[1].Decode(&item.Desc); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
