// Package treecheck verifies that a file holds a well-formed documentation
// tree before it is rendered or handed to another tool.
package treecheck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/example/npdoc2json/pkg/doctree"
	"github.com/example/npdoc2json/pkg/numpydoc"
)

// Sections whose values must be parameter lists.
var parameterSections = map[string]bool{
	numpydoc.Parameters:      true,
	numpydoc.Returns:         true,
	numpydoc.Yields:          true,
	numpydoc.Receives:        true,
	numpydoc.Raises:          true,
	numpydoc.Warns:           true,
	numpydoc.OtherParameters: true,
	numpydoc.Attributes:      true,
	numpydoc.Methods:         true,
}

var parameterFields = []string{"name", "type", "desc"}

// Stats counts what a valid tree contains.
type Stats struct {
	Functions  int
	Submodules int
}

// ValidateFile reads a JSON or YAML tree and validates it.
func ValidateFile(path string) (Stats, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Stats{}, fmt.Errorf("failed to parse file as YAML or JSON: %w", err)
	}
	if len(doc.Content) == 0 {
		return Stats{}, errors.New("failed to parse file: empty document")
	}
	return Validate(doc.Content[0])
}

// Validate checks a decoded tree node. Every violation is reported, each
// prefixed with the dotted path of the entry it concerns.
func Validate(node *yaml.Node) (Stats, error) {
	c := &checker{}
	if node.Kind != yaml.MappingNode {
		c.fail("<root>", node, "expected a mapping")
	} else {
		c.tree(node, "")
	}
	return c.stats, errors.Join(c.errs...)
}

type checker struct {
	stats Stats
	errs  []error
}

func (c *checker) fail(path string, n *yaml.Node, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.errs = append(c.errs, fmt.Errorf("%s: %s (line %d)", path, msg, n.Line))
}

func (c *checker) tree(n *yaml.Node, path string) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, val := n.Content[i].Value, n.Content[i+1]
		sub := name
		if path != "" {
			sub = path + "." + name
		}

		switch {
		case doctree.IsRecordNode(val):
			c.stats.Functions++
			c.record(val, sub)
		case val.Kind == yaml.MappingNode:
			c.stats.Submodules++
			c.tree(val, sub)
		default:
			c.fail(sub, val, "submodule must be a mapping")
		}
	}
}

func (c *checker) record(n *yaml.Node, path string) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		section, val := n.Content[i].Value, n.Content[i+1]
		if !parameterSections[section] {
			continue
		}
		where := path + ": " + section
		if val.Kind != yaml.SequenceNode {
			c.fail(where, val, "expected a list of parameters")
			continue
		}
		for j, p := range val.Content {
			c.parameter(p, fmt.Sprintf("%s[%d]", where, j))
		}
	}
}

func (c *checker) parameter(n *yaml.Node, where string) {
	if n.Kind != yaml.MappingNode {
		c.fail(where, n, "expected a mapping with name, type and desc")
		return
	}
	for _, field := range parameterFields {
		v := lookup(n, field)
		switch {
		case v == nil:
			c.fail(where, n, "missing '%s' field", field)
		case v.Kind != yaml.ScalarNode || v.Tag != "!!str":
			c.fail(where, v, "'%s' must be a string", field)
		}
	}
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
