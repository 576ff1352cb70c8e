package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is a value of a Tree: a *Record or a nested *Tree.
type Node interface {
	isNode()
}

// Entry is one named node of a Tree.
type Entry struct {
	Name string
	Node Node
}

// Tree is the documentation of one module: exported member name to function
// record or submodule tree, in export-list order.
type Tree struct {
	entries []Entry
	index   map[string]int
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{index: map[string]int{}}
}

func (*Tree) isNode() {}

// Set stores n under name. Setting an existing name replaces its node in
// place.
func (t *Tree) Set(name string, n Node) {
	if t.index == nil {
		t.index = map[string]int{}
	}
	if i, ok := t.index[name]; ok {
		t.entries[i].Node = n
		return
	}
	t.index[name] = len(t.entries)
	t.entries = append(t.entries, Entry{Name: name, Node: n})
}

// Get returns the node stored under name.
func (t *Tree) Get(name string) (Node, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.entries[i].Node, true
}

// Len returns the number of entries.
func (t *Tree) Len() int { return len(t.entries) }

// Entries returns the entries in insertion order.
func (t *Tree) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Lookup follows a dotted path of member names, e.g. "sub.func".
func (t *Tree) Lookup(path string) (Node, bool) {
	var node Node = t
	for _, name := range splitPath(path) {
		sub, ok := node.(*Tree)
		if !ok {
			return nil, false
		}
		if node, ok = sub.Get(name); !ok {
			return nil, false
		}
	}
	return node, true
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Field is one section of a Record.
type Field struct {
	Name  string
	Value any
}

// Record is the parsed documentation of one function: section name to
// section value, in section order.
type Record struct {
	fields []Field
}

func (*Record) isNode() {}

// Set stores a section value, replacing an existing one in place.
func (r *Record) Set(name string, value any) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Get returns a section value.
func (r *Record) Get(name string) (any, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Fields returns the sections in order.
func (r *Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Keys returns the section names in order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Name
	}
	return keys
}

// Param is a reshaped parameter entry. Desc is the description lines joined
// with newlines, converted to MyST unless conversion is disabled.
type Param struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Desc string `json:"desc" yaml:"desc"`
}

// MarshalJSON encodes the tree as an object keeping entry order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	pairs := make([]Field, len(t.entries))
	for i, e := range t.entries {
		pairs[i] = Field{Name: e.Name, Value: e.Node}
	}
	return marshalObject(pairs)
}

// MarshalJSON encodes the record as an object keeping section order.
func (r *Record) MarshalJSON() ([]byte, error) {
	return marshalObject(r.fields)
}

func marshalObject(pairs []Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeJSON(p.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := encodeJSON(p.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalYAML encodes the tree as a mapping keeping entry order.
func (t *Tree) MarshalYAML() (any, error) {
	pairs := make([]Field, len(t.entries))
	for i, e := range t.entries {
		pairs[i] = Field{Name: e.Name, Value: e.Node}
	}
	return yamlMapping(pairs)
}

// MarshalYAML encodes the record as a mapping keeping section order.
func (r *Record) MarshalYAML() (any, error) {
	return yamlMapping(r.fields)
}

func yamlMapping(pairs []Field) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range pairs {
		var val yaml.Node
		if err := val.Encode(p.Value); err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.Name, err)
		}
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Name},
			&val,
		)
	}
	return m, nil
}
