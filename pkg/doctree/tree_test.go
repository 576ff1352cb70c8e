package doctree

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/example/npdoc2json/pkg/numpydoc"
	"github.com/example/npdoc2json/pkg/pymodule"
)

func sampleTree() *Tree {
	rec := &Record{}
	rec.Set("Summary", []string{"Compare a < b & c"})
	rec.Set("Parameters", []Param{{Name: "x", Type: "int", Desc: "d"}})

	tree := NewTree()
	tree.Set("zeta", rec)
	tree.Set("alpha", NewTree())
	return tree
}

func TestTreeJSONKeepsOrder(t *testing.T) {
	data, err := sampleTree().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t,
		`{"zeta":{"Summary":["Compare a < b & c"],"Parameters":[{"name":"x","type":"int","desc":"d"}]},"alpha":{}}`,
		string(data))
}

func TestTreeSetReplacesInPlace(t *testing.T) {
	tree := NewTree()
	tree.Set("a", NewTree())
	tree.Set("b", NewTree())
	rec := &Record{}
	tree.Set("a", rec)

	assert.Equal(t, []string{"a", "b"}, entryNames(tree))
	node, ok := tree.Get("a")
	require.True(t, ok)
	assert.Same(t, rec, node)

	rec.Set("Summary", []string{"one"})
	rec.Set("Notes", "n")
	rec.Set("Summary", []string{"two"})
	assert.Equal(t, []string{"Summary", "Notes"}, rec.Keys())
	v, _ := rec.Get("Summary")
	assert.Equal(t, []string{"two"}, v)
}

func TestTreeLookup(t *testing.T) {
	inner := NewTree()
	inner.Set("f", &Record{})
	tree := NewTree()
	tree.Set("sub", inner)

	tests := []struct {
		path string
		ok   bool
	}{
		{path: "", ok: true},
		{path: "sub", ok: true},
		{path: "sub.f", ok: true},
		{path: "sub.g", ok: false},
		{path: "sub.f.deeper", ok: false},
		{path: "missing", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, ok := tree.Lookup(tt.path)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestTreeYAMLKeepsOrder(t *testing.T) {
	data, err := yaml.Marshal(sampleTree())
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(data, &doc))
	root := doc.Content[0]
	require.Equal(t, yaml.MappingNode, root.Kind)
	assert.Equal(t, "zeta", root.Content[0].Value)
	assert.Equal(t, "alpha", root.Content[2].Value)

	rec := root.Content[1]
	assert.Equal(t, "Summary", rec.Content[0].Value)
	assert.Equal(t, "Parameters", rec.Content[2].Value)
}

func TestDecode(t *testing.T) {
	src := `{
  "f": {
    "Summary": ["Hi"],
    "Extended Summary": "More.",
    "Parameters": [{"name": "x", "type": "int", "desc": "d"}],
    "Returns": [],
    "See Also": [[[["g", null], ["h", "meth"]], ["desc"]]],
    "index": {}
  },
  "sub": {"leaf": {"Summary": ["L"]}},
  "empty": {}
}`
	tree, err := Decode([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"f", "sub", "empty"}, entryNames(tree))

	node, _ := tree.Get("f")
	rec, ok := node.(*Record)
	require.True(t, ok)
	assert.Equal(t, []string{"Summary", "Extended Summary", "Parameters", "Returns", "See Also", "index"}, rec.Keys())

	v, _ := rec.Get("Summary")
	assert.Equal(t, []string{"Hi"}, v)
	v, _ = rec.Get("Extended Summary")
	assert.Equal(t, "More.", v)
	v, _ = rec.Get("Parameters")
	assert.Equal(t, []Param{{Name: "x", Type: "int", Desc: "d"}}, v)
	v, _ = rec.Get("Returns")
	assert.Equal(t, []string{}, v)
	v, _ = rec.Get("See Also")
	assert.Equal(t, []numpydoc.SeeAlsoItem{{
		Funcs: []numpydoc.SeeAlsoFunc{{Name: "g"}, {Name: "h", Role: "meth"}},
		Desc:  []string{"desc"},
	}}, v)
	v, _ = rec.Get("index")
	assert.Equal(t, map[string]any{}, v)

	_, ok = tree.Lookup("sub.leaf")
	assert.True(t, ok)
	node, _ = tree.Get("empty")
	assert.IsType(t, &Tree{}, node)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "empty", src: "", want: "empty document"},
		{name: "not yaml", src: "a: [", want: "parse tree"},
		{name: "root is a list", src: "[1, 2]", want: "<root>: expected a mapping"},
		{name: "scalar submodule", src: "sub: 3", want: "sub: expected a mapping"},
		{name: "bad see also", src: `{"f": {"Summary": ["x"], "See Also": [["g"]]}}`, want: "f: See Also"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRoundTripThroughYAMLAndFile(t *testing.T) {
	snap, err := pymodule.ReadSnapshotFile("../../testdata/demo_snapshot.json")
	require.NoError(t, err)
	root, err := snap.RootModule()
	require.NoError(t, err)
	tree, err := New().Walk(root, root.Name())
	require.NoError(t, err)

	want, err := json.Marshal(tree)
	require.NoError(t, err)

	data, err := yaml.Marshal(tree)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	decoded, err := ReadFile(path)
	require.NoError(t, err)
	got, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestIsRecordNode(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{name: "record", src: "Summary: [x]", want: true},
		{name: "submodule named Summary", src: "Summary: {f: {Summary: [x]}}", want: false},
		{name: "tree", src: "f: {}", want: false},
		{name: "scalar", src: "x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc yaml.Node
			require.NoError(t, yaml.Unmarshal([]byte(tt.src), &doc))
			assert.Equal(t, tt.want, IsRecordNode(doc.Content[0]))
		})
	}
}
