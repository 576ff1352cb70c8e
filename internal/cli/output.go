package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileSystem interface for dependency injection
type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	Create(name string) (*os.File, error)
}

// DefaultFileSystem implements FileSystem
type DefaultFileSystem struct{}

func (fs *DefaultFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *DefaultFileSystem) Create(name string) (*os.File, error) {
	return os.Create(filepath.Clean(name))
}

var defaultFileSystem FileSystem = &DefaultFileSystem{}

// writeOutputWithFS runs write against stdout when path is "-", otherwise
// against a new file at path whose directory must already exist.
func writeOutputWithFS(stdout io.Writer, path string, fs FileSystem, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}

	outDir := filepath.Dir(path)
	if fi, err := fs.Stat(outDir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory %s does not exist", outDir)
		}
		return err
	} else if !fi.IsDir() {
		return fmt.Errorf("output path %s is not a directory", outDir)
	}

	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// YAMLMarshaler allows dependency injection for testing
type YAMLMarshaler interface {
	MarshalYAML(v any) ([]byte, error)
}

// DefaultYAMLMarshaler implements YAMLMarshaler
type DefaultYAMLMarshaler struct{}

func (m *DefaultYAMLMarshaler) MarshalYAML(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

var defaultYAMLMarshaler YAMLMarshaler = &DefaultYAMLMarshaler{}

func writeTree(w io.Writer, format string, v any) error {
	return writeTreeWithMarshaler(w, format, v, defaultYAMLMarshaler)
}

func writeTreeWithMarshaler(w io.Writer, format string, v any, m YAMLMarshaler) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml", "yml":
		data, err := m.MarshalYAML(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
