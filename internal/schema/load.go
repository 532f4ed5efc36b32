package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSchema is the root of every schema configuration error.
// Callers can test for it with errors.Is.
var ErrInvalidSchema = errors.New("invalid schema")

//go:embed oes_schema.json
var defaultDocument []byte

// DefaultName is the file name reported for the embedded schema.
const DefaultName = "oes_schema.json"

// Default returns a freshly decoded copy of the embedded Order Execution
// Summary schema.
func Default() (*Document, error) {
	return Decode(DefaultName, bytes.NewReader(defaultDocument))
}

// DefaultJSON returns the raw embedded schema document.
func DefaultJSON() []byte {
	out := make([]byte, len(defaultDocument))
	copy(out, defaultDocument)
	return out
}

// LoadFile reads a schema document from disk.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()

	return Decode(filepath.Base(path), f)
}

// Decode reads a schema document. The format is chosen by the extension of
// name: .yaml and .yml are read as YAML, everything else as JSON.
func Decode(name string, r io.Reader) (*Document, error) {
	var doc Document

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidSchema, name, err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidSchema, name, err)
		}
	}

	return &doc, nil
}
