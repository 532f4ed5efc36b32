// Package render writes a generated report in an output format.
//
// Renderers register themselves by format name at init time; callers look
// them up with Get. Every renderer consumes the already formatted sections
// and never reformats cell text.
package render

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/JonMunkholm/oesreport/internal/core"
	"github.com/JonMunkholm/oesreport/internal/metrics"
)

// ErrUnknownFormat is returned by Lookup for an unregistered format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Renderer writes a report in one output format.
type Renderer interface {
	// Format is the registry name, e.g. "xlsx".
	Format() string
	ContentType() string
	// Extension is the file extension including the dot.
	Extension() string
	Render(w io.Writer, rep *core.Report) error
}

var (
	registry   = make(map[string]Renderer)
	registryMu sync.RWMutex
)

// Register adds a renderer to the registry.
// Panics if a renderer with the same format is already registered.
func Register(r Renderer) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[r.Format()]; exists {
		panic(fmt.Sprintf("renderer already registered: %s", r.Format()))
	}
	registry[r.Format()] = r
}

// Get returns the renderer for format.
func Get(format string) (Renderer, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	r, ok := registry[format]
	return r, ok
}

// Lookup is Get with an error suitable for returning to a client.
func Lookup(format string) (Renderer, error) {
	r, ok := Get(format)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	return r, nil
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Write renders rep with r and records the outcome.
func Write(w io.Writer, r Renderer, rep *core.Report) error {
	err := r.Render(w, rep)
	metrics.RecordRender(r.Format(), err)
	if err != nil {
		return fmt.Errorf("render %s: %w", r.Format(), err)
	}
	return nil
}

func init() {
	Register(JSON{})
	Register(HTML{})
	Register(XLSX{})
}
