package render

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/JonMunkholm/oesreport/internal/core"
)

// JSON writes the report structure as indented JSON.
type JSON struct{}

func (JSON) Format() string      { return "json" }
func (JSON) ContentType() string { return "application/json" }
func (JSON) Extension() string   { return ".json" }

func (JSON) Render(w io.Writer, rep *core.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
