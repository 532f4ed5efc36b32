package render

//go:generate templ generate -f report.templ

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/oesreport/internal/core"
)

// HTML writes a standalone document with one <section> per partition.
type HTML struct{}

func (HTML) Format() string      { return "html" }
func (HTML) ContentType() string { return "text/html; charset=utf-8" }
func (HTML) Extension() string   { return ".html" }

func (HTML) Render(w io.Writer, rep *core.Report) error {
	return reportPage(rep).Render(context.Background(), w)
}

const styleTag = `<style>
body{font-family:Helvetica,Arial,sans-serif;font-size:10pt;margin:24px}
h1{font-size:14pt;margin:0 0 8px}
.disclaimer{font-weight:bold;margin:8px 0}
.labels p{margin:2px 0}
.diagnostics{color:#ff0000;margin:8px 0}
.diagnostics p{margin:1px 0}
table{border-collapse:collapse;margin-top:12px}
th{background:#cce6ff;font-weight:bold;padding:4px;border:1px solid #999;vertical-align:bottom}
td{padding:2px 4px;border:1px solid #ddd}
[data-align=left]{text-align:left}
[data-align=center]{text-align:center}
[data-align=right]{text-align:right}
[data-edge~=first]{border-left:2px solid #000}
[data-edge~=last]{border-right:2px solid #000}
section{page-break-after:always}
section:last-of-type{page-break-after:auto}
</style>`

// cellEdge marks the outer columns of a table, which get a heavy border.
func cellEdge(cell core.FormattedCell) string {
	var edges []string
	if cell.FirstColumn {
		edges = append(edges, "first")
	}
	if cell.LastColumn {
		edges = append(edges, "last")
	}
	return strings.Join(edges, " ")
}

func points(width int) string {
	return strconv.Itoa(width) + "pt"
}
