package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/oesreport/internal/core"
)

// XLSX writes one worksheet per section and a final Messages sheet for
// diagnostics that belong to no section.
type XLSX struct{}

func (XLSX) Format() string { return "xlsx" }
func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSX) Extension() string { return ".xlsx" }

const (
	headerFill      = "CCE6FF"
	diagnosticColor = "FF0000"
	maxSheetName    = 31
	messagesSheet   = "Messages"
)

type xlsxStyles struct {
	title, bold, diagnostic int
	header                  map[core.Align]int
	cell                    map[core.Align]int
}

func (XLSX) Render(w io.Writer, rep *core.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	styles, err := newXLSXStyles(f)
	if err != nil {
		return err
	}

	defaultSheet := f.GetSheetName(0)
	used := map[string]bool{strings.ToLower(defaultSheet): true}
	for i := range rep.Sections {
		name := uniqueSheetName(sheetName(rep.Sections[i]), used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %q: %w", name, err)
		}
		if err := writeSection(f, name, &rep.Sections[i], styles); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}

	if len(rep.Unattached) > 0 || len(rep.Sections) == 0 {
		name := uniqueSheetName(messagesSheet, used)
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeMessages(f, name, rep.Unattached, styles); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	return f.Write(w)
}

func newXLSXStyles(f *excelize.File) (*xlsxStyles, error) {
	s := &xlsxStyles{
		header: make(map[core.Align]int),
		cell:   make(map[core.Align]int),
	}

	var err error
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return nil, err
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return nil, err
	}
	if s.diagnostic, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: diagnosticColor}}); err != nil {
		return nil, err
	}

	for _, align := range []core.Align{core.AlignLeft, core.AlignCenter, core.AlignRight} {
		if s.header[align], err = f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
			Alignment: &excelize.Alignment{Horizontal: string(align), Vertical: "bottom", WrapText: true},
		}); err != nil {
			return nil, err
		}
		if s.cell[align], err = f.NewStyle(&excelize.Style{
			Alignment: &excelize.Alignment{Horizontal: string(align)},
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func writeSection(f *excelize.File, sheet string, sec *core.Section, st *xlsxStyles) error {
	row := 1
	put := func(text string, style int) error {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellStr(sheet, cell, text); err != nil {
			return err
		}
		row++
		return f.SetCellStyle(sheet, cell, cell, style)
	}

	if err := put(sec.Title, st.title); err != nil {
		return err
	}
	if sec.Disclaimer != "" {
		if err := put(sec.Disclaimer, st.bold); err != nil {
			return err
		}
	}
	for _, label := range sec.Labels {
		if err := put(label, st.bold); err != nil {
			return err
		}
	}
	if len(sec.Diagnostics) > 0 {
		if err := put(sec.DiagnosticsHeading, st.diagnostic); err != nil {
			return err
		}
		for _, d := range sec.Diagnostics {
			if err := put(d.Text, st.diagnostic); err != nil {
				return err
			}
		}
	}
	row++

	return writeTable(f, sheet, row, sec.Table, st)
}

func writeTable(f *excelize.File, sheet string, top int, t core.Table, st *xlsxStyles) error {
	for i, col := range t.Columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, columnWidth(col.Width)); err != nil {
			return err
		}
	}

	for i, cell := range t.Header {
		ref, _ := excelize.CoordinatesToCellName(i+1, top)
		if err := f.SetCellStr(sheet, ref, cell.Text); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, ref, ref, st.header[cell.Align]); err != nil {
			return err
		}
	}

	for r, tr := range t.Rows {
		for i, cell := range tr.Cells {
			ref, _ := excelize.CoordinatesToCellName(i+1, top+1+r)
			if err := f.SetCellStr(sheet, ref, cell.Text); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, ref, ref, st.cell[cell.Align]); err != nil {
				return err
			}
		}
	}

	// Keep the header visible while scrolling the rows.
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      top,
		TopLeftCell: fmt.Sprintf("A%d", top+1),
		ActivePane:  "bottomLeft",
	})
}

func writeMessages(f *excelize.File, sheet string, diags []core.Diagnostic, st *xlsxStyles) error {
	if err := f.SetCellStr(sheet, "A1", core.ReportTitle); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", st.title); err != nil {
		return err
	}
	if len(diags) == 0 {
		return f.SetCellStr(sheet, "A2", "No data rows.")
	}
	for i, d := range diags {
		ref, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellStr(sheet, ref, d.Text); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, ref, ref, st.diagnostic); err != nil {
			return err
		}
	}
	return nil
}

// columnWidth converts a table width in points to spreadsheet character units.
func columnWidth(points int) float64 {
	return float64(points)/4 + 6
}

// sheetName is "{participant}-{entity}-{MMYYYY}" with characters Excel
// rejects removed.
func sheetName(sec core.Section) string {
	period := strings.ReplaceAll(sec.Period(), "/", "")
	name := sec.Key.Participant + "-" + sec.Key.Entity + "-" + period
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, "'")
	if name == "" || name == "--" {
		name = "Section"
	}
	return truncateRunes(name, maxSheetName)
}

func uniqueSheetName(base string, used map[string]bool) string {
	name := base
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
