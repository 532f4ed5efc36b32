package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/oesreport/internal/core"
	"github.com/JonMunkholm/oesreport/internal/schema"
)

func oesRow(number int, overrides map[string]string) *core.Row {
	fields := map[string]string{
		"DsgntParticipant":       "S",
		"RprtEntityCd":           "X",
		"RptDate":                "202501",
		"Sp500":                  "Y",
		"OrderType":              "MXXNN",
		"OrderSize":              "250",
		"AvgOrderQty":            "100.5",
		"AvgOrderSize":           "1234.5",
		"ExctdOrderMidPtAvg":     "12.25",
		"PctExctdAtQuotOrBetter": "0.95",
		"PctExctdPI":             "0.5",
		"WghtdAvgPctPI":          "0.0012",
		"AvgEffctvSprdPct":       "0.001",
		"AvgPctQuotSprd":         "0.002",
		"AvgEFQPct":              "0.75",
		"AvgRealSprdPct15sec":    "0.0005",
		"AvgRealSprdPct1min":     "0.0004",
		"WghtdAvgExctnTime":      "12.5",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	row := core.NewRow(number)
	for k, v := range fields {
		row.Set(k, core.String(v))
	}
	return row
}

func sampleReport(t *testing.T) *core.Report {
	t.Helper()
	doc, err := schema.Default()
	require.NoError(t, err)

	rep, err := core.GenerateFromDocument(doc, core.Input{
		Rows: []*core.Row{
			oesRow(1, nil),
			oesRow(2, map[string]string{"Sp500": "<b>", "RptDate": "202502"}),
		},
		HeaderCount: 18,
		ParseErrors: []string{"R9: FieldMismatch TooFewFields Too few fields: expected 18 fields but parsed 2"},
	})
	require.NoError(t, err)
	return rep
}

func TestRegistry(t *testing.T) {
	require.Equal(t, []string{"html", "json", "xlsx"}, Formats())

	r, err := Lookup("xlsx")
	require.NoError(t, err)
	require.Equal(t, ".xlsx", r.Extension())

	_, err = Lookup("pdf")
	require.ErrorIs(t, err, ErrUnknownFormat)
	require.Equal(t, "RUN004", core.MapError(err).Code)

	require.Panics(t, func() { Register(JSON{}) })
}

func TestJSON(t *testing.T) {
	rep := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON{}, rep))

	var decoded struct {
		Sections []struct {
			Key struct {
				Period string `json:"period"`
			} `json:"key"`
		} `json:"sections"`
		Unattached []core.Diagnostic `json:"unattached"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Sections, 2)
	require.Equal(t, "202502", decoded.Sections[1].Key.Period)
	require.Len(t, decoded.Unattached, 1)
}

func TestHTML(t *testing.T) {
	rep := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, HTML{}, rep))
	out := buf.String()

	require.Equal(t, 2, strings.Count(out, "<section>"))
	require.Contains(t, out, "Designated Participant: SAMPLE")
	require.Contains(t, out, "THIS DOCUMENT IS A TECHNICAL ILLUSTRATION")
	require.Contains(t, out, "&lt;b&gt;")
	require.NotContains(t, out, "<b>")
	require.Contains(t, out, "File messages")
	require.Contains(t, out, "page-break-after:always")
	require.True(t, strings.HasPrefix(out, "<!doctype html>"))
}

func TestHTML_TableMarkup(t *testing.T) {
	rep := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, HTML{}.Render(&buf, rep))
	out := buf.String()

	table := rep.Sections[0].Table
	require.Equal(t, len(table.Widths())*len(rep.Sections), strings.Count(out, "<col width="))
	require.Contains(t, out, fmt.Sprintf(`<col width="%dpt">`, table.Widths()[0]))
	require.Contains(t, out, `<th data-align="center" data-edge="first">`)
	require.Contains(t, out, `data-edge="last">`)
	require.Contains(t, out, fmt.Sprintf(`<tr data-row="%d">`, table.Rows[0].Number))
}

func TestCellEdge(t *testing.T) {
	tests := []struct {
		cell core.FormattedCell
		want string
	}{
		{core.FormattedCell{}, ""},
		{core.FormattedCell{FirstColumn: true}, "first"},
		{core.FormattedCell{LastColumn: true}, "last"},
		{core.FormattedCell{FirstColumn: true, LastColumn: true}, "first last"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, cellEdge(tt.cell))
	}
}

func TestXLSX(t *testing.T) {
	rep := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, XLSX{}, rep))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"S-X-012025", "S-X-022025", "Messages"}, f.GetSheetList())

	title, err := f.GetCellValue("S-X-012025", "A1")
	require.NoError(t, err)
	require.Equal(t, core.ReportTitle, title)

	rows, err := f.GetRows("S-X-022025")
	require.NoError(t, err)

	var headerRow, diagRow int
	for i, r := range rows {
		if len(r) > 0 && r[0] == core.DiagnosticsHeading {
			diagRow = i + 1
		}
		if len(r) > 1 && r[1] == rep.Sections[1].Table.Header[1].Text {
			headerRow = i + 1
		}
	}
	require.NotZero(t, diagRow, "diagnostics heading missing")
	require.NotZero(t, headerRow, "table header missing")

	styleID, err := f.GetCellStyle("S-X-022025", "A"+strconv.Itoa(headerRow))
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.Len(t, style.Fill.Color, 1)
	require.True(t, strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), headerFill))

	diagStyleID, err := f.GetCellStyle("S-X-022025", "A"+strconv.Itoa(diagRow+1))
	require.NoError(t, err)
	diagStyle, err := f.GetStyle(diagStyleID)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(strings.ToUpper(diagStyle.Font.Color), diagnosticColor))

	msg, err := f.GetCellValue("Messages", "A2")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(msg, "R9: FieldMismatch"))
}

func TestXLSX_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSX{}.Render(&buf, &core.Report{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"Messages"}, f.GetSheetList())
}

func TestSheetNames(t *testing.T) {
	used := map[string]bool{}
	sec := core.Section{Key: core.PartitionKey{Participant: "A/B", Entity: "[X]", Period: "202501"}}

	require.Equal(t, "AB-X-012025", sheetName(sec))
	require.Equal(t, "AB-X-012025", uniqueSheetName(sheetName(sec), used))
	require.Equal(t, "AB-X-012025 (2)", uniqueSheetName(sheetName(sec), used))

	long := core.Section{Key: core.PartitionKey{Participant: strings.Repeat("P", 40), Period: "202501"}}
	require.Len(t, []rune(sheetName(long)), maxSheetName)
}
