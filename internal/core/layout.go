package core

import "github.com/JonMunkholm/oesreport/internal/schema"

// ReportTitle heads every section.
const ReportTitle = "Order Execution Summary Data Report"

// Disclaimer is prepended to sections produced from sample data.
const Disclaimer = "THIS DOCUMENT IS A TECHNICAL ILLUSTRATION OF HOW CERTAIN DISCLOSURES " +
	"REQUIRED BY THE SEC ARE TO BE STRUCTURED. IT DOES NOT INDICATE WHICH PARTICULAR " +
	"DISCLOSURES MUST BE REPORTED AND/OR STRUCTURED, AND IT DOES NOT CONSTITUTE LEGAL " +
	"GUIDANCE OF ANY SORT."

// DiagnosticsHeading introduces the messages attached to a section.
const DiagnosticsHeading = "Input CSV file generated messages at R(ow)C(olumn):"

// participantNames expands designated participant codes.
var participantNames = map[string]string{
	"S": "SAMPLE",
	"A": "Amex",
	"B": "BSE",
	"C": "CSE",
	"M": "CHX",
	"N": "NYSE",
	"P": "PCX",
	"T": "NASD",
	"X": "Phlx",
	"Y": "CBOE",
}

// ParticipantName returns the display name for a participant code, or the
// code itself when it is not in the table.
func ParticipantName(code string) string {
	if name, ok := participantNames[code]; ok {
		return name
	}
	return code
}

// isSampleData reports whether a section's participant name or entity code
// marks non-production data.
func isSampleData(participant, entity string) bool {
	return participant == "SAMPLE" || entity == "SAMPLE" || entity == "NGOOD"
}

// Align is a table cell alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// minColumnWidth is the width unit for table columns, in points.
const minColumnWidth = 15

// DisplayColumn configures one column of the section table.
type DisplayColumn struct {
	Name   string
	Header string
	Align  Align
	Width  int
	Format schema.DisplayFormat
}

// Columns is the fixed order of the section table. It does not depend on the
// order of the schema.
var Columns = []DisplayColumn{
	{"Sp500", "S&P 500 Flag", AlignCenter, 1 * minColumnWidth, schema.Plain()},
	{"OrderType", "Order Type (M-Mkt; ML-Mktbl Lmt)", AlignCenter, 3 * minColumnWidth, schema.Special(schema.SpecialOrderType)},
	{"OrderSize", "Order Size (USD)", AlignCenter, 4 * minColumnWidth, schema.Special(schema.SpecialOrderSize)},
	{"AvgOrderQty", "Average Order Size (Shares)", AlignRight, 3 * minColumnWidth, schema.Decimal(2)},
	{"AvgOrderSize", "Average Notional Order Size (USD)", AlignRight, 3 * minColumnWidth, schema.Currency(2)},
	{"ExctdOrderMidPtAvg", "Share-weighted Average Midpoint", AlignRight, 3 * minColumnWidth, schema.Currency(2)},
	{"PctExctdAtQuotOrBetter", "% Shares Executed at Quote or Better", AlignRight, 2 * minColumnWidth, schema.Percent(2)},
	{"PctExctdPI", "% Shares Executed with Price Improvement", AlignRight, 3 * minColumnWidth, schema.Percent(2)},
	{"WghtdAvgPctPI", "Share-weighted Average % Price Improvement", AlignRight, 3 * minColumnWidth, schema.Percent(4)},
	{"AvgEffctvSprdPct", "Average % Effective Spread", AlignRight, 3 * minColumnWidth, schema.Percent(4)},
	{"AvgPctQuotSprd", "Average % Quoted Spread", AlignRight, 3 * minColumnWidth, schema.Percent(4)},
	{"AvgEFQPct", "Average Effective / Average Quoted Spread %", AlignRight, 2 * minColumnWidth, schema.Percent(2)},
	{"AvgRealSprdPct15sec", "Average % Realized Spread after 15 Seconds", AlignRight, 3 * minColumnWidth, schema.Percent(4)},
	{"AvgRealSprdPct1min", "Average % Realized Spread after 1 Minute", AlignRight, 3 * minColumnWidth, schema.Percent(4)},
	{"WghtdAvgExctnTime", "Share-weighted Average Execution Speed (msec)", AlignRight, 3 * minColumnWidth, schema.Decimal(3)},
}

// DisplayFormats returns the display format of every column the report
// formats: the table columns plus the period key used in section labels.
func DisplayFormats() map[string]schema.DisplayFormat {
	formats := make(map[string]schema.DisplayFormat, len(Columns)+1)
	for _, c := range Columns {
		formats[c.Name] = c.Format
	}
	formats[DefaultKeyColumns.Period] = schema.Special(schema.SpecialReportPeriod)
	return formats
}

// CompileSchema compiles doc with the report's display formats.
func CompileSchema(doc *schema.Document) (*schema.Schema, error) {
	return schema.Compile(doc, DisplayFormats())
}
