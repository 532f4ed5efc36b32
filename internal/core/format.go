package core

// format.go turns raw cell values into display strings for report tables.
//
// Formatting never fails. Values that cannot be formatted (non-numeric text
// in a numeric column, an unknown order size code) are shown as they are.

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JonMunkholm/oesreport/internal/schema"
)

// BlankCell stands in for an intentionally empty value so that it can be
// told apart from a cell the row does not have at all ("").
const BlankCell = " "

var enUS = message.NewPrinter(language.AmericanEnglish)

var orderTypeLabels = map[string]string{
	"MXXNN": "M",
	"LYNNN": "ML",
}

var orderSizeLabels = map[string]string{
	"0":      "Under $250",
	"250":    "$250 - $1K",
	"1000":   "$1K - $5K",
	"5000":   "$5K - $10K",
	"10000":  "$10K - $20K",
	"20000":  "$20K - $50K",
	"50000":  "$50K - $200K",
	"199999": "All Under $200K",
	"200000": "$200K & Over",
}

// FormatCell returns the display string of row's value for rule's column.
func FormatCell(row *Row, rule *schema.ColumnRule) string {
	v := row.Get(rule.Name)
	switch v.Kind() {
	case KindAbsent:
		return ""
	case KindNull:
		return BlankCell
	}

	text := v.Text()
	if text == "" {
		return BlankCell
	}
	return FormatValue(text, rule.Display)
}

// FormatValue applies a display format to non-empty text.
func FormatValue(text string, f schema.DisplayFormat) string {
	switch f.Kind {
	case schema.DisplayDecimal, schema.DisplayCurrency, schema.DisplayPercent:
		return formatNumeric(text, f)
	case schema.DisplaySpecial:
		return formatSpecial(text, f.Special)
	default:
		return text
	}
}

// formatNumeric rounds half away from zero to the format's fraction digits
// and groups thousands the en-US way.
func formatNumeric(text string, f schema.DisplayFormat) string {
	trimmed := strings.TrimSpace(text)
	num, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return text
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		d = decimal.NewFromFloat(num)
	}
	if f.Kind == schema.DisplayPercent {
		d = d.Shift(2)
	}

	rounded := d.Round(int32(f.Digits))
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	abs, _ := rounded.Abs().Float64()
	body := enUS.Sprintf("%."+strconv.Itoa(f.Digits)+"f", abs)

	switch f.Kind {
	case schema.DisplayCurrency:
		return sign + "$" + body
	case schema.DisplayPercent:
		return sign + body + "%"
	default:
		return sign + body
	}
}

func formatSpecial(text string, kind schema.SpecialKind) string {
	switch kind {
	case schema.SpecialOrderType:
		if label, ok := orderTypeLabels[text]; ok {
			return label
		}
	case schema.SpecialOrderSize:
		if label, ok := orderSizeLabels[text]; ok {
			return label
		}
	case schema.SpecialReportPeriod:
		return FormatPeriod(text)
	}
	return text
}

// FormatPeriod re-slices a YYYYMM code into MM/YYYY. No calendar check is
// made; short input yields short pieces.
func FormatPeriod(code string) string {
	return substring(code, 4, 6) + "/" + substring(code, 0, 4)
}

func substring(s string, start, end int) string {
	start = min(start, len(s))
	end = min(end, len(s))
	return s[start:end]
}
