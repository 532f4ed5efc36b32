package schema

import "strconv"

// DisplayKind selects how a column is rendered in a report table.
type DisplayKind int

const (
	DisplayPlain DisplayKind = iota
	DisplayDecimal
	DisplayCurrency
	DisplayPercent
	DisplaySpecial
)

// SpecialKind names a column-specific value-to-label transform.
type SpecialKind int

const (
	SpecialNone SpecialKind = iota
	// SpecialOrderType maps order type codes to short labels (MXXNN -> M).
	SpecialOrderType
	// SpecialOrderSize maps order size bucket codes to range labels.
	SpecialOrderSize
	// SpecialReportPeriod re-slices YYYYMM into MM/YYYY.
	SpecialReportPeriod
)

var specialNames = map[SpecialKind]string{
	SpecialNone:         "none",
	SpecialOrderType:    "order_type",
	SpecialOrderSize:    "order_size",
	SpecialReportPeriod: "report_period",
}

func (k SpecialKind) String() string {
	if name, ok := specialNames[k]; ok {
		return name
	}
	return "special(" + strconv.Itoa(int(k)) + ")"
}

// DisplayFormat is a tagged variant: Plain, Decimal(n), Currency(n),
// Percent(n) or Special(kind). Digits is only meaningful for the numeric
// kinds and Special only for DisplaySpecial.
type DisplayFormat struct {
	Kind    DisplayKind
	Digits  int
	Special SpecialKind
}

// Plain passes values through unchanged.
func Plain() DisplayFormat { return DisplayFormat{Kind: DisplayPlain} }

// Decimal formats with n fraction digits and thousands grouping.
func Decimal(n int) DisplayFormat { return DisplayFormat{Kind: DisplayDecimal, Digits: n} }

// Currency formats as US dollars with n fraction digits.
func Currency(n int) DisplayFormat { return DisplayFormat{Kind: DisplayCurrency, Digits: n} }

// Percent multiplies by 100 and formats with n fraction digits.
func Percent(n int) DisplayFormat { return DisplayFormat{Kind: DisplayPercent, Digits: n} }

// Special applies a column-specific transform.
func Special(kind SpecialKind) DisplayFormat {
	return DisplayFormat{Kind: DisplaySpecial, Special: kind}
}

// IsNumeric reports whether the format is one of the numeric styles.
func (f DisplayFormat) IsNumeric() bool {
	switch f.Kind {
	case DisplayDecimal, DisplayCurrency, DisplayPercent:
		return true
	}
	return false
}

// String returns the short style code: "", "2", "$2", "%4" or "special:<kind>".
func (f DisplayFormat) String() string {
	switch f.Kind {
	case DisplayDecimal:
		return strconv.Itoa(f.Digits)
	case DisplayCurrency:
		return "$" + strconv.Itoa(f.Digits)
	case DisplayPercent:
		return "%" + strconv.Itoa(f.Digits)
	case DisplaySpecial:
		return "special:" + f.Special.String()
	default:
		return ""
	}
}
