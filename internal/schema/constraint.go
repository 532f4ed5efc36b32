package schema

import (
	"fmt"
	"regexp"
)

// ConstraintKind identifies a recognized column constraint.
type ConstraintKind int

const (
	// ConstraintAny accepts every value. Columns without a format get it.
	ConstraintAny ConstraintKind = iota
	ConstraintUppercaseToken
	ConstraintReportMonth
	ConstraintYesNo
	ConstraintOrderType
	ConstraintOrderSize
	ConstraintSignedDecimal
	// ConstraintCustom is any pattern that is not one of the known kinds.
	ConstraintCustom
)

var constraintNames = map[ConstraintKind]string{
	ConstraintAny:            "any",
	ConstraintUppercaseToken: "uppercase_token",
	ConstraintReportMonth:    "report_month",
	ConstraintYesNo:          "yes_no",
	ConstraintOrderType:      "order_type",
	ConstraintOrderSize:      "order_size",
	ConstraintSignedDecimal:  "signed_decimal",
	ConstraintCustom:         "custom",
}

func (k ConstraintKind) String() string {
	if name, ok := constraintNames[k]; ok {
		return name
	}
	return fmt.Sprintf("constraint(%d)", int(k))
}

// knownConstraints maps the exact pattern text used by OES schemas to a kind
// and the phrase shown in diagnostics ("... is not <description>").
var knownConstraints = map[string]struct {
	kind        ConstraintKind
	description string
}{
	`^[A-Z]+$`: {
		ConstraintUppercaseToken, "a string of uppercase letters",
	},
	`^20[2-9]\d(0[1-9]|1[012])$`: {
		ConstraintReportMonth, "a month YYYYMM from 202001 to 209912 inclusive",
	},
	`Y|N`: {
		ConstraintYesNo, "one of Y or N",
	},
	`MXXNN|LYNNN`: {
		ConstraintOrderType, "one of MXXNN or LYNNN",
	},
	`^(0|250|1000|5000|10000|20000|50000|199999|200000)$`: {
		ConstraintOrderSize, "one of 0, 250, 1000, 5000, 10000, 20000, 50000, 199999, or 200000",
	},
	`^[+-]?(\d+(\.\d{0,6})?([eE][+-]?\d+)?)?$`: {
		ConstraintSignedDecimal, "a signed or unsigned number of up to six decimal places",
	},
}

// Constraint is a compiled format pattern.
//
// Matching is unanchored: a pattern without ^ and $ matches when it occurs
// anywhere in the value.
type Constraint struct {
	Kind        ConstraintKind
	Pattern     string
	Description string

	re *regexp.Regexp
}

// NewConstraint compiles pattern. An empty pattern yields ConstraintAny.
func NewConstraint(pattern string) (Constraint, error) {
	if pattern == "" {
		return Constraint{Kind: ConstraintAny, Description: "anything"}, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return Constraint{}, err
	}

	c := Constraint{
		Kind:        ConstraintCustom,
		Pattern:     pattern,
		Description: "a match for " + pattern,
		re:          re,
	}
	if known, ok := knownConstraints[pattern]; ok {
		c.Kind = known.kind
		c.Description = known.description
	}
	return c, nil
}

// Match reports whether value satisfies the constraint.
func (c Constraint) Match(value string) bool {
	if c.re == nil {
		return true
	}
	return c.re.MatchString(value)
}

// PatternText returns the declared pattern, or "*" when there is none.
func (c Constraint) PatternText() string {
	if c.Pattern == "" {
		return "*"
	}
	return c.Pattern
}
