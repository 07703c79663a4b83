package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPrefix is the currency symbol used by source spreadsheets and reports.
const DefaultPrefix = "R$"

// ParseError reports a monetary field that is not a number after cleaning.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Input, e.Reason)
}

// Parse converts a pt-BR formatted amount ("R$ 1.234,56", "-50,00") into an
// exact decimal. Periods are thousands separators, the comma is the decimal
// separator. Blank input is an error, never zero.
func Parse(s string) (decimal.Decimal, error) {
	return ParseWith(DefaultPrefix, s)
}

// ParseWith is Parse with a different currency prefix, the inverse of
// FormatWith for the same prefix. An empty prefix accepts bare numbers only.
func ParseWith(prefix, s string) (decimal.Decimal, error) {
	cleaned, err := clean(s, prefix)
	if err != nil {
		return decimal.Decimal{}, err
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, &ParseError{Input: s, Reason: "not a decimal number"}
	}
	return d, nil
}

// clean strips the currency prefix and grouping, leaving a literal that
// decimal.NewFromString accepts.
func clean(s, prefix string) (string, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return "", &ParseError{Input: s, Reason: "empty value"}
	}

	body := raw
	if prefix != "" {
		body = strings.ReplaceAll(raw, prefix, "")
	}

	var b strings.Builder
	negative := false
	digits := 0
	commas := 0
	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
			digits++
			b.WriteRune(r)
		case r == ',':
			commas++
			b.WriteByte('.')
		case r == '.':
			// thousands separator
		case r == '-':
			if digits > 0 || commas > 0 || negative {
				return "", &ParseError{Input: s, Reason: "misplaced minus sign"}
			}
			negative = true
		case r == ' ' || r == '\u00a0' || r == '\t':
		default:
			return "", &ParseError{Input: s, Reason: fmt.Sprintf("unexpected character %q", r)}
		}
	}

	if digits == 0 {
		return "", &ParseError{Input: s, Reason: "no digits"}
	}
	if commas > 1 {
		return "", &ParseError{Input: s, Reason: "more than one decimal comma"}
	}

	out := b.String()
	if negative {
		out = "-" + out
	}
	return out, nil
}

// Format renders d with the default currency prefix, e.g. "R$ 1.234,56".
func Format(d decimal.Decimal) string {
	return FormatWith(DefaultPrefix, d)
}

// FormatWith renders d rounded to two places with pt-BR grouping. An empty
// prefix yields the bare number. ParseWith with the same prefix reads it back.
func FormatWith(prefix string, d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		grouped.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if grouped.Len() > 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteString(intPart[i : i+3])
	}

	num := grouped.String() + "," + frac
	if d.Round(2).IsNegative() {
		num = "-" + num
	}
	if prefix == "" {
		return num
	}
	return prefix + " " + num
}
