// Package modulation holds the closed set of modulation variants and their
// data-rate formulas.
package modulation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"modcalc/consts"
)

// Kind tags a modulation variant.
type Kind int

const (
	BPSK Kind = iota
	QPSK
	FSK
)

// Field keys.
const (
	FieldRate      = "rate"
	FieldDeviation = "deviation"
)

var ErrUnknownVariant = errors.New("unknown modulation variant")

// ParseError reports field text that is not a number.
type ParseError struct {
	Field string
	Text  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("field %s: %q is not a number", e.Field, e.Text)
}

// Field is an input a variant declares.
type Field struct {
	Key     string
	Label   string
	Default string
}

// Inputs maps field keys to raw field text.
type Inputs map[string]string

// Variant is one modulation scheme. Variants carry no mutable state.
type Variant struct {
	Kind   Kind
	Name   string
	Fields []Field
}

var rateField = Field{Key: FieldRate, Label: "Modulation Rate (symbols/s):", Default: consts.DefaultInput}

var deviationField = Field{Key: FieldDeviation, Label: "Frequency Deviation (Hz):", Default: consts.DefaultInput}

var variants = []Variant{
	{Kind: BPSK, Name: "BPSK", Fields: []Field{rateField}},
	{Kind: QPSK, Name: "QPSK", Fields: []Field{rateField}},
	{Kind: FSK, Name: "FSK", Fields: []Field{rateField, deviationField}},
}

// Variants returns all variants in display order.
func Variants() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// Names returns the variant names in display order.
func Names() []string {
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
	}
	return names
}

// Lookup finds a variant by name.
func Lookup(name string) (Variant, error) {
	for _, v := range variants {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(variants) {
		return variants[k].Name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Declares reports whether the variant has an input field with the given key.
func (v Variant) Declares(key string) bool {
	for _, f := range v.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Defaults returns a fresh set of inputs holding each field's default text.
func (v Variant) Defaults() Inputs {
	in := make(Inputs, len(v.Fields))
	for _, f := range v.Fields {
		in[f.Key] = f.Default
	}
	return in
}

// Diagram returns the variant's constellation diagram.
func (v Variant) Diagram() string {
	switch v.Kind {
	case QPSK:
		return consts.QPSKDiagram
	case FSK:
		return consts.FSKDiagram
	default:
		return consts.BPSKDiagram
	}
}

// Compute returns the data rate in bits/s. Only an unparseable rate is an
// error; FSK treats an unparseable deviation as 0.
func (v Variant) Compute(in Inputs) (float64, error) {
	rate, err := ParseNumber(FieldRate, in[FieldRate])
	if err != nil {
		return 0, err
	}

	switch v.Kind {
	case QPSK:
		return rate * 2.0, nil
	case FSK:
		dev, err := ParseNumber(FieldDeviation, in[FieldDeviation])
		if err != nil {
			dev = 0
		}
		return rate + dev/consts.DeviationScale, nil
	default:
		return rate, nil
	}
}

// ComputeDataRate formats the data rate for display, or "Invalid input".
func (v Variant) ComputeDataRate(in Inputs) string {
	rate, err := v.Compute(in)
	if err != nil {
		return consts.InvalidInput
	}
	return FormatRate(rate)
}

// FormatRate renders a rate with two decimals and its unit.
func FormatRate(rate float64) string {
	var num string
	switch {
	case math.IsNaN(rate):
		num = "nan"
	case math.IsInf(rate, 1):
		num = "inf"
	case math.IsInf(rate, -1):
		num = "-inf"
	default:
		num = strconv.FormatFloat(rate, 'f', 2, 64)
	}
	return num + " " + consts.RateUnit
}

// ParseNumber parses decimal field text. Surrounding whitespace is ignored,
// any Unicode decimal digit counts, a single underscore may separate two
// digits, "inf" and "nan" are accepted with or without a sign, and
// out-of-range values saturate to infinity.
func ParseNumber(field, text string) (float64, error) {
	s, ok := normalizeNumber(text)
	if !ok {
		return 0, &ParseError{Field: field, Text: text}
	}

	digits := strings.TrimLeft(s, "+-")
	if len(s)-len(digits) > 1 || strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, &ParseError{Field: field, Text: text}
	}
	if strings.EqualFold(digits, "nan") {
		return math.NaN(), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, nil
		}
		return 0, &ParseError{Field: field, Text: text}
	}
	return f, nil
}

// normalizeNumber trims the text, maps non-ASCII decimal digits to ASCII and
// drops underscores that sit between two digits. Any other underscore fails.
func normalizeNumber(text string) (string, bool) {
	runes := []rune(strings.TrimSpace(text))
	for i, r := range runes {
		if r > unicode.MaxASCII && unicode.IsDigit(r) {
			runes[i] = '0' + digitValue(r)
		}
	}

	var b strings.Builder
	for i, r := range runes {
		if r == '_' {
			if i == 0 || i == len(runes)-1 || !isASCIIDigit(runes[i-1]) || !isASCIIDigit(runes[i+1]) {
				return "", false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), true
}

// digitValue relies on every Nd block being a complete run from 0 to 9.
func digitValue(r rune) rune {
	n := rune(0)
	for unicode.IsDigit(r - n - 1) {
		n++
	}
	return n % 10
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
