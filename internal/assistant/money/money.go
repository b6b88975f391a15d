// Package money parses user-typed amounts and formats them the way replies show money.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var errEmpty = errors.New("empty amount")

// MaxAbs bounds accepted amounts. Larger magnitudes lose cent precision in float64.
const MaxAbs = 1e15

var separators = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"_", "",
	"₽", "",
)

// Parse reads a signed amount. Spaces act as thousand separators. When both a
// comma and a dot are present the rightmost one is the decimal separator; a lone
// single comma is a decimal separator too.
func Parse(text string) (float64, error) {
	s := separators.Replace(strings.TrimSpace(text))
	if s == "" {
		return 0, errEmpty
	}
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && dot > comma:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && dot >= 0:
		s = strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	case strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", text, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parse amount %q: not a finite number", text)
	}
	if math.Abs(v) >= MaxAbs {
		return 0, fmt.Errorf("parse amount %q: out of range", text)
	}
	return v, nil
}

// ParseNonNegative is Parse restricted to values >= 0.
func ParseNonNegative(text string) (float64, error) {
	v, err := Parse(text)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("parse amount %q: negative value", text)
	}
	return v, nil
}

// Format renders v with comma thousand separators and two decimals, e.g. 50,000.00.
// Values at or beyond MaxAbs skip grouping, humanize rounds through int64.
func Format(v float64) string {
	if math.Abs(v) >= MaxAbs || math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return humanize.FormatFloat("#,###.##", v)
}

// Percent renders a rate fraction as a percentage without trailing zeros, e.g. 0.06 -> "6".
func Percent(rate float64) string {
	return strconv.FormatFloat(math.Round(rate*10000)/100, 'f', -1, 64)
}
