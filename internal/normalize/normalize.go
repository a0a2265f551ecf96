// Package normalize canonicalizes the monetary and date strings that come
// back from statement extraction. Both functions are total: any input the
// model produces maps to a value or nil, never an error, so one bad cell can
// never fail a record.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// placeholder tokens the model uses for "no value".
var placeholders = map[string]bool{
	"":     true,
	"null": true,
	"none": true,
	"n/a":  true,
	"na":   true,
	"-":    true,
	"--":   true,
}

var (
	// Transaction-direction markers, case-insensitive. Statements attach
	// these directly to the amount ("1,142,432.00Cr"), so no word boundary on
	// the left. Direction is carried by which field a value occupies (debit
	// vs credit), never by a marker or a sign.
	directionMarkers = regexp.MustCompile(`(?i)(credit|debit|cr|dr)\.?`)

	// Currency prefixes like "Rs." or "USD" are a letter run plus any dot
	// attached to it. The dot must go with the letters: left to the generic
	// strip it would survive and corrupt the number ("Rs.500" -> ".500").
	currencyPrefixes = regexp.MustCompile(`[A-Za-z]+\.?`)

	// Anything that is not a digit, decimal point or minus sign. Currency
	// symbols and thousands separators all fall here.
	nonNumeric = regexp.MustCompile(`[^0-9.\-]`)
)

// Money canonicalizes a raw monetary value to an unsigned decimal. Returns
// nil for absent, placeholder or unparsable input. The result is always
// non-negative: a leading minus or a "Dr" marker never survives as a sign.
func Money(raw any) *decimal.Decimal {
	var s string
	switch v := raw.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		abs := v.Abs()
		return &abs
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		abs := v.Abs()
		return &abs
	case float64:
		d := decimal.NewFromFloat(v).Abs()
		return &d
	case int:
		d := decimal.NewFromInt(int64(v)).Abs()
		return &d
	case int64:
		d := decimal.NewFromInt(v).Abs()
		return &d
	case string:
		s = v
	default:
		return nil
	}

	s = strings.TrimSpace(s)
	if placeholders[strings.ToLower(s)] {
		return nil
	}

	s = directionMarkers.ReplaceAllString(s, "")
	s = currencyPrefixes.ReplaceAllString(s, "")
	s = nonNumeric.ReplaceAllString(s, "")

	// A bare minus or dot is what remains of a placeholder, not a number.
	if s == "" || s == "-" || s == "." || s == "-." {
		return nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	abs := d.Abs()
	return &abs
}

// dateLayouts are tried in order. Month-abbreviation forms come first since
// they are unambiguous; numeric forms assume day-first, the convention of the
// statements this pipeline targets.
var dateLayouts = []string{
	"2006-01-02",
	"02-Jan-2006",
	"02-Jan-06",
	"2-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/06",
	"2/1/06",
	"02-01-06",
}

// Date canonicalizes a raw date string to ISO YYYY-MM-DD. Unparsable input
// yields "" so the record survives with a null date.
func Date(raw string) string {
	s := strings.TrimSpace(raw)
	if placeholders[strings.ToLower(s)] {
		return ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
