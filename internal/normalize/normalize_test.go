package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string // decimal string, "" means nil
	}{
		{name: "plain amount", raw: "1250.50", want: "1250.5"},
		{name: "thousands separators", raw: "1,250.50", want: "1250.5"},
		{name: "currency prefix", raw: "Rs.1,250.50", want: "1250.5"},
		{name: "spaced currency prefix", raw: "Rs. 500", want: "500"},
		{name: "currency code", raw: "USD 1.50", want: "1.5"},
		{name: "currency symbol", raw: "$99.99", want: "99.99"},
		{name: "attached credit marker", raw: "1,142,432.00Cr", want: "1142432"},
		{name: "spaced debit marker", raw: "-500.00 Dr", want: "500"},
		{name: "debit word", raw: "250.00 Debit", want: "250"},
		{name: "marker with dot", raw: "75.25 Dr.", want: "75.25"},
		{name: "negative becomes unsigned", raw: "-42.00", want: "42"},
		{name: "float64 input", raw: 1000.5, want: "1000.5"},
		{name: "negative float", raw: -12.5, want: "12.5"},
		{name: "int input", raw: 7, want: "7"},
		{name: "nil", raw: nil, want: ""},
		{name: "empty string", raw: "", want: ""},
		{name: "null token", raw: "null", want: ""},
		{name: "na token", raw: "N/A", want: ""},
		{name: "dash placeholder", raw: "-", want: ""},
		{name: "double dash", raw: "--", want: ""},
		{name: "whitespace only", raw: "   ", want: ""},
		{name: "pure text", raw: "pending", want: ""},
		{name: "unexpected type", raw: []string{"x"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Money(tt.raw)
			if tt.want == "" {
				if got != nil {
					t.Errorf("Money(%v) = %s, want nil", tt.raw, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Money(%v) = nil, want %s", tt.raw, tt.want)
			}
			if got.String() != tt.want {
				t.Errorf("Money(%v) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMoneyIdempotent(t *testing.T) {
	first := Money("1,142,432.00Cr")
	if first == nil {
		t.Fatal("first pass returned nil")
	}
	second := Money(*first)
	if second == nil || !second.Equal(*first) {
		t.Errorf("second pass = %v, want %s", second, first)
	}
}

func TestMoneyDecimalPassthrough(t *testing.T) {
	d := decimal.NewFromFloat(-33.10)
	got := Money(d)
	if got == nil || got.String() != "33.1" {
		t.Errorf("Money(decimal -33.10) = %v, want 33.1", got)
	}

	var nilPtr *decimal.Decimal
	if Money(nilPtr) != nil {
		t.Error("Money(nil *decimal.Decimal) should be nil")
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "already iso", raw: "2024-03-15", want: "2024-03-15"},
		{name: "dd-Mon-yyyy", raw: "15-Mar-2024", want: "2024-03-15"},
		{name: "dd-Mon-yy", raw: "15-Mar-24", want: "2024-03-15"},
		{name: "d Mon yyyy", raw: "5 Mar 2024", want: "2024-03-05"},
		{name: "dd full month yyyy", raw: "15 March 2024", want: "2024-03-15"},
		{name: "Mon d comma yyyy", raw: "Mar 5, 2024", want: "2024-03-05"},
		{name: "day first slash", raw: "15/03/2024", want: "2024-03-15"},
		{name: "day first dash", raw: "15-03-2024", want: "2024-03-15"},
		{name: "day first dot", raw: "15.03.2024", want: "2024-03-15"},
		{name: "two digit year slash", raw: "15/03/24", want: "2024-03-15"},
		{name: "surrounding whitespace", raw: "  2024-03-15  ", want: "2024-03-15"},
		{name: "empty", raw: "", want: ""},
		{name: "null token", raw: "null", want: ""},
		{name: "placeholder dash", raw: "-", want: ""},
		{name: "garbage", raw: "yesterday", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Date(tt.raw); got != tt.want {
				t.Errorf("Date(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
