package utils

import (
	"encoding/json"
	"testing"
)

func TestParseMoney_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"Rp 100,000", "100000"},
		{"IDR -20,000", "-20000"},
		{"  rp 1,234.50  ", "1234.5"},
	}
	for _, tc := range cases {
		d, err := ParseMoney(tc.in)
		if err != nil {
			t.Fatalf("ParseMoney(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseMoney(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestParseMoney_RejectsGarbage(t *testing.T) {
	for _, in := range []interface{}{"", "Rp", "abc", true} {
		if _, err := ParseMoney(in); err == nil {
			t.Fatalf("ParseMoney(%v) expected error", in)
		}
	}
}

func TestParseMoney_JSONNumberKeepsPrecision(t *testing.T) {
	d, err := ParseMoney(json.Number("0.1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "0.1" {
		t.Fatalf("expected 0.1, got %s", d.String())
	}
}

func TestParseOptionalMoney(t *testing.T) {
	d, err := ParseOptionalMoney("  ")
	if err != nil || d != nil {
		t.Fatalf("expected nil for blank input, got %v %v", d, err)
	}
	d, err = ParseOptionalMoney("11")
	if err != nil || d == nil || d.String() != "11" {
		t.Fatalf("expected 11, got %v %v", d, err)
	}
}
