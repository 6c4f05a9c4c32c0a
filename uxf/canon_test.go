package uxf

import (
	"strings"
	"testing"
	"time"
)

func TestNaturalize(t *testing.T) {
	tests := []struct {
		input string
		want  *Value
	}{
		{"t", Bool(true)},
		{"TRUE", Bool(true)},
		{"Yes", Bool(true)},
		{"y", Bool(true)},
		{"F", Bool(false)},
		{"no", Bool(false)},
		{"42", Int(42)},
		{"-7", Int(-7)},
		{"2.5", Real(2.5)},
		{"1e3", Real(1000)},
		{"2022-01-13", DateOf(2022, time.January, 13)},
		{"2022-01-13T10:30:00", DateTime(time.Date(2022, 1, 13, 10, 30, 0, 0, time.UTC))},
		{"hello", Str("hello")},
		{"", Str("")},
		{"2022-13-45", Str("2022-13-45")},
		{"Tomorrow", Str("Tomorrow")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Naturalize(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("Naturalize(%q) = %s (%s), want %s (%s)", tt.input, got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"price", "UXF_", "price"},
		{"Total Sales", "UXF_", "Total_Sales"},
		{"a -- b", "UXF_", "a_b"},
		{"2023 totals", "UXF_", "UXF_2023_totals"},
		{"(x)", "UXF_", "_x_"},
		{"_hidden", "UXF_", "_hidden"},
		{"date", "F_", "F_date"},
		{"yes", "F_", "F_yes"},
		{"any", "F_", "F_any"},
		{"", "F_", "F_"},
		{"café", "F_", "café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.name, tt.prefix); got != tt.want {
				t.Errorf("Canonicalize(%q, %q) = %q, want %q", tt.name, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestCanonicalize_Length(t *testing.T) {
	got := Canonicalize(strings.Repeat("x", 100), "P")
	if len(got) != MaxIdentifierLen {
		t.Errorf("Expected %d characters, got %d", MaxIdentifierLen, len(got))
	}
}

func TestCanonicalize_ValidNames(t *testing.T) {
	for _, name := range []string{"Total Sales", "2023", "int", "a.b.c", "Über-Größe"} {
		got := Canonicalize(name, "T")
		if _, err := NewField(got, ""); err != nil {
			t.Errorf("Canonicalize(%q) = %q is not a valid field name: %v", name, got, err)
		}
	}
}

func TestIsScalar(t *testing.T) {
	for _, v := range []*Value{Null(), Bool(true), Int(1), Real(1), DateOf(2020, 1, 1), Str(""), Bytes(nil)} {
		if !IsScalar(v) {
			t.Errorf("Expected %s to be a scalar", v.Kind())
		}
	}
	for _, v := range []*Value{ListValue(NewList("")), MapValue(NewMap("", "")), TableValue(NewTable(nil))} {
		if IsScalar(v) {
			t.Errorf("Expected %s not to be a scalar", v.Kind())
		}
	}
}
