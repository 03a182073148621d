package validate

import (
	"strings"
	"testing"

	"smarttrack/internal/domain"
)

func TestID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1", 1, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ID(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ID(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPage(t *testing.T) {
	p, err := Page("", "")
	if err != nil || p.Skip != 0 || p.Limit != domain.DefaultPageLimit {
		t.Fatalf("defaults: %+v %v", p, err)
	}
	p, err = Page("20", "1000")
	if err != nil || p.Skip != 20 || p.Limit != 1000 {
		t.Fatalf("explicit: %+v %v", p, err)
	}
	for _, bad := range [][2]string{{"-1", "10"}, {"0", "0"}, {"0", "1001"}, {"x", "10"}, {"0", "ten"}} {
		if _, err := Page(bad[0], bad[1]); !domain.IsKind(err, domain.KindValidation) {
			t.Errorf("Page(%q, %q): want validation error, got %v", bad[0], bad[1], err)
		}
	}
}

func TestRange(t *testing.T) {
	r, err := Range("2024-01-01", "2024-01-31")
	if err != nil || r.Start == nil || r.End == nil || r.End.Day() != 31 {
		t.Fatalf("range: %+v %v", r, err)
	}
	r, err = Range("", "")
	if err != nil || r.Start != nil || r.End != nil {
		t.Fatalf("open range: %+v %v", r, err)
	}
	if _, err := Range("2024-02-01", "2024-01-01"); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("reversed: %v", err)
	}
	_, err = Range("01/02/2024", "")
	if !domain.IsKind(err, domain.KindValidation) || !strings.Contains(err.Error(), "start_date") {
		t.Fatalf("bad start: %v", err)
	}
}

func TestBoolAndCategoryType(t *testing.T) {
	if b, ok := Bool("", true); !ok || !b {
		t.Fatal("blank should default")
	}
	if b, ok := Bool("false", true); !ok || b {
		t.Fatal("false not parsed")
	}
	if _, ok := Bool("maybe", true); ok {
		t.Fatal("garbage accepted")
	}

	if ct, ok := CategoryType(""); !ok || ct != nil {
		t.Fatal("blank category type should be nil")
	}
	if ct, ok := CategoryType("Expense"); !ok || *ct != domain.CategoryExpense {
		t.Fatal("expense not accepted")
	}
	if _, ok := CategoryType("service"); ok {
		t.Fatal("unknown category type accepted")
	}
}

func TestQty(t *testing.T) {
	cases := map[string]int{"": 1, "0": 1, "-4": 1, "3": 3, "100000": 9999, "x": 1}
	for in, want := range cases {
		if got := Qty(in); got != want {
			t.Errorf("Qty(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestMoney(t *testing.T) {
	m, ok := Money("12.5")
	if !ok || !m.Equal(domain.MustMoney("12.50")) {
		t.Fatalf("12.5: %v %v", m, ok)
	}
	if m, ok := Money(""); !ok || !m.IsZero() {
		t.Fatal("blank should be zero")
	}
	for _, bad := range []string{"-1", "1.234", "abc", "1,50", "123456789.00"} {
		if _, ok := Money(bad); ok {
			t.Errorf("Money(%q) accepted", bad)
		}
	}
}

func TestName(t *testing.T) {
	if n, ok := Name("  Ada  ", 10); !ok || *n != "Ada" {
		t.Fatal("trim failed")
	}
	if n, ok := Name(" ", 10); !ok || n != nil {
		t.Fatal("blank should be nil")
	}
	if _, ok := Name(strings.Repeat("x", 11), 10); ok {
		t.Fatal("too long accepted")
	}
}
