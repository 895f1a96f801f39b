package filter

import (
	"reflect"
	"strings"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

// --- Range tests ---

func TestNewRangeFilter_Valid(t *testing.T) {
	tests := []struct {
		name     string
		min, max *float64
	}{
		{"min only", floatPtr(1), nil},
		{"max only", nil, floatPtr(10)},
		{"both", floatPtr(0), floatPtr(10)},
		{"point", floatPtr(5), floatPtr(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRangeFilter(tt.min, tt.max)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (r.Min() == nil) != (tt.min == nil) {
				t.Error("Min() mismatch")
			}
			if (r.Max() == nil) != (tt.max == nil) {
				t.Error("Max() mismatch")
			}
		})
	}
}

func TestNewRangeFilter_NoBoundary(t *testing.T) {
	_, err := NewRangeFilter(nil, nil)
	if err == nil {
		t.Fatal("expected error for no boundary")
	}
	if !strings.Contains(err.Error(), "at least one") {
		t.Errorf("error = %q", err)
	}
}

func TestNewRangeFilter_Inverted(t *testing.T) {
	_, err := NewRangeFilter(floatPtr(10), floatPtr(1))
	if err == nil {
		t.Fatal("expected error for inverted bounds")
	}
}

func TestRange_ContainsIsInclusive(t *testing.T) {
	r, _ := NewRangeFilter(floatPtr(1), floatPtr(3))
	for _, v := range []float64{1, 2, 3} {
		if !r.Contains(v) {
			t.Errorf("Contains(%g) = false", v)
		}
	}
	for _, v := range []float64{0.999, 3.001} {
		if r.Contains(v) {
			t.Errorf("Contains(%g) = true", v)
		}
	}
}

// --- Condition tests ---

func TestNewMatch(t *testing.T) {
	c, err := NewMatch("log_level", "ERROR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Key() != "log_level" || c.Match() != "ERROR" {
		t.Errorf("got %q=%q", c.Key(), c.Match())
	}
	if !c.IsMatch() || c.IsRange() {
		t.Error("expected a match condition")
	}

	if _, err := NewMatch("", "x"); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := NewMatch("k", ""); err == nil {
		t.Error("expected error for empty value")
	}
}

func TestNewExpression_TooMany(t *testing.T) {
	conds := make([]Condition, MaxConditionsPerGroup+1)
	for i := range conds {
		conds[i] = Condition{key: "k", match: "v"}
	}
	if _, err := NewExpression(conds, nil); err == nil {
		t.Error("expected error for too many must conditions")
	}
	if _, err := NewExpression(nil, conds); err == nil {
		t.Error("expected error for too many should conditions")
	}
}

func TestAnyOf(t *testing.T) {
	expr, err := AnyOf("keyword", []string{"db", "", "auth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expr.Must()) != 0 {
		t.Errorf("Must() len = %d, want 0", len(expr.Must()))
	}
	if len(expr.Should()) != 2 {
		t.Fatalf("Should() len = %d, want 2", len(expr.Should()))
	}

	empty, err := AnyOf("keyword", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !empty.IsEmpty() {
		t.Error("AnyOf with no values should be empty")
	}
}

// --- Build tests ---

func TestBuild_EmptyMatchesAll(t *testing.T) {
	expr, err := Build(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expr.IsEmpty() {
		t.Error("empty input must yield the match-all expression")
	}
}

func TestBuild_SkipsNilValues(t *testing.T) {
	expr, err := Build([]Term{
		{Field: "keyword", Value: nil},
		{Field: "log_level", Value: strPtr("ERROR")},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	must := expr.Must()
	if len(must) != 1 {
		t.Fatalf("Must() len = %d, want 1", len(must))
	}
	if must[0].Key() != "log_level" || must[0].Match() != "ERROR" {
		t.Errorf("got %s=%s, want log_level=ERROR", must[0].Key(), must[0].Match())
	}
}

func TestBuild_AllNilIsEmpty(t *testing.T) {
	expr, err := Build([]Term{{Field: "keyword"}, {Field: "log_level", Value: strPtr("")}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expr.IsEmpty() {
		t.Error("expected match-all when every term value is absent")
	}
}

func TestBuild_RangeInclusive(t *testing.T) {
	expr, err := Build(nil, &RangeSpec{Field: "message_timestamp", Lower: floatPtr(10), Upper: floatPtr(20)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	must := expr.Must()
	if len(must) != 1 || !must[0].IsRange() {
		t.Fatalf("expected one range condition, got %+v", must)
	}
	r := must[0].Range()
	if *r.Min() != 10 || *r.Max() != 20 {
		t.Errorf("range = [%g, %g], want [10, 20]", *r.Min(), *r.Max())
	}
}

func TestBuild_OpenRangeIgnored(t *testing.T) {
	expr, err := Build(nil, &RangeSpec{Field: "message_timestamp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expr.IsEmpty() {
		t.Error("range with no bounds should add nothing")
	}
}

func TestBuild_InvertedRange(t *testing.T) {
	_, err := Build(nil, &RangeSpec{Field: "ts", Lower: floatPtr(5), Upper: floatPtr(1)})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `range on "ts"`) {
		t.Errorf("error = %q", err)
	}
}

func TestBuild_OrderIndependent(t *testing.T) {
	rng := &RangeSpec{Field: "message_timestamp", Lower: floatPtr(1), Upper: floatPtr(2)}
	a, err := Build([]Term{
		{Field: "log_level", Value: strPtr("WARN")},
		{Field: "keyword", Value: strPtr("db")},
	}, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Build([]Term{
		{Field: "keyword", Value: strPtr("db")},
		{Field: "log_level", Value: strPtr("WARN")},
	}, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expressions differ:\n%+v\n%+v", a, b)
	}

	keys := make([]string, 0, len(a.Must()))
	for _, c := range a.Must() {
		keys = append(keys, c.Key())
	}
	want := []string{"keyword", "log_level", "message_timestamp"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("empty string should map to nil")
	}
	if p := StringPtr("x"); p == nil || *p != "x" {
		t.Error("non-empty string should map to its address")
	}
}
