package filter

import (
	"fmt"
	"sort"
)

// Term is a field equality intent. A nil Value means "no restriction".
type Term struct {
	Field string
	Value *string
}

// RangeSpec is an inclusive range intent on a numeric field.
type RangeSpec struct {
	Field string
	Lower *float64
	Upper *float64
}

// Build composes the AND of all term and range intents into an Expression.
// Terms with a nil or empty value are skipped, a nil range adds nothing and an
// empty input yields the match-all expression. Conditions are canonically
// ordered, so equal intent sets in any order produce equal expressions.
func Build(terms []Term, rng *RangeSpec) (Expression, error) {
	conds := make([]Condition, 0, len(terms)+1)

	for _, t := range terms {
		if t.Value == nil || *t.Value == "" {
			continue
		}
		c, err := NewMatch(t.Field, *t.Value)
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}

	if rng != nil && (rng.Lower != nil || rng.Upper != nil) {
		r, err := NewRangeFilter(rng.Lower, rng.Upper)
		if err != nil {
			return Expression{}, fmt.Errorf("range on %q: %w", rng.Field, err)
		}
		c, err := NewRange(rng.Field, r)
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}

	sort.SliceStable(conds, func(i, j int) bool {
		return conditionLess(conds[i], conds[j])
	})

	return NewExpression(conds, nil)
}

func conditionLess(a, b Condition) bool {
	if a.key != b.key {
		return a.key < b.key
	}
	if a.IsMatch() != b.IsMatch() {
		return a.IsMatch()
	}
	return a.match < b.match
}

// StringPtr returns nil for an empty string, the address of s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
