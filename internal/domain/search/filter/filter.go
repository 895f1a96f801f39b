package filter

import "fmt"

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Expression is a structured filter: every must condition holds AND at least one
// of the should conditions holds (when any are present). The zero value matches
// every document.
type Expression struct {
	must   []Condition
	should []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should}, nil
}

// AnyOf matches documents whose key equals one of values. Empty values are
// skipped; no remaining values yields the match-all expression.
func AnyOf(key string, values []string) (Expression, error) {
	conds := make([]Condition, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		c, err := NewMatch(key, v)
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}
	return NewExpression(nil, conds)
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0
}

// Condition is a single filter clause: either an exact match or an inclusive range.
type Condition struct {
	key       string
	match     string
	rangeExpr *Range
}

// NewMatch creates an exact match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is a numeric range with inclusive bounds; a nil bound is open.
type Range struct {
	min *float64
	max *float64
}

// NewRangeFilter validates and creates a Range. At least one bound is required.
func NewRangeFilter(lowerInclusive, upperInclusive *float64) (Range, error) {
	if lowerInclusive == nil && upperInclusive == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if lowerInclusive != nil && upperInclusive != nil && *lowerInclusive > *upperInclusive {
		return Range{}, fmt.Errorf("lower bound %g is greater than upper bound %g", *lowerInclusive, *upperInclusive)
	}
	return Range{min: lowerInclusive, max: upperInclusive}, nil
}

// Min returns the inclusive lower bound, nil if open.
func (r Range) Min() *float64 { return r.min }

// Max returns the inclusive upper bound, nil if open.
func (r Range) Max() *float64 { return r.max }

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	if r.min != nil && v < *r.min {
		return false
	}
	if r.max != nil && v > *r.max {
		return false
	}
	return true
}
