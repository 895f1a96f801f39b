package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	"github.com/lognlook/lognlook/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultK       = 10
	DefaultHybridK = 5
	MaxK           = 500
)

// TimestampField is the numeric (epoch seconds) alias of message_timestamp.
const TimestampField = logdoc.FieldMessageTimestamp

// Request is a validated filtered retrieval query.
type Request struct {
	text    string
	keyword string
	level   logdoc.Level
	start   *time.Time
	end     *time.Time
	k       int
	filters filter.Expression
}

// New validates the raw query parameters and builds the filter expression.
// start and end must be given together with start <= end.
func New(text string, keyword, level *string, start, end *time.Time, k int) (Request, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Request{}, domain.NewValidationError("query_text", "is required")
	}
	if len(text) > MaxQueryLength {
		return Request{}, domain.NewValidationError("query_text", fmt.Sprintf("too long (max %d chars)", MaxQueryLength))
	}
	if err := ValidateK(k); err != nil {
		return Request{}, err
	}
	if (start == nil) != (end == nil) {
		return Request{}, domain.NewValidationError("start_time", "start_time and end_time must be given together")
	}
	if start != nil && start.After(*end) {
		return Request{}, domain.NewValidationError("start_time", "must not be after end_time")
	}

	r := Request{text: text, start: start, end: end, k: k}

	terms := make([]filter.Term, 0, 2)
	if keyword != nil && *keyword != "" {
		r.keyword = *keyword
		terms = append(terms, filter.Term{Field: logdoc.FieldKeyword, Value: keyword})
	}
	if level != nil && *level != "" {
		l, err := logdoc.ParseLevel(*level)
		if err != nil {
			return Request{}, domain.NewValidationError("log_level", err.Error())
		}
		r.level = l
		lv := string(l)
		terms = append(terms, filter.Term{Field: logdoc.FieldLogLevel, Value: &lv})
	}

	var rng *filter.RangeSpec
	if start != nil {
		lo, hi := EpochSeconds(*start), EpochSeconds(*end)
		rng = &filter.RangeSpec{Field: TimestampField, Lower: &lo, Upper: &hi}
	}

	expr, err := filter.Build(terms, rng)
	if err != nil {
		return Request{}, domain.NewValidationError("filter", err.Error())
	}
	r.filters = expr
	return r, nil
}

// ValidateK rejects non-positive and oversized result counts.
func ValidateK(k int) error {
	if k <= 0 {
		return domain.NewValidationError("k", "must be positive")
	}
	if k > MaxK {
		return domain.NewValidationError("k", fmt.Sprintf("must be at most %d", MaxK))
	}
	return nil
}

// EpochSeconds converts t to fractional Unix seconds, the unit the store
// indexes message timestamps in.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Text returns the query text.
func (r *Request) Text() string { return r.text }

// Keyword returns the keyword restriction, "" if none.
func (r *Request) Keyword() string { return r.keyword }

// Level returns the log level restriction, "" if none.
func (r *Request) Level() logdoc.Level { return r.level }

// Window returns the inclusive time window, nil bounds if unrestricted.
func (r *Request) Window() (start, end *time.Time) { return r.start, r.end }

// K returns the number of results to return.
func (r *Request) K() int { return r.k }

// Filters returns the pre-filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }
