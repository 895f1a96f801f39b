package chi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/lognlook/lognlook/internal/domain"
)

// localLayout is accepted for timestamps without a zone; they are read as UTC.
const localLayout = "2006-01-02T15:04:05"

// bindQuery binds the form-style query parameter name into dest. Optional
// parameters take a pointer-to-pointer destination and stay nil when absent.
func bindQuery(r *http.Request, name string, required bool, dest any) error {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		return domain.NewValidationError(name, err.Error())
	}
	return nil
}

// parseTime reads an RFC 3339 or zone-less ISO 8601 timestamp.
func parseTime(field string, v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(localLayout, s, time.UTC)
	if err != nil {
		return nil, domain.NewValidationError(field, fmt.Sprintf("invalid timestamp %q", s))
	}
	return &t, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
