// Package project models a tenant whose logs live in one document-store index.
package project

import (
	"fmt"
	"strings"
	"time"

	"github.com/lognlook/lognlook/internal/domain"
)

const (
	// MaxNameLength bounds the display name.
	MaxNameLength = 100
	// MaxKeywords bounds the classification vocabulary.
	MaxKeywords = 50
	// MaxKeywordLength bounds a single vocabulary entry.
	MaxKeywordLength = 64
)

// Project is a row of the project directory. IndexName is a random token
// decoupled from Name, so renaming never touches the document store.
type Project struct {
	ID        string
	Name      string
	IndexName string
	APIKey    string
	Language  domain.Language
	Keywords  []string
	CreatedAt time.Time
}

// ValidateName trims and checks a display name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("name", "is required")
	}
	if len(name) > MaxNameLength {
		return "", domain.NewValidationError("name", fmt.Sprintf("exceeds %d characters", MaxNameLength))
	}
	return name, nil
}

// NormalizeKeywords trims, drops blanks and de-duplicates keeping first
// occurrence order.
func NormalizeKeywords(keywords []string) ([]string, error) {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if len(k) > MaxKeywordLength {
			return nil, domain.NewValidationError("keywords",
				fmt.Sprintf("keyword %q exceeds %d characters", k, MaxKeywordLength))
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) > MaxKeywords {
		return nil, domain.NewValidationError("keywords", fmt.Sprintf("at most %d keywords", MaxKeywords))
	}
	return out, nil
}
