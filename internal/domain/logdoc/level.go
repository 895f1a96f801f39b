package logdoc

import (
	"fmt"
	"strings"
)

// Level is a log severity label.
type Level string

// Levels accepted as query filters. Only INFO, WARN and ERROR are ever
// detected at ingestion; the rest match documents labelled by other means.
const (
	LevelInfo     Level = "INFO"
	LevelWarn     Level = "WARN"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
	LevelDebug    Level = "DEBUG"
	LevelCustom   Level = "CUSTOM"
)

// ParseLevel normalizes a query level, case-insensitively. "warning" is
// accepted as WARN.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelInfo, LevelWarn, LevelError, LevelCritical, LevelDebug, LevelCustom:
		return l, nil
	case "WARNING":
		return LevelWarn, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}
