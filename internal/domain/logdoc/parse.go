package logdoc

import (
	"encoding/json"
	"regexp"
	"strings"
)

const isoLayout = "2006-01-02T15:04:05"

var timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s\d{2}:\d{2}:\d{2}(\.\d+)?`)

// detectedLevels is scanned in order; the first substring hit wins.
var detectedLevels = []Level{LevelInfo, LevelWarn, LevelError}

// ExtractTimestamp returns the first "YYYY-MM-DD HH:MM:SS[.fff]" in message
// rewritten as ISO-8601 with a "T" separator, or "" when none is present.
func ExtractTimestamp(message string) string {
	m := timestampPattern.FindString(message)
	if m == "" {
		return ""
	}
	// The date part is fixed width; position 10 is the separating whitespace.
	return m[:10] + "T" + m[11:]
}

// ExtractLevel returns the first of INFO, WARN, ERROR that occurs as a plain
// substring of message. Matching is case-sensitive and ignores word
// boundaries, so "INFORMATION" yields INFO and "WARNING" yields WARN.
func ExtractLevel(message string) Level {
	for _, l := range detectedLevels {
		if strings.Contains(message, string(l)) {
			return l
		}
	}
	return ""
}

// Parse derives the timestamp and level of a raw message into a new Document.
// Reserved keys in extras are dropped.
func Parse(message string, extras map[string]json.RawMessage) Document {
	doc := Document{
		Message:          message,
		MessageTimestamp: ExtractTimestamp(message),
		LogLevel:         string(ExtractLevel(message)),
	}
	if len(extras) > 0 {
		doc.Extras = make(map[string]json.RawMessage, len(extras))
		for k, v := range extras {
			if !IsReserved(k) {
				doc.Extras[k] = v
			}
		}
	}
	return doc
}
