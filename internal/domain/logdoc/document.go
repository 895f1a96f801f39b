// Package logdoc defines the stored log document and the parsing rules that
// derive its structured fields from the raw message.
package logdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Attribute names of a stored log document.
const (
	FieldID               = "id"
	FieldMessage          = "message"
	FieldMessageTimestamp = "message_timestamp"
	FieldLogLevel         = "log_level"
	FieldKeyword          = "keyword"
	FieldComment          = "comment"
	FieldVector           = "vector"

	// FieldStoredTimestamp is the epoch-seconds copy of message_timestamp
	// that the store indexes for range queries. It is derived on write and
	// never accepted from callers.
	FieldStoredTimestamp = "message_ts"
)

// Document is one stored log line. Empty string fields are absent. Extras
// holds passthrough metadata (agent, host, container, ...) verbatim.
type Document struct {
	ID               string
	Message          string
	MessageTimestamp string // ISO-8601 YYYY-MM-DDTHH:MM:SS[.fff], no zone
	LogLevel         string
	Keyword          string
	Comment          string
	Vector           []float32
	Extras           map[string]json.RawMessage
}

var reserved = map[string]bool{
	FieldID:               true,
	FieldMessage:          true,
	FieldMessageTimestamp: true,
	FieldLogLevel:         true,
	FieldKeyword:          true,
	FieldComment:          true,
	FieldVector:           true,
	FieldStoredTimestamp:  true,
}

// IsReserved reports whether name is a typed document attribute.
func IsReserved(name string) bool { return reserved[name] }

// Time parses MessageTimestamp as UTC.
func (d *Document) Time() (time.Time, bool) {
	if d.MessageTimestamp == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(isoLayout, d.MessageTimestamp, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WithoutVector returns a shallow copy with the embedding removed.
func (d Document) WithoutVector() Document {
	d.Vector = nil
	return d
}

// MarshalJSON flattens Extras next to the typed attributes. Keys are written
// in sorted order so equal documents encode identically.
func (d Document) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Extras)+len(reserved))
	for k, v := range d.Extras {
		if !reserved[k] {
			m[k] = v
		}
	}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put(FieldID, d.ID)
	m[FieldMessage] = d.Message
	put(FieldMessageTimestamp, d.MessageTimestamp)
	put(FieldLogLevel, d.LogLevel)
	put(FieldKeyword, d.Keyword)
	put(FieldComment, d.Comment)
	if len(d.Vector) > 0 {
		m[FieldVector] = d.Vector
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(m[k])
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads typed attributes and keeps every other key in Extras.
// The derived stored timestamp is skipped.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Document{}
	fields := map[string]*string{
		FieldID:               &d.ID,
		FieldMessage:          &d.Message,
		FieldMessageTimestamp: &d.MessageTimestamp,
		FieldLogLevel:         &d.LogLevel,
		FieldKeyword:          &d.Keyword,
		FieldComment:          &d.Comment,
	}
	for k, v := range raw {
		if dst, ok := fields[k]; ok {
			if isNull(v) {
				continue
			}
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			continue
		}
		if k == FieldStoredTimestamp {
			continue
		}
		if k == FieldVector {
			if isNull(v) {
				continue
			}
			if err := json.Unmarshal(v, &d.Vector); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			continue
		}
		if d.Extras == nil {
			d.Extras = make(map[string]json.RawMessage)
		}
		d.Extras[k] = v
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}
