package logstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lognlook/lognlook/internal/domain/logdoc"
)

// storedTimestampKey is the document attribute behind timestampPath.
const storedTimestampKey = logdoc.FieldStoredTimestamp

// encodeDocument renders doc in its stored form: no id (the key carries it)
// plus message_ts when the ISO timestamp parses. Document marshalling drops
// reserved extras, so a caller-supplied message_ts never reaches the store.
func encodeDocument(doc logdoc.Document) ([]byte, error) {
	doc.ID = ""
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal log document: %w", err)
	}

	ts, ok := doc.Time()
	if !ok {
		return data, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("marshal log document: %w", err)
	}
	secs := float64(ts.UnixNano()) / 1e9
	m[storedTimestampKey] = json.RawMessage(strconv.FormatFloat(secs, 'f', -1, 64))

	data, err = json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal log document: %w", err)
	}
	return data, nil
}

// decodeDocument parses a stored document and restores its id from the key.
func decodeDocument(id string, raw []byte) (logdoc.Document, error) {
	raw = unwrapJSONPath(raw)

	var doc logdoc.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return logdoc.Document{}, fmt.Errorf("unmarshal log document %s: %w", id, err)
	}
	doc.ID = id
	return doc, nil
}

// unwrapJSONPath strips the single-element array JSONPath replies carry.
func unwrapJSONPath(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(s), &arr); err == nil && len(arr) == 1 {
			return arr[0]
		}
	}
	return raw
}
