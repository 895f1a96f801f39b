package lognlook

import (
	"encoding/json"
	"time"

	"github.com/lognlook/lognlook/internal/domain/logdoc"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
	"github.com/lognlook/lognlook/internal/domain/search/result"
)

// Project is a tenant with its own index, ingestion key and vocabulary.
type Project struct {
	ID        string
	Name      string
	IndexName string
	APIKey    string
	Language  string
	Keywords  []string
	CreatedAt time.Time
}

// Log is a stored, enriched log line.
type Log struct {
	ID        string
	Message   string
	Timestamp string // YYYY-MM-DDTHH:MM:SS[.fff] when found in the line
	Level     string
	Keyword   string
	Comment   string
	Extras    map[string]any
}

// SearchResult is a single search hit. Score is the engine score for
// semantic search and the fused RRF score for hybrid search.
type SearchResult struct {
	ID    string
	Score float64
	Log   *Log
}

// IngestResult is the outcome of one line in a batch.
type IngestResult struct {
	Index int
	Log   Log
	Err   error
}

// Query is a filtered semantic search. Empty filters do not restrict.
type Query struct {
	Text    string
	Keyword string
	Level   string
	From    time.Time
	To      time.Time
	K       int
}

// Window selects the time span of Logs.Window.
type Window string

// Windows.
const (
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

// Analysis is a troubleshooting answer. Fallback is set when the model could
// not be reached and Content is a placeholder.
type Analysis struct {
	Title    string
	Content  string
	Fallback bool
	Logs     []Log
}

func fromInternalProject(p domproject.Project) Project {
	return Project{
		ID:        p.ID,
		Name:      p.Name,
		IndexName: p.IndexName,
		APIKey:    p.APIKey,
		Language:  string(p.Language),
		Keywords:  p.Keywords,
		CreatedAt: p.CreatedAt,
	}
}

func fromInternalLog(d logdoc.Document) Log {
	l := Log{
		ID:        d.ID,
		Message:   d.Message,
		Timestamp: d.MessageTimestamp,
		Level:     d.LogLevel,
		Keyword:   d.Keyword,
		Comment:   d.Comment,
	}
	if len(d.Extras) > 0 {
		l.Extras = make(map[string]any, len(d.Extras))
		for k, raw := range d.Extras {
			var v any
			if err := json.Unmarshal(raw, &v); err == nil {
				l.Extras[k] = v
			}
		}
	}
	return l
}

func fromInternalLogs(docs []logdoc.Document) []Log {
	out := make([]Log, len(docs))
	for i, d := range docs {
		out[i] = fromInternalLog(d)
	}
	return out
}

func fromInternalResults(hits []result.Result) []SearchResult {
	out := make([]SearchResult, len(hits))
	for i := range hits {
		out[i] = SearchResult{ID: hits[i].ID(), Score: hits[i].Score()}
		if d := hits[i].Document(); d != nil {
			l := fromInternalLog(*d)
			out[i].Log = &l
		}
	}
	return out
}

func toInternalExtras(extras map[string]any) (map[string]json.RawMessage, error) {
	if len(extras) == 0 {
		return nil, nil
	}
	out := make(map[string]json.RawMessage, len(extras))
	for k, v := range extras {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = raw
	}
	return out, nil
}
