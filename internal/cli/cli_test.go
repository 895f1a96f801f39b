package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/lognlook/lognlook/internal/config"
	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/usecase/pipeline"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"serve", "index", "ingest", "search", "project", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("env") == nil {
		t.Error("expected persistent --env flag")
	}
}

func TestNestedCommands(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{
		{"index", "create"},
		{"index", "delete"},
		{"project", "create"},
		{"project", "list"},
		{"project", "keywords"},
		{"project", "delete"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not registered", path)
		}
	}
}

func TestSearchCmd_Flags(t *testing.T) {
	cmd := NewSearchCmd(func() string { return "test" })

	for _, name := range []string{"project", "query", "keyword", "level", "k", "hybrid", "json"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
	if f := cmd.Flags().ShorthandLookup("q"); f == nil || f.Name != "query" {
		t.Error("expected -q shorthand for --query")
	}
}

func TestSearchCmd_RequiresQueryOrKeyword(t *testing.T) {
	cmd := NewSearchCmd(func() string { return "test" })
	cmd.SetArgs([]string{"--project", "p1"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--query or --keyword") {
		t.Fatalf("expected query/keyword error, got %v", err)
	}
}

func TestSearchCmd_HybridNeedsQuery(t *testing.T) {
	cmd := NewSearchCmd(func() string { return "test" })
	cmd.SetArgs([]string{"--project", "p1", "--keyword", "Database", "--hybrid"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--hybrid requires --query") {
		t.Fatalf("expected hybrid error, got %v", err)
	}
}

func TestIngestCmd_ProjectRequired(t *testing.T) {
	cmd := NewIngestCmd(func() string { return "test" })
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected missing --project error")
	}
}

func TestIngestCmd_EmptyInput(t *testing.T) {
	cmd := NewIngestCmd(func() string { return "test" })
	var out bytes.Buffer
	cmd.SetArgs([]string{"--project", "p1"})
	cmd.SetIn(strings.NewReader("\n  \n"))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "no log lines") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestReadEntries(t *testing.T) {
	in := "2024-01-01 ERROR boom\r\n\n   \nINFO ok\n"

	got, err := readEntries(strings.NewReader(in))
	if err != nil {
		t.Fatalf("readEntries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Message != "2024-01-01 ERROR boom" {
		t.Errorf("carriage return not trimmed: %q", got[0].Message)
	}
	if got[1].Message != "INFO ok" {
		t.Errorf("second entry = %q", got[1].Message)
	}
}

func TestChunk(t *testing.T) {
	entries := make([]pipeline.Entry, 250)

	batches := chunk(entries, pipeline.MaxBatchSize)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	if batches[2].offset != 200 || len(batches[2].entries) != 50 {
		t.Errorf("last batch = offset %d, len %d", batches[2].offset, len(batches[2].entries))
	}
	if len(chunk(nil, 10)) != 0 {
		t.Error("expected no batches for empty input")
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := NewVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Version:") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestEmbeddingModel(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
		want string
	}{
		{"dedicated embedding model wins", config.LLMConfig{
			EmbeddingModel: "text-embedding-3-small",
			Embedding:      config.EmbeddingProviderConfig{Model: "bge-small"},
		}, "bge-small"},
		{"provider embedding model", config.LLMConfig{EmbeddingModel: "nomic-embed-text"}, "nomic-embed-text"},
		{"unset", config.LLMConfig{}, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := embeddingModel(tt.cfg); got != tt.want {
				t.Errorf("embeddingModel() = %q, want %q", got, tt.want)
			}
		})
	}
}

type recordingEmbedder struct{ got string }

func (e *recordingEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.got = text
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

func TestWithInstruction(t *testing.T) {
	inner := &recordingEmbedder{}

	if withInstruction(inner, "") != domain.Embedder(inner) {
		t.Error("empty instruction should return the embedder unchanged")
	}

	if _, err := withInstruction(inner, "search_query: ").Embed(context.Background(), "disk full"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.got != "search_query: disk full" {
		t.Errorf("embedded %q", inner.got)
	}
}
