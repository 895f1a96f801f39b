package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lognlook/lognlook/internal/usecase/pipeline"
)

// maxLineBytes bounds a single log line read from input.
const maxLineBytes = 1 << 20

// NewIngestCmd creates the 'ingest' command feeding log lines through the
// enrichment pipeline.
func NewIngestCmd(env func() string) *cobra.Command {
	var (
		projectID string
		file      string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Enrich and store log lines for a project",
		Long: `Read log lines from a file or stdin, one per line, and run each through
classification, embedding and storage. Blank lines are skipped. Lines are
sent in batches; a failed line is reported and does not stop the rest.`,
		Example: `  tail -n 100 app.log | lognlook ingest --project 5f0c...
  lognlook ingest --project 5f0c... --file app.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(filepath.Clean(file))
				if err != nil {
					return fmt.Errorf("open %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}

			entries, err := readEntries(in)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no log lines to ingest")
				return nil
			}

			app, err := Bootstrap(cmd.Context(), env())
			if err != nil {
				return err
			}
			defer app.Close()

			p, err := app.ProjectSvc.Get(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			stored, failed := 0, 0
			for _, batch := range chunk(entries, pipeline.MaxBatchSize) {
				results, err := app.Pipeline.IngestBatch(cmd.Context(), p, batch.entries)
				if err != nil {
					return fmt.Errorf("ingest batch: %w", err)
				}
				for _, r := range results {
					if r.Err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %v\n", batch.offset+r.Index+1, r.Err)
						continue
					}
					stored++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stored %d, failed %d\n", stored, failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d lines failed", failed, len(entries))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectID, "project", "p", "", "project id (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read lines from file instead of stdin")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// readEntries reads non-blank lines from r.
func readEntries(r io.Reader) ([]pipeline.Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var out []pipeline.Entry
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, pipeline.Entry{Message: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return out, nil
}

type entryBatch struct {
	offset  int
	entries []pipeline.Entry
}

func chunk(entries []pipeline.Entry, size int) []entryBatch {
	var out []entryBatch
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		out = append(out, entryBatch{offset: start, entries: entries[start:end]})
	}
	return out
}
