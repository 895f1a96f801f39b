package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lognlook/lognlook/internal/domain/logdoc"
	"github.com/lognlook/lognlook/internal/domain/search/result"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
)

// NewSearchCmd creates the 'search' command.
func NewSearchCmd(env func() string) *cobra.Command {
	var (
		projectID string
		query     string
		keyword   string
		level     string
		k         int
		hybrid    bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search a project's logs",
		Long: `Search by meaning (--query), by meaning and keywords fused with RRF
(--query --hybrid), or list every log in a category (--keyword alone).`,
		Example: `  lognlook search -p 5f0c... -q "database connection refused"
  lognlook search -p 5f0c... -q "timeout" --hybrid
  lognlook search -p 5f0c... --keyword Database --level ERROR`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if query == "" && keyword == "" {
				return errors.New("either --query or --keyword is required")
			}
			if hybrid && query == "" {
				return errors.New("--hybrid requires --query")
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
			if k <= 0 {
				k = app.Config.Retrieval.DefaultK
				if hybrid {
					k = app.Config.Retrieval.HybridK
				}
			}

			var hits []result.Result
			switch {
			case hybrid:
				hits, err = app.Retrieval.HybridSearch(cmd.Context(), p.IndexName, query, k)
			case query != "":
				q := retrieval.Query{Text: query, K: k}
				if keyword != "" {
					q.Keyword = &keyword
				}
				if level != "" {
					q.LogLevel = &level
				}
				hits, err = app.Retrieval.Retrieve(cmd.Context(), p.IndexName, q)
			default:
				hits, err = app.LogStore.SearchByTerms(cmd.Context(), p.IndexName,
					logdoc.FieldKeyword, []string{keyword}, k)
			}
			if err != nil {
				return err
			}
			return printHits(cmd.OutOrStdout(), hits, asJSON)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&projectID, "project", "p", "", "project id (required)")
	f.StringVarP(&query, "query", "q", "", "natural-language query")
	f.StringVar(&keyword, "keyword", "", "restrict to a category keyword")
	f.StringVar(&level, "level", "", "restrict to a log level (semantic search only)")
	f.IntVarP(&k, "k", "k", 0, "number of results (default from config)")
	f.BoolVar(&hybrid, "hybrid", false, "fuse semantic and keyword rankings")
	f.BoolVar(&asJSON, "json", false, "print results as JSON lines")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func printHits(w io.Writer, hits []result.Result, asJSON bool) error {
	if len(hits) == 0 {
		fmt.Fprintln(w, "no results")
		return nil
	}
	enc := json.NewEncoder(w)
	for i := range hits {
		h := &hits[i]
		doc := h.Document()
		if asJSON {
			out := struct {
				ID       string           `json:"id"`
				Score    float64          `json:"score"`
				Document *logdoc.Document `json:"document,omitempty"`
			}{ID: h.ID(), Score: h.Score()}
			if doc != nil {
				d := doc.WithoutVector()
				out.Document = &d
			}
			if err := enc.Encode(out); err != nil {
				return err
			}
			continue
		}
		if doc == nil {
			fmt.Fprintf(w, "%.4f  %s\n", h.Score(), h.ID())
			continue
		}
		fmt.Fprintf(w, "%.4f  %s  [%s] %s: %s\n", h.Score(), h.ID(), doc.LogLevel, doc.Keyword, doc.Message)
	}
	return nil
}
