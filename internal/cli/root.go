/*
Package cli implements the lognlook command tree.

Every command except version loads the configuration selected by --env
(default: $ENV, then "local") and wires the same dependencies the HTTP
server uses.
*/
package cli

import (
	"github.com/spf13/cobra"

	"github.com/lognlook/lognlook/internal/config"
	"github.com/lognlook/lognlook/internal/version"
)

// NewRootCmd builds the lognlook root command with all subcommands.
func NewRootCmd() *cobra.Command {
	var env string

	root := &cobra.Command{
		Use:   "lognlook",
		Short: "Log management with LLM enrichment and hybrid retrieval",
		Long: `lognlook stores application logs per project, enriches every line with
an LLM-written comment and a category keyword, and retrieves them by
meaning, by keyword or by both at once (reciprocal rank fusion).`,
		Version:       version.Version + " (commit: " + version.Commit + ", built: " + version.Date + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "configuration environment (config/<env>.yaml)")

	envFn := func() string { return env }

	root.AddCommand(NewServeCmd(envFn))
	root.AddCommand(NewIndexCmd(envFn))
	root.AddCommand(NewIngestCmd(envFn))
	root.AddCommand(NewSearchCmd(envFn))
	root.AddCommand(NewProjectCmd(envFn))
	root.AddCommand(NewVersionCmd())
	return root
}
