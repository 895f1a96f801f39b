package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewProjectCmd creates the 'project' command group.
func NewProjectCmd(env func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectCreateCmd(env))
	cmd.AddCommand(newProjectListCmd(env))
	cmd.AddCommand(newProjectKeywordsCmd(env))
	cmd.AddCommand(newProjectDeleteCmd(env))
	return cmd
}

func newProjectCreateCmd(env func() string) *cobra.Command {
	var (
		name     string
		keywords []string
		language string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a project and its index",
		Example: `  lognlook project create --name shop --keywords Database,Network,Auth --language en`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := Bootstrap(cmd.Context(), env())
			if err != nil {
				return err
			}
			defer app.Close()

			p, err := app.ProjectSvc.Create(cmd.Context(), name, keywords, language)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"id":         p.ID,
				"name":       p.Name,
				"index_name": p.IndexName,
				"api_key":    p.APIKey,
				"language":   p.Language,
				"keywords":   p.Keywords,
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "project name (required)")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "classification vocabulary, comma separated")
	cmd.Flags().StringVar(&language, "language", "en", "comment language: en or ko")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd(env func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := Bootstrap(cmd.Context(), env())
			if err != nil {
				return err
			}
			defer app.Close()

			list, err := app.ProjectSvc.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLANGUAGE\tKEYWORDS")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Language, len(p.Keywords))
			}
			return tw.Flush()
		},
	}
}

func newProjectKeywordsCmd(env func() string) *cobra.Command {
	var keywords []string

	cmd := &cobra.Command{
		Use:   "keywords <id>",
		Short: "Replace a project's classification vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := Bootstrap(cmd.Context(), env())
			if err != nil {
				return err
			}
			defer app.Close()

			p, err := app.ProjectSvc.UpdateKeywords(cmd.Context(), args[0], keywords)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "project %s: %d keywords\n", p.ID, len(p.Keywords))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&keywords, "set", nil, "new vocabulary, comma separated")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newProjectDeleteCmd(env func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := Bootstrap(cmd.Context(), env())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.ProjectSvc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "project %s deleted\n", args[0])
			return nil
		},
	}
}
