package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewIndexCmd creates the 'index' command group managing raw document-store
// indexes. Projects create and drop their own index; these commands are for
// operators.
func NewIndexCmd(env func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Create or delete document-store indexes",
	}
	cmd.AddCommand(newIndexCreateCmd(env))
	cmd.AddCommand(newIndexDeleteCmd(env))
	return cmd
}

func newIndexCreateCmd(env func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an index with the default log mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := Bootstrap(cmd.Context(), env())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.LogStore.CreateDefaultIndex(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("create index: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "index %q created\n", args[0])
			return nil
		},
	}
}

func newIndexDeleteCmd(env func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an index and all of its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := Bootstrap(cmd.Context(), env())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.LogStore.DeleteIndex(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete index: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "index %q deleted\n", args[0])
			return nil
		},
	}
}
