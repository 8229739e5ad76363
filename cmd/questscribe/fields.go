package main

import (
	"context"
	"fmt"

	"github.com/aretw0/questscribe/internal/cli"
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:     "fields",
	Aliases: []string{"field"},
	Short:   "Rewrite an entity's fields across its whole history",
}

var fieldsRmCmd = &cobra.Command{
	Use:   "rm <entity> <field>",
	Short: "Purge a field and every change record that targets it",
	Long:  "Purge a field from the entity registry and from every marker of the entity. This rewrites history.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, true, func(ctx context.Context, ws *cli.Workspace) error {
			ent, err := resolveEntity(ctx, ws.Engine, args[0])
			if err != nil {
				return err
			}
			touched, err := ws.Engine.DeleteFieldCompletely(ctx, ent.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %q from %q (%d marker(s) rewritten)\n", args[1], ent.Name, touched)
			return nil
		})
	},
}

var fieldsMvCmd = &cobra.Command{
	Use:   "mv <entity> <from> <to>",
	Short: "Rename a field in every change record of the entity",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, true, func(ctx context.Context, ws *cli.Workspace) error {
			ent, err := resolveEntity(ctx, ws.Engine, args[0])
			if err != nil {
				return err
			}
			touched, err := ws.Engine.RenameField(ctx, ent.ID, args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q on %q (%d marker(s) rewritten)\n", args[1], args[2], ent.Name, touched)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	fieldsCmd.AddCommand(fieldsRmCmd, fieldsMvCmd)
}
