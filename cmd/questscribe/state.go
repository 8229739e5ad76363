package main

import (
	"context"
	"encoding/json"

	"github.com/aretw0/questscribe/internal/cli"
	"github.com/aretw0/questscribe/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state <entity> <position>",
	Short: "Show an entity's attributes as of a document position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := parsePosition(args[1])
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return withWorkspace(cmd, false, func(ctx context.Context, ws *cli.Workspace) error {
			ent, err := resolveEntity(ctx, ws.Engine, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				tree, err := ws.Engine.Reconstruct(ctx, ent.ID, pos)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tree)
			}
			sheet, err := ws.Engine.RenderSheet(ctx, ent.ID, pos)
			if err != nil {
				return err
			}
			return tui.WriteMarkdown(cmd.OutOrStdout(), sheet.Markdown())
		})
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().Bool("json", false, "Print the attribute tree as JSON")
}
