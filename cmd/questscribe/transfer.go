package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/questscribe/internal/cli"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <out>",
	Short: "Export the document, its snapshot or the entity sheets",
	Long: `The format follows the extension of <out>:
  .txt .md .rtf .docx   document text
  .json .yaml           full snapshot (text, entities and markers)
  .xlsx                 one sheet per entity with its state at --position`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := args[0]
		pos, _ := cmd.Flags().GetInt("position")
		return withWorkspace(cmd, false, func(ctx context.Context, ws *cli.Workspace) error {
			var err error
			switch ext(out) {
			case ".xlsx":
				err = ws.Engine.ExportSheets(ctx, out, pos)
			case ".json", ".yaml", ".yml":
				err = ws.Engine.SaveFile(out)
			default:
				err = ws.Engine.Export(out)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s\n", ws.Doc, out)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <in>",
	Short: "Import document text or a full snapshot",
	Long: `The format follows the extension of <in>:
  .txt .md .rtf         replaces the document text, markers keep their positions
  .json .yaml           replaces the whole document`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		return withWorkspace(cmd, true, func(ctx context.Context, ws *cli.Workspace) error {
			var err error
			switch ext(in) {
			case ".json", ".yaml", ".yml":
				err = ws.Engine.LoadFile(ctx, in)
			default:
				err = ws.Engine.Import(in)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s into %q\n", in, ws.Doc)
			return nil
		})
	},
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().IntP("position", "p", 0, "Position of the sheets in an .xlsx export")
}
