package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/questscribe"
	"github.com/aretw0/questscribe/internal/cli"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/spf13/cobra"
)

var entityCmd = &cobra.Command{
	Use:     "entity",
	Aliases: []string{"entities"},
	Short:   "Manage tracked entities",
}

var entityLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all entities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, false, func(ctx context.Context, ws *cli.Workspace) error {
			entities := ws.Engine.ListEntities(ctx)
			if len(entities) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entities found.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tFIELDS")
			for _, e := range entities {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Color, strings.Join(e.Fields, ", "))
			}
			return tw.Flush()
		})
	},
}

var entityAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		return withWorkspace(cmd, true, func(ctx context.Context, ws *cli.Workspace) error {
			ent, err := ws.Engine.CreateEntity(ctx, args[0], color)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created entity %q (%s)\n", ent.Name, ent.ID)
			return nil
		})
	},
}

var entityRmCmd = &cobra.Command{
	Use:   "rm <entity>...",
	Short: "Delete entities and every marker that references them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, true, func(ctx context.Context, ws *cli.Workspace) error {
			for _, ref := range args {
				ent, err := resolveEntity(ctx, ws.Engine, ref)
				if err != nil {
					return err
				}
				removed, err := ws.Engine.DeleteEntity(ctx, ent.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed entity %q and %d marker(s)\n", ent.Name, removed)
			}
			return nil
		})
	},
}

var entityDupCmd = &cobra.Command{
	Use:   "dup <entity> <new-name>",
	Short: "Duplicate an entity with its state at a position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, _ := cmd.Flags().GetInt("position")
		return withWorkspace(cmd, true, func(ctx context.Context, ws *cli.Workspace) error {
			src, err := resolveEntity(ctx, ws.Engine, args[0])
			if err != nil {
				return err
			}
			dup, marker, err := ws.Engine.DuplicateEntity(ctx, src.ID, args[1], pos)
			if err != nil {
				return err
			}
			if marker == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s) with no attributes\n", dup.Name, dup.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s) with %d attribute(s) at position %d\n",
				dup.Name, dup.ID, len(marker.Changes), marker.Position)
			return nil
		})
	},
}

// resolveEntity accepts an entity id or an exact, unique entity name.
func resolveEntity(ctx context.Context, eng *questscribe.Engine, ref string) (domain.Entity, error) {
	if ent, err := eng.GetEntity(ctx, ref); err == nil {
		return ent, nil
	}
	var match []domain.Entity
	for _, e := range eng.ListEntities(ctx) {
		if e.Name == ref {
			match = append(match, e)
		}
	}
	switch len(match) {
	case 0:
		return domain.Entity{}, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, ref)
	case 1:
		return match[0], nil
	}
	return domain.Entity{}, fmt.Errorf("%d entities are named %q, use an id", len(match), ref)
}

func init() {
	rootCmd.AddCommand(entityCmd)
	entityCmd.AddCommand(entityLsCmd, entityAddCmd, entityRmCmd, entityDupCmd)

	entityAddCmd.Flags().String("color", "", "Display color, e.g. #FFD700")
	entityDupCmd.Flags().IntP("position", "p", 0, "Position whose state is copied")
}
