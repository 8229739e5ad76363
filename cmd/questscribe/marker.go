package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/questscribe/internal/cli"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/spf13/cobra"
)

var markerCmd = &cobra.Command{
	Use:     "marker",
	Aliases: []string{"markers"},
	Short:   "Manage markers placed in the document",
}

var markerLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List markers in replay order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entityRef, _ := cmd.Flags().GetString("entity")
		return withWorkspace(cmd, false, func(ctx context.Context, ws *cli.Workspace) error {
			var markers []domain.Marker
			switch {
			case entityRef != "":
				ent, err := resolveEntity(ctx, ws.Engine, entityRef)
				if err != nil {
					return err
				}
				markers = ws.Engine.MarkersFor(ctx, ent.ID)
			case cmd.Flags().Changed("position"):
				pos, _ := cmd.Flags().GetInt("position")
				markers = ws.Engine.MarkersAt(ctx, pos)
			default:
				markers = ws.Engine.ListMarkers(ctx)
			}
			if len(markers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No markers found.")
				return nil
			}

			names := make(map[string]string)
			for _, e := range ws.Engine.ListEntities(ctx) {
				names[e.ID] = e.Name
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPOSITION\tENTITY\tCHANGES\tDESCRIPTION")
			for _, m := range markers {
				name, ok := names[m.EntityID]
				if !ok {
					name = m.EntityID + " (missing)"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", m.ID, m.Position, name, formatChanges(m.Changes), m.Description)
			}
			return tw.Flush()
		})
	},
}

var markerAddCmd = &cobra.Command{
	Use:   "add <entity> <position>",
	Short: "Insert a marker with attribute changes",
	Example: `  questscribe marker add Aria 120 --set stats.HP=10 --set weapon=Sword
  questscribe marker add Aria 480 --add stats.HP=-3 --remove weapon`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := parsePosition(args[1])
		if err != nil {
			return err
		}
		changes, err := changesFromFlags(cmd)
		if err != nil {
			return err
		}
		desc, _ := cmd.Flags().GetString("desc")
		icon, _ := cmd.Flags().GetString("icon")
		color, _ := cmd.Flags().GetString("color")

		return withWorkspace(cmd, true, func(ctx context.Context, ws *cli.Workspace) error {
			ent, err := resolveEntity(ctx, ws.Engine, args[0])
			if err != nil {
				return err
			}
			m, err := ws.Engine.InsertMarker(ctx, domain.MarkerInput{
				Position:    pos,
				EntityID:    ent.ID,
				Changes:     changes,
				Visual:      domain.MarkerVisual{Icon: icon, Color: color},
				Description: desc,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted marker %s for %q at position %d\n", m.ID, ent.Name, m.Position)
			return nil
		})
	},
}

var markerRmCmd = &cobra.Command{
	Use:   "rm <marker-id>...",
	Short: "Delete markers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, true, func(ctx context.Context, ws *cli.Workspace) error {
			for _, id := range args {
				if err := ws.Engine.DeleteMarker(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed marker %s\n", id)
			}
			return nil
		})
	},
}

var markerMvCmd = &cobra.Command{
	Use:   "mv <marker-id> <position>",
	Short: "Move a marker to another position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := parsePosition(args[1])
		if err != nil {
			return err
		}
		return withWorkspace(cmd, true, func(ctx context.Context, ws *cli.Workspace) error {
			if _, err := ws.Engine.GetMarker(ctx, args[0]); err != nil {
				return err
			}
			ws.Engine.RepositionMarkers(ctx, []domain.Reposition{{MarkerID: args[0], Position: pos}})
			fmt.Fprintf(cmd.OutOrStdout(), "Moved marker %s to position %d\n", args[0], pos)
			return nil
		})
	},
}

func parsePosition(raw string) (int, error) {
	pos, err := strconv.Atoi(raw)
	if err != nil || pos < 0 {
		return 0, fmt.Errorf("%w: position must be a non-negative integer, got %q", domain.ErrInvalidFormat, raw)
	}
	return pos, nil
}

// changesFromFlags builds change records in flag order: sets, then adds, then removals.
func changesFromFlags(cmd *cobra.Command) ([]domain.ChangeRecord, error) {
	var changes []domain.ChangeRecord
	sets, _ := cmd.Flags().GetStringArray("set")
	for _, kv := range sets {
		field, value, err := splitAssignment(kv)
		if err != nil {
			return nil, err
		}
		changes = append(changes, domain.Set(field, value))
	}
	adds, _ := cmd.Flags().GetStringArray("add")
	for _, kv := range adds {
		field, delta, err := splitAssignment(kv)
		if err != nil {
			return nil, err
		}
		changes = append(changes, domain.Add(field, delta))
	}
	removes, _ := cmd.Flags().GetStringArray("remove")
	for _, field := range removes {
		changes = append(changes, domain.Remove(field))
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("%w: at least one of --set, --add or --remove is required", domain.ErrInvalidFormat)
	}
	return changes, nil
}

func splitAssignment(kv string) (string, string, error) {
	field, value, ok := strings.Cut(kv, "=")
	if !ok || field == "" {
		return "", "", fmt.Errorf("%w: expected field=value, got %q", domain.ErrInvalidFormat, kv)
	}
	return field, value, nil
}

func formatChanges(changes []domain.ChangeRecord) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		switch c.ChangeType {
		case domain.ChangeSet:
			parts = append(parts, c.FieldName+"="+c.Value)
		case domain.ChangeAdd:
			delta := c.Value
			if !strings.HasPrefix(delta, "-") {
				delta = "+" + delta
			}
			parts = append(parts, c.FieldName+delta)
		case domain.ChangeRemove:
			parts = append(parts, "-"+c.FieldName)
		}
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(markerCmd)
	markerCmd.AddCommand(markerLsCmd, markerAddCmd, markerRmCmd, markerMvCmd)

	markerLsCmd.Flags().String("entity", "", "Only list markers of this entity (id or name)")
	markerLsCmd.Flags().IntP("position", "p", 0, "Only list markers at this position")

	markerAddCmd.Flags().StringArray("set", nil, "Absolute change field=value (repeatable)")
	markerAddCmd.Flags().StringArray("add", nil, "Relative change field=delta (repeatable)")
	markerAddCmd.Flags().StringArray("remove", nil, "Remove a field (repeatable)")
	markerAddCmd.Flags().String("desc", "", "Marker description")
	markerAddCmd.Flags().String("icon", "", "Marker icon")
	markerAddCmd.Flags().String("color", "", "Marker color")
}
