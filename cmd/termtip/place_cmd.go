package main

import (
	"encoding/json"

	"github.com/japaniel/termtip/pkg/tooltip"
	"github.com/spf13/cobra"
)

func newPlaceCmd(app *App) *cobra.Command {
	var (
		rect       tooltip.Rect
		viewport   tooltip.Size
		threshold  float64
		unmeasured bool
	)

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Print where a tooltip goes for a trigger rectangle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			trigger := &rect
			if unmeasured {
				trigger = nil
			}
			dec := tooltip.Placement(trigger, viewport, threshold)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dec)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&rect.Top, "top", 0, "trigger top edge in viewport coordinates")
	f.Float64Var(&rect.Left, "left", 0, "trigger left edge")
	f.Float64Var(&rect.Width, "width", 0, "trigger width")
	f.Float64Var(&rect.Height, "height", 0, "trigger height")
	f.Float64Var(&viewport.Width, "viewport-width", 0, "viewport width; 0 disables arrow clamping on the right")
	f.Float64Var(&viewport.Height, "viewport-height", 0, "viewport height")
	f.Float64Var(&threshold, "threshold", app.Config.Threshold, "room needed above the trigger")
	f.BoolVar(&unmeasured, "unmeasured", false, "treat the trigger as not yet measured")
	return cmd
}
