package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newBikesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bikes",
		Short: "Manage the bike fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			bikes := app.Store.Bikes()
			if len(bikes) == 0 {
				cmd.Println("No bikes yet; run `velo sync`.")
				return nil
			}
			active := app.Store.ActiveBikeIndex()
			for i, b := range bikes {
				marker := " "
				if i == active {
					marker = "*"
				}
				ws := b.Wheelsets[b.ActiveWheelsetIndex]
				cmd.Printf("%s %d: %s  %.0f km  (wheels: %s, %.0f km)\n",
					marker, i, b.Name, b.TotalDistanceKm, ws.Name, ws.DistanceKm)
			}
			return nil
		},
	}

	cmd.AddCommand(newBikesActiveCmd(app), newWheelsCmd(app))
	return cmd
}

func newBikesActiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "active <index>",
		Short: "Set the active bike",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			app.Store.SetActiveBike(index)
			return nil
		},
	}
}

func newWheelsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wheels",
		Short: "Manage the active bike's wheelsets",
		RunE: func(cmd *cobra.Command, args []string) error {
			bike, ok := app.Store.ActiveBike()
			if !ok {
				cmd.Println("No bikes yet.")
				return nil
			}
			for i, ws := range bike.Wheelsets {
				marker := " "
				if i == bike.ActiveWheelsetIndex {
					marker = "*"
				}
				tubeless := ""
				if ws.Tubeless {
					tubeless = ", tubeless"
				}
				cmd.Printf("%s %d: %s  %.0fmm%s  %.0f km (%.0f km since lube)\n",
					marker, i, ws.Name, ws.TireWidthMm, tubeless, ws.DistanceKm, ws.SinceLastLubeKm)
			}
			return nil
		},
	}

	var tireWidth float64
	var tubeless bool
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a wheelset to the active bike",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Store.AddWheelset(app.Store.ActiveBikeIndex(), args[0], tireWidth, tubeless)
		},
	}
	add.Flags().Float64Var(&tireWidth, "width", 28, "tire width in mm")
	add.Flags().BoolVar(&tubeless, "tubeless", false, "tubeless setup")

	remove := &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove a wheelset from the active bike",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			return app.Store.RemoveWheelset(app.Store.ActiveBikeIndex(), index)
		},
	}

	active := &cobra.Command{
		Use:   "active <index>",
		Short: "Set the active wheelset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			return app.Store.SetActiveWheelset(app.Store.ActiveBikeIndex(), index)
		},
	}

	cmd.AddCommand(add, remove, active)
	return cmd
}
