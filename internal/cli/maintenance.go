package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"velo/internal/state"
)

func newMaintenanceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "maintenance",
		Aliases: []string{"maint"},
		Short:   "Maintenance counters, resets, torque specs and service logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			bike, ok := app.Store.ActiveBike()
			if !ok {
				cmd.Println("No bikes yet.")
				return nil
			}
			printMaintenance(cmd, bike)
			return nil
		},
	}
	cmd.AddCommand(
		newMaintResetCmd(app),
		newMaintLogCmd(app),
		newTorqueCmd(app),
	)
	return cmd
}

func parseComponent(s string) (state.MaintenanceComponent, error) {
	c := state.MaintenanceComponent(strings.ToLower(s))
	for _, known := range state.Components {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown component %q (one of: %v)", s, state.Components)
}

func newMaintResetCmd(app *App) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "reset <component>",
		Short: "Mark one component as serviced, zeroing its counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			component, err := parseComponent(args[0])
			if err != nil {
				return err
			}
			index := app.Store.ActiveBikeIndex()
			if err := app.Store.ResetMaintenance(index, component); err != nil {
				return err
			}
			return app.Store.AddMaintenanceLog(index, time.Now(), string(component), note)
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "service note")
	return cmd
}

func newMaintLogCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the active bike's service log",
		RunE: func(cmd *cobra.Command, args []string) error {
			bike, ok := app.Store.ActiveBike()
			if !ok {
				cmd.Println("No bikes yet.")
				return nil
			}
			if len(bike.MaintenanceLogs) == 0 {
				cmd.Println("No service entries.")
				return nil
			}
			for _, entry := range bike.MaintenanceLogs {
				line := fmt.Sprintf("%s  %s", entry.Date.Format("2006-01-02"), entry.Component)
				if entry.Note != "" {
					line += "  " + entry.Note
				}
				cmd.Println(line)
			}
			return nil
		},
	}
}

func newTorqueCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "torque",
		Short: "Torque specs for the active bike",
		RunE: func(cmd *cobra.Command, args []string) error {
			bike, ok := app.Store.ActiveBike()
			if !ok {
				cmd.Println("No bikes yet.")
				return nil
			}
			if len(bike.TorqueSettings) == 0 {
				cmd.Println("No torque specs.")
				return nil
			}
			for _, t := range bike.TorqueSettings {
				cmd.Printf("%-24s %.1f Nm\n", t.Component, t.Nm)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <component> <nm>",
		Short: "Add a torque spec",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nm, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return err
			}
			return app.Store.AddTorqueSetting(app.Store.ActiveBikeIndex(), args[0], nm)
		},
	}

	cmd.AddCommand(add)
	return cmd
}
