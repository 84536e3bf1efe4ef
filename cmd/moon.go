package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/vakit-cli/pkg/moon"
)

var moonLoc locationFlags

// moonReport is the combined reading printed by moon and served by the API.
type moonReport struct {
	Info  *moon.Info      `json:"info"`
	Phase moon.Phase      `json:"phase"`
	Hilal moon.Visibility `json:"hilal"`
}

func lookupMoon(ctx context.Context, c moon.Client, lat, lon float64) (*moonReport, error) {
	info, err := c.Lookup(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return &moonReport{
		Info:  info,
		Phase: moon.Describe(info.PhaseCode),
		Hilal: moon.HilalVisibility(info),
	}, nil
}

var moonCmd = &cobra.Command{
	Use:   "moon",
	Short: "Show the moon phase and hilal visibility",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "moon")
		if err != nil {
			return err
		}
		defer env.Close()

		loc, err := moonLoc.resolve(ctx, env.Geocoder)
		if err != nil {
			return err
		}

		rep, err := lookupMoon(ctx, env.Moon, loc.Latitude, loc.Longitude)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

func init() {
	moonLoc.register(moonCmd)
	rootCmd.AddCommand(moonCmd)
}
