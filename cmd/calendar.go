package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vakit-cli/internal/calendar"
	"github.com/sells-group/vakit-cli/pkg/aladhan"
)

var (
	calendarLoc  locationFlags
	calendarYear int
	calendarXLSX string
	calendarCSV  string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print or export the Ramadan calendar for a year",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "calendar")
		if err != nil {
			return err
		}
		defer env.Close()

		loc, err := calendarLoc.resolve(ctx, env.Geocoder)
		if err != nil {
			return err
		}

		year := calendarYear
		if year == 0 {
			year = time.Now().In(cfg.Location()).Year()
		}

		params := calcParams(loc)
		rows, err := calendar.New(env.Aladhan, cfg.Special.HijriMonth).Build(ctx, year, aladhan.Params{
			Latitude:           loc.Latitude,
			Longitude:          loc.Longitude,
			Method:             params.Method,
			School:             params.School,
			LatitudeAdjustment: cfg.Aladhan.LatitudeAdjustment,
			Tune:               cfg.Aladhan.Tune,
		})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return eris.Errorf("no Ramadan days found in %d", year)
		}

		if calendarXLSX != "" {
			if err := calendar.SaveXLSX(calendarXLSX, rows); err != nil {
				return err
			}
			zap.L().Info("calendar written", zap.String("path", calendarXLSX), zap.Int("days", len(rows)))
		}
		if calendarCSV != "" {
			f, err := os.Create(calendarCSV)
			if err != nil {
				return eris.Wrapf(err, "create %s", calendarCSV)
			}
			defer f.Close() //nolint:errcheck
			if err := calendar.WriteCSV(f, rows); err != nil {
				return err
			}
			zap.L().Info("calendar written", zap.String("path", calendarCSV), zap.Int("days", len(rows)))
		}
		if calendarXLSX != "" || calendarCSV != "" {
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for i, h := range calendar.Header() {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, h)
		}
		fmt.Fprintln(tw)
		for _, r := range rows {
			for i, v := range r.Record() {
				if i > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, v)
			}
			fmt.Fprintln(tw)
		}
		return tw.Flush()
	},
}

func init() {
	calendarLoc.register(calendarCmd)
	calendarCmd.Flags().IntVar(&calendarYear, "year", 0, "gregorian year (default current)")
	calendarCmd.Flags().StringVar(&calendarXLSX, "xlsx", "", "write the calendar to an XLSX file")
	calendarCmd.Flags().StringVar(&calendarCSV, "csv", "", "write the calendar to a CSV file")
	rootCmd.AddCommand(calendarCmd)
}
