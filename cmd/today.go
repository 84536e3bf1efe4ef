package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/vakit-cli/internal/pipeline"
	"github.com/sells-group/vakit-cli/internal/segment"
)

var (
	todayLoc  locationFlags
	todayJSON bool
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Print today's reconciled prayer times and the current segment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "today")
		if err != nil {
			return err
		}
		defer env.Close()

		loc, err := todayLoc.resolve(ctx, env.Geocoder)
		if err != nil {
			return err
		}

		sess := env.newSession(nil, false)
		out, err := sess.Load(ctx, loc)
		if err != nil {
			return err
		}

		now := time.Now()
		res := sess.EvaluateSegment(now)

		if todayJSON {
			return json.NewEncoder(os.Stdout).Encode(struct {
				*pipeline.Outcome
				Segment segment.Result `json:"segment"`
			}{out, res})
		}
		printOutcome(os.Stdout, out, res, cfg.Location())
		return nil
	},
}

func printOutcome(w io.Writer, out *pipeline.Outcome, res segment.Result, tz *time.Location) {
	set := out.Set
	fmt.Fprintf(w, "%s  %s (%s)\n", set.Date, set.Label, out.Status)
	if set.Hijri != nil {
		fmt.Fprintf(w, "Hijri %d/%d/%d", set.Hijri.Day, set.Hijri.Month, set.Hijri.Year)
		if set.IsSpecialPeriod {
			fmt.Fprint(w, "  Ramadan")
		}
		fmt.Fprintln(w)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, a := range set.Ordered() {
		marker := ""
		if res.Current != nil && res.Current.Anchor == a.Name {
			marker = "<"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Name, a.Time, marker)
	}
	_ = tw.Flush()

	if res.Next != nil {
		fmt.Fprintf(w, "%s in %s\n", res.Next.Anchor, formatRemaining(res.Remaining))
	} else if res.Current != nil {
		fmt.Fprintf(w, "%s since %s\n", res.Current.Anchor, res.Current.Start.In(tz).Format("15:04"))
	}
}

// formatRemaining renders d as H:MM:SS.
func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

func init() {
	todayLoc.register(todayCmd)
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "print JSON")
	rootCmd.AddCommand(todayCmd)
}
