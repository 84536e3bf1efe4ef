package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/pipeline"
	"github.com/sells-group/vakit-cli/internal/segment"
)

var (
	watchLoc    locationFlags
	watchNotify bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the current segment and raise Ramadan alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "watch")
		if err != nil {
			return err
		}
		defer env.Close()

		loc, err := watchLoc.resolve(ctx, env.Geocoder)
		if err != nil {
			return err
		}

		sess := env.newSession(newConsolePresenter(os.Stdout, cfg.Location()), watchNotify)
		return sess.Run(ctx, loc)
	},
}

// consolePresenter writes session updates as lines. Segment lines are only
// written when the current anchor changes or once a minute, and the Ramadan
// countdown follows each segment line.
type consolePresenter struct {
	mu       sync.Mutex
	w        io.Writer
	tz       *time.Location
	anchor   model.AnchorName
	lastLine time.Time
	printed  bool
	now      func() time.Time
}

func newConsolePresenter(w io.Writer, tz *time.Location) *consolePresenter {
	return &consolePresenter{w: w, tz: tz, now: time.Now}
}

func (c *consolePresenter) Render(set model.AnchorSet, status pipeline.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch status {
	case pipeline.StatusLoading:
		fmt.Fprintln(c.w, "loading prayer times...")
		return
	case pipeline.StatusFailed:
		fmt.Fprintln(c.w, "could not load prayer times, will retry")
		return
	}

	parts := make([]string, 0, len(model.AllAnchors))
	for _, a := range set.Ordered() {
		parts = append(parts, fmt.Sprintf("%s %s", a.Name, a.Time))
	}
	fmt.Fprintf(c.w, "%s %s [%s]: %s\n", set.Date, set.Label, status, strings.Join(parts, "  "))
	if set.IsSpecialPeriod {
		fmt.Fprintf(c.w, "ramadan: times shown in %s\n", c.tz)
	}
	c.anchor = ""
}

func (c *consolePresenter) RenderSegment(current, next *model.Segment, remaining time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.printed = false
	if current == nil {
		return
	}
	now := c.now()
	if current.Anchor == c.anchor && now.Sub(c.lastLine) < time.Minute {
		return
	}
	c.anchor = current.Anchor
	c.lastLine = now
	c.printed = true

	if next == nil {
		fmt.Fprintf(c.w, "now: %s\n", current.Anchor)
		return
	}
	fmt.Fprintf(c.w, "now: %s, %s in %s\n", current.Anchor, next.Anchor, formatRemaining(remaining))
}

func (c *consolePresenter) RenderCountdown(cds []segment.Countdown) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.printed {
		return
	}
	parts := make([]string, 0, len(cds))
	for _, cd := range cds {
		if cd.Passed {
			parts = append(parts, fmt.Sprintf("%s passed", cd.Anchor))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s in %d min", cd.Anchor, cd.Minutes))
	}
	if len(parts) > 0 {
		fmt.Fprintf(c.w, "ramadan: %s\n", strings.Join(parts, ", "))
	}
}

func (c *consolePresenter) Notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\a%s\n", msg)
}

func init() {
	watchLoc.register(watchCmd)
	watchCmd.Flags().BoolVar(&watchNotify, "notify", true, "raise alerts before Imsak and Maghrib during Ramadan")
	rootCmd.AddCommand(watchCmd)
}
