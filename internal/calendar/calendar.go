// Package calendar builds the yearly special-month calendar (imsakiyah)
// from the AlAdhan monthly endpoint.
package calendar

import (
	"context"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/pkg/aladhan"
)

// DefaultConcurrency bounds concurrent month requests.
const DefaultConcurrency = 4

// Columns lists the anchors carried by each Row, in column order.
var Columns = []model.AnchorName{model.Imsak, model.Fajr, model.Maghrib, model.Isha}

// Row is one day of the calendar.
type Row struct {
	Date    string                      `json:"date"` // YYYY-MM-DD
	Hijri   string                      `json:"hijri"`
	Timings map[model.AnchorName]string `json:"timings"`
}

// Builder fetches and filters calendar months.
type Builder struct {
	client      aladhan.Client
	month       int
	concurrency int
}

// New creates a Builder keeping days of the given hijri month.
func New(client aladhan.Client, hijriMonth int) *Builder {
	if hijriMonth <= 0 {
		hijriMonth = model.DefaultSpecialMonth
	}
	return &Builder{client: client, month: hijriMonth, concurrency: DefaultConcurrency}
}

// WithConcurrency overrides the month fan-out limit.
func (b *Builder) WithConcurrency(n int) *Builder {
	if n > 0 {
		b.concurrency = n
	}
	return b
}

// Build fetches all twelve gregorian months of year and returns the days
// falling in the hijri month, sorted by gregorian date. Any month failure
// fails the build.
func (b *Builder) Build(ctx context.Context, year int, params aladhan.Params) ([]Row, error) {
	months := make([][]Row, 12)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i := range months {
		month := i + 1
		g.Go(func() error {
			days, err := b.client.Calendar(gctx, aladhan.CalendarRequest{
				Params: params,
				Year:   year,
				Month:  month,
			})
			if err != nil {
				return eris.Wrapf(err, "calendar: month %d", month)
			}
			months[month-1] = b.filter(days)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []Row
	for _, m := range months {
		rows = append(rows, m...)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

	zap.L().Debug("calendar: built",
		zap.Int("year", year),
		zap.Int("hijri_month", b.month),
		zap.Int("days", len(rows)),
	)
	return rows, nil
}

func (b *Builder) filter(days []aladhan.Day) []Row {
	var out []Row
	for _, d := range days {
		if d.Date.Hijri.Month.Number != b.month {
			continue
		}
		date := d.ISODate()
		if date == "" {
			continue
		}
		row := Row{
			Date:    date,
			Hijri:   hijriLabel(d.Date.Hijri),
			Timings: make(map[model.AnchorName]string, len(Columns)),
		}
		for _, name := range Columns {
			if t, ok := model.ParseTimeOfDay(d.Timings[string(name)]); ok {
				row.Timings[name] = t.String()
			}
		}
		out = append(out, row)
	}
	return out
}

func hijriLabel(h aladhan.Hijri) string {
	if h.DayNumber() == 0 {
		return h.Date
	}
	return fmt.Sprintf("%d %s %d", h.DayNumber(), h.Month.En, h.YearNumber())
}

// Header returns the column titles shared by all exporters.
func Header() []string {
	h := []string{"Date", "Hijri"}
	for _, c := range Columns {
		h = append(h, string(c))
	}
	return h
}

// Record flattens a row in Header order.
func (r Row) Record() []string {
	rec := []string{r.Date, r.Hijri}
	for _, c := range Columns {
		rec = append(rec, r.Timings[c])
	}
	return rec
}
