package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dtpicker/internal/calendar"
	"dtpicker/internal/timeslot"
)

func newLayoutCmd() *cobra.Command {
	var (
		year      int
		month     int
		allowPast bool
		today     string
		times     bool
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print a month grid (and optionally the time slots) the way the picker lays them out",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if today != "" {
				t, err := calendar.ParseKey(today, time.Local)
				if err != nil {
					return fmt.Errorf("--today: %w", err)
				}
				now = t
			}
			view := calendar.ViewOf(now)
			if year != 0 {
				view = view.WithYear(year)
			}
			if month != 0 {
				if month < 1 || month > 12 {
					return fmt.Errorf("--month must be 1..12")
				}
				view = view.WithMonth(time.Month(month))
			}

			m := calendar.Layout(view, calendar.LayoutOptions{Today: now, AllowPast: allowPast})
			out := cmd.OutOrStdout()
			printMonth(out, m)
			if times {
				fmt.Fprintln(out)
				printTimes(out, timeslot.BuildCatalog(), now, allowPast)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year to show (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "Month to show, 1..12 (default: current)")
	cmd.Flags().BoolVar(&allowPast, "allow-past", true, "Keep past days and slots selectable")
	cmd.Flags().StringVar(&today, "today", "", "Pretend today is YYYY-MM-DD")
	cmd.Flags().BoolVar(&times, "times", false, "Also print the time slots")
	return cmd
}

// printMonth writes a Sunday-first grid. Today is marked with '*', disabled
// days with '-'.
func printMonth(w io.Writer, m calendar.Month) {
	title := fmt.Sprintf("%s %d", m.View.Month, m.View.Year)
	const width = 7 * 4
	pad := (width - len(title)) / 2
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", pad), title)

	// Each cell is four columns: the number right-aligned in three, then
	// the mark.
	var head strings.Builder
	for _, wd := range calendar.Weekdays {
		fmt.Fprintf(&head, "%3s ", wd)
	}
	fmt.Fprintln(w, strings.TrimRight(head.String(), " "))

	for _, week := range m.Weeks() {
		var b strings.Builder
		for _, d := range week {
			if d == nil {
				b.WriteString("    ")
				continue
			}
			mark := " "
			switch {
			case d.IsToday:
				mark = "*"
			case d.IsDisabled:
				mark = "-"
			}
			fmt.Fprintf(&b, "%3d%s", d.Number, mark)
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

// printTimes lists the catalog by period. Slots already past on the given
// day are marked with '-' when past times are not allowed.
func printTimes(w io.Writer, c timeslot.Catalog, now time.Time, allowPast bool) {
	for _, p := range c.Periods {
		labels := make([]string, 0, len(p.Slots))
		for _, s := range p.Slots {
			l := s.Label()
			if !allowPast && timeslot.IsPast(s, now) {
				l += "-"
			}
			labels = append(labels, l)
		}
		fmt.Fprintf(w, "%-10s %s\n", p.Label+":", strings.Join(labels, ", "))
	}
}
