package calendar

import (
	"errors"
	"fmt"
	"time"
)

const (
	keyLayout  = "2006-01-02"
	dateLayout = "02/01/2006"
)

var ErrBadKey = errors.New("calendar: bad day key")

// Weekdays is the Sunday-first header row of a month grid.
var Weekdays = [7]string{"S", "M", "T", "W", "T", "F", "S"}

// MonthNames are the short names offered in the month selector.
var MonthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Key formats the stable per-day identifier, YYYY-MM-DD.
func Key(t time.Time) string { return t.Format(keyLayout) }

// ParseKey reads a YYYY-MM-DD key as midnight in loc. Dates that do not
// exist (2023-02-29, 2024-04-31) are rejected.
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(keyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadKey, key, err)
	}
	return t, nil
}

// FormatDate renders t as DD/MM/YYYY.
func FormatDate(t time.Time) string { return t.Format(dateLayout) }

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysIn returns the number of days in month of year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// View is the month currently shown in the grid.
type View struct {
	Year  int
	Month time.Month
}

// ViewOf returns the view containing t.
func ViewOf(t time.Time) View {
	return View{Year: t.Year(), Month: t.Month()}
}

// Add moves the view by delta months with year rollover.
func (v View) Add(delta int) View {
	t := time.Date(v.Year, v.Month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return ViewOf(t)
}

// WithMonth keeps the year and jumps to month. Out of range months roll over.
func (v View) WithMonth(m time.Month) View {
	return View{Year: v.Year, Month: time.January}.Add(int(m) - 1)
}

// WithYear keeps the month and jumps to year.
func (v View) WithYear(y int) View {
	return View{Year: y, Month: v.Month}
}

func (v View) String() string {
	return fmt.Sprintf("%04d-%02d", v.Year, int(v.Month))
}

// Day is one cell of the month grid.
type Day struct {
	Date   time.Time
	Key    string
	Number int
	// AriaLabel is the accessible name of the cell.
	AriaLabel string

	IsToday    bool
	IsSelected bool
	IsDisabled bool
}

// Month is the layout of one month.
type Month struct {
	View          View
	LeadingBlanks int // weekday of day 1, Sunday = 0
	DayCount      int
	Days          []Day
}

// LayoutOptions carries the context the per-day flags are derived from.
type LayoutOptions struct {
	Today     time.Time
	Selected  time.Time
	AllowPast bool
}

// Layout computes the grid for view. Days before Today's midnight are
// disabled unless AllowPast is set.
func Layout(view View, opts LayoutOptions) Month {
	loc := opts.Today.Location()
	today := Midnight(opts.Today)

	first := time.Date(view.Year, view.Month, 1, 0, 0, 0, 0, loc)
	count := DaysIn(view.Year, view.Month)

	m := Month{
		View:          view,
		LeadingBlanks: int(first.Weekday()),
		DayCount:      count,
		Days:          make([]Day, 0, count),
	}
	for i := 1; i <= count; i++ {
		cur := time.Date(view.Year, view.Month, i, 0, 0, 0, 0, loc)
		m.Days = append(m.Days, Day{
			Date:       cur,
			Key:        Key(cur),
			Number:     i,
			AriaLabel:  "Select " + FormatDate(cur),
			IsToday:    SameDay(cur, today),
			IsSelected: !opts.Selected.IsZero() && SameDay(cur, opts.Selected),
			IsDisabled: !opts.AllowPast && cur.Before(today),
		})
	}
	return m
}

// IsDisabled applies the same rule Layout uses to a single date.
func IsDisabled(day, today time.Time, allowPast bool) bool {
	return !allowPast && Midnight(day).Before(Midnight(today))
}

// Weeks splits the month into rows of seven cells. Blank cells are nil.
func (m Month) Weeks() [][]*Day {
	cells := make([]*Day, m.LeadingBlanks, m.LeadingBlanks+len(m.Days)+6)
	for i := range m.Days {
		cells = append(cells, &m.Days[i])
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}
	weeks := make([][]*Day, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// YearRange returns the years offered in the year selector: eighty years
// back (only when past dates are allowed) through twenty years ahead.
func YearRange(today time.Time, allowPast bool) []int {
	cur := today.Year()
	start := cur
	if allowPast {
		start = cur - 80
	}
	end := cur + 20
	years := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		years = append(years, y)
	}
	return years
}
