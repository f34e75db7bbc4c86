// Package render turns picker snapshots into popover HTML.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"dtpicker/internal/calendar"
	"dtpicker/internal/model"
	"dtpicker/internal/picker"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Renderer executes the embedded popover templates. It is safe for
// concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	t, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// Must is New for package-level initialization.
func Must() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Popover writes the popover markup for s.
func (r *Renderer) Popover(w io.Writer, s picker.Snapshot) error {
	if err := r.tmpl.ExecuteTemplate(w, "popover", popoverData(s)); err != nil {
		return fmt.Errorf("render: popover %q: %w", s.AnchorID, err)
	}
	return nil
}

// PopoverHTML is Popover into a string.
func (r *Renderer) PopoverHTML(s picker.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := r.Popover(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type popover struct {
	ID        string
	Anchor    string
	Mode      string
	Active    bool
	Vertical  string
	Left      string
	BodyClass string
	ShowClear bool
	ShowToday bool
	Calendar  *calendarSection
	Time      []timeSection
}

type option struct {
	Value    int
	Label    string
	Selected bool
}

type cell struct {
	Blank     bool
	Key       string
	Number    int
	Class     string
	TabIndex  int
	Disabled  bool
	AriaLabel string
}

type calendarSection struct {
	Weekdays [7]string
	Months   []option
	Years    []option
	Cells    []cell
}

type chip struct {
	Label    string
	Class    string
	TabIndex int
	Disabled bool
}

type timeSection struct {
	Name  string
	Label string
	Chips []chip
}

func popoverData(s picker.Snapshot) popover {
	mode := s.Options.Mode
	p := popover{
		ID:        s.ID,
		Anchor:    s.AnchorID,
		Mode:      mode.String(),
		Active:    s.Active,
		Vertical:  string(s.Placement.Vertical),
		Left:      leftOffset(s.Placement.LeftOffset),
		BodyClass: bodyClass(mode),
		ShowClear: s.Options.ShowShortcuts,
		ShowToday: s.Options.ShowShortcuts && mode.HasDate(),
	}
	if p.Vertical == "" {
		p.Vertical = "bottom"
	}
	if mode.HasDate() && s.Calendar != nil {
		p.Calendar = calendarData(*s.Calendar)
	}
	if mode.HasTime() && s.TimeGrid != nil {
		p.Time = timeData(*s.TimeGrid)
	}
	return p
}

func bodyClass(m model.Mode) string {
	switch m {
	case model.TimeOnly:
		return "time-only-mode"
	case model.DateOnly:
		return "date-only-mode"
	default:
		return "both-mode"
	}
}

func leftOffset(x float64) string {
	if x == 0 {
		return "0"
	}
	return strconv.FormatFloat(x, 'f', -1, 64) + "px"
}

func calendarData(v picker.CalendarView) *calendarSection {
	view := v.Month.View
	c := &calendarSection{
		Weekdays: calendar.Weekdays,
		Months:   make([]option, 0, len(calendar.MonthNames)),
		Years:    make([]option, 0, len(v.Years)),
		Cells:    make([]cell, 0, v.Month.LeadingBlanks+len(v.Month.Days)),
	}
	for i, name := range calendar.MonthNames {
		c.Months = append(c.Months, option{Value: i + 1, Label: name, Selected: i+1 == int(view.Month)})
	}
	for _, y := range v.Years {
		c.Years = append(c.Years, option{Value: y, Label: strconv.Itoa(y), Selected: y == view.Year})
	}
	for i := 0; i < v.Month.LeadingBlanks; i++ {
		c.Cells = append(c.Cells, cell{Blank: true})
	}
	for _, d := range v.Month.Days {
		classes := []string{"day-num"}
		if d.IsSelected {
			classes = append(classes, "selected")
		}
		if d.IsToday {
			classes = append(classes, "is-today")
		}
		if d.IsDisabled {
			classes = append(classes, "disabled")
		}
		c.Cells = append(c.Cells, cell{
			Key:       d.Key,
			Number:    d.Number,
			Class:     strings.Join(classes, " "),
			TabIndex:  tabIndex(d.IsDisabled),
			Disabled:  d.IsDisabled,
			AriaLabel: d.AriaLabel,
		})
	}
	return c
}

func timeData(g picker.TimeGrid) []timeSection {
	out := make([]timeSection, 0, len(g.Sections))
	for _, sec := range g.Sections {
		ts := timeSection{Name: sec.Name, Label: sec.Label, Chips: make([]chip, 0, len(sec.Chips))}
		for _, c := range sec.Chips {
			classes := []string{"time-chip"}
			if c.Selected {
				classes = append(classes, "selected")
			}
			if c.Disabled {
				classes = append(classes, "disabled")
			}
			ts.Chips = append(ts.Chips, chip{
				Label:    c.Label,
				Class:    strings.Join(classes, " "),
				TabIndex: tabIndex(c.Disabled),
				Disabled: c.Disabled,
			})
		}
		out = append(out, ts)
	}
	return out
}

func tabIndex(disabled bool) int {
	if disabled {
		return -1
	}
	return 0
}
