package picker

import (
	"strings"
	"time"

	"dtpicker/internal/calendar"
	appLog "dtpicker/internal/log"
	"dtpicker/internal/placement"
	"dtpicker/internal/timeslot"
)

// Open shows the popover and deactivates every other picker in the
// registry. The sequence is fixed: initial placement, then (time modes) a
// time-grid render with the first-open policy armed, then a final placement
// since the grid changes the popover height.
func (p *Picker) Open() {
	if !p.usable() {
		return
	}
	p.registry.activate(p)
	p.emit(Shown{})
	p.reposition()

	if p.opts.Mode.HasTime() {
		p.isFirstOpen = true
		p.renderTimeGrid(p.now())
		p.reposition()
		p.isFirstOpen = false
	}
}

// Dismiss closes the popover the way a click outside of it does.
func (p *Picker) Dismiss() {
	if !p.usable() {
		return
	}
	p.close()
}

// Reposition recomputes placement after a resize or scroll. Closed pickers
// keep their last placement.
func (p *Picker) Reposition() {
	if !p.usable() || !p.IsActive() {
		return
	}
	p.reposition()
}

// SelectDay picks the day with the given YYYY-MM-DD key. Malformed keys,
// impossible dates and disabled days are ignored. In time modes the chosen
// slot is dropped so the grid auto-selects again for the new day.
func (p *Picker) SelectDay(key string) {
	if !p.usable() || !p.opts.Mode.HasDate() {
		return
	}
	now := p.now()
	day, err := calendar.ParseKey(key, now.Location())
	if err != nil {
		appLog.Debug("picker: ignoring day activation", "anchor", p.AnchorID(), "key", key, "reason", err.Error())
		return
	}
	if calendar.IsDisabled(day, now, p.opts.AllowPast) {
		appLog.Debug("picker: ignoring disabled day", "anchor", p.AnchorID(), "key", key)
		return
	}

	p.selectedDate = day
	p.renderCalendar(now)
	if p.opts.Mode.HasTime() {
		p.hasTime = false
		p.renderTimeGrid(now)
	}
}

// SelectTime picks the slot with the given label. Labels outside the
// catalog and slots disabled for the selected day are ignored.
func (p *Picker) SelectTime(label string) {
	if !p.usable() || !p.opts.Mode.HasTime() {
		return
	}
	s, ok := p.catalog.Lookup(label)
	if !ok {
		appLog.Debug("picker: ignoring unknown time", "anchor", p.AnchorID(), "time", label)
		return
	}
	now := p.now()
	if p.slotDisabled(s, now, p.isSelectedDay(now)) {
		appLog.Debug("picker: ignoring disabled time", "anchor", p.AnchorID(), "time", label)
		return
	}

	p.selectedTime, p.hasTime = s, true
	p.renderTimeGrid(now)
}

// Today jumps both the view and the selection to the current day.
func (p *Picker) Today() {
	if !p.usable() {
		return
	}
	now := p.now()
	p.view = calendar.ViewOf(now)
	p.selectedDate = calendar.Midnight(now)
	if p.opts.Mode.HasDate() {
		p.renderCalendar(now)
	}
	if p.opts.Mode.HasTime() {
		p.renderTimeGrid(now)
	}
}

// Clear empties the input and closes the popover. The in-memory selection
// is kept, so reopening shows the previous choice.
func (p *Picker) Clear() {
	if !p.usable() {
		return
	}
	p.setValue("")
	p.close()
}

// NavigateMonth moves the displayed month by delta. The selection is untouched.
func (p *Picker) NavigateMonth(delta int) {
	if !p.usable() || !p.opts.Mode.HasDate() || delta == 0 {
		return
	}
	p.view = p.view.Add(delta)
	p.renderCalendar(p.now())
}

// SetViewMonth jumps the displayed month within the current year.
func (p *Picker) SetViewMonth(m time.Month) {
	if !p.usable() || !p.opts.Mode.HasDate() {
		return
	}
	if m < time.January || m > time.December {
		appLog.Debug("picker: ignoring month selection", "anchor", p.AnchorID(), "month", int(m))
		return
	}
	p.view = p.view.WithMonth(m)
	p.renderCalendar(p.now())
}

// SetViewYear jumps the displayed year. Years outside the selector's range
// are ignored.
func (p *Picker) SetViewYear(y int) {
	if !p.usable() || !p.opts.Mode.HasDate() {
		return
	}
	now := p.now()
	years := calendar.YearRange(now, p.opts.AllowPast)
	if y < years[0] || y > years[len(years)-1] {
		appLog.Debug("picker: ignoring year selection", "anchor", p.AnchorID(), "year", y)
		return
	}
	p.view = p.view.WithYear(y)
	p.renderCalendar(now)
}

// Apply writes the formatted selection to the anchor, closes the popover
// and raises DateSelected. ok is false for inert or destroyed pickers.
func (p *Picker) Apply() (sel Selection, ok bool) {
	if !p.usable() {
		return Selection{}, false
	}
	sel = p.resolve()
	p.setValue(sel.Formatted)
	p.close()

	p.lastSelection = &sel
	p.emit(DateSelected{Selection: sel})
	appLog.Info("picker: selection applied", "anchor", p.AnchorID(), "formatted", sel.Formatted)
	return sel, true
}

// Formatted is the text Apply would write right now.
func (p *Picker) Formatted() string {
	if !p.usable() {
		return ""
	}
	return p.resolve().Formatted
}

func (p *Picker) resolve() Selection {
	var sel Selection
	parts := make([]string, 0, 2)
	if p.opts.Mode.HasDate() {
		d := p.selectedDate
		sel.Date = &d
		parts = append(parts, calendar.FormatDate(d))
	}
	if p.opts.Mode.HasTime() && p.hasTime {
		s := p.selectedTime
		sel.Time = &s
		parts = append(parts, s.Label())
	}
	sel.Formatted = strings.Join(parts, " ")
	return sel
}

func (p *Picker) setValue(v string) {
	p.anchor.SetValue(v)
	p.emit(ValueChanged{Value: v})
}

func (p *Picker) close() {
	if p.active.Swap(false) {
		p.emit(Hidden{})
	}
}

func (p *Picker) reposition() {
	if p.geometry == nil {
		return
	}
	g, ok := p.geometry()
	if !ok {
		return
	}
	p.placement = placement.Place(g)
	p.emit(Positioned{Placement: p.placement})
}

func (p *Picker) renderCalendar(now time.Time) {
	m := calendar.Layout(p.view, calendar.LayoutOptions{
		Today:     now,
		Selected:  p.selectedDate,
		AllowPast: p.opts.AllowPast,
	})
	v := CalendarView{
		Month: m,
		Years: calendar.YearRange(now, p.opts.AllowPast),
	}
	p.calendarView = &v
	p.emit(CalendarRendered{View: v})
}

// isSelectedDay reports whether past-time rules apply: the selected day is
// today, or there is no calendar at all.
func (p *Picker) isSelectedDay(now time.Time) bool {
	if !p.opts.Mode.HasDate() {
		return true
	}
	return calendar.SameDay(p.selectedDate, now)
}

func (p *Picker) slotDisabled(s timeslot.Slot, now time.Time, selectedDay bool) bool {
	return !p.opts.AllowPast && selectedDay && timeslot.IsPast(s, now)
}
