package picker

import (
	"time"

	"dtpicker/internal/timeslot"
)

// renderTimeGrid recomputes chip states and repairs the selected slot.
//
// Resolution, in order:
//   - nothing selected: take the next upcoming slot, else the first enabled one
//   - selected slot became disabled: same replacement, if any slot is enabled
//   - first open with an upcoming slot: jump to it, even over a valid choice
func (p *Picker) renderTimeGrid(now time.Time) {
	selectedDay := p.isSelectedDay(now)
	all := p.catalog.All()

	var first, next timeslot.Slot
	hasFirst, hasNext := false, false
	for _, s := range all {
		if !p.slotDisabled(s, now, selectedDay) {
			first, hasFirst = s, true
			break
		}
	}
	if p.isFirstOpen && selectedDay {
		for _, s := range all {
			if !p.slotDisabled(s, now, selectedDay) && !timeslot.IsPast(s, now) {
				next, hasNext = s, true
				break
			}
		}
	}

	pick, hasPick := first, hasFirst
	if hasNext {
		pick, hasPick = next, true
	}

	switch {
	case !p.hasTime:
		if hasPick {
			p.selectedTime, p.hasTime = pick, true
		}
	case p.slotDisabled(p.selectedTime, now, selectedDay):
		if hasPick {
			p.selectedTime = pick
		}
	case p.isFirstOpen && hasNext:
		p.selectedTime = next
	}

	grid := TimeGrid{Sections: make([]TimeSection, 0, len(p.catalog.Periods))}
	for _, period := range p.catalog.Periods {
		if len(period.Slots) == 0 {
			continue
		}
		sec := TimeSection{
			Name:  period.Name,
			Label: period.Label,
			Chips: make([]TimeChip, 0, len(period.Slots)),
		}
		for _, s := range period.Slots {
			disabled := p.slotDisabled(s, now, selectedDay)
			sec.Chips = append(sec.Chips, TimeChip{
				Slot:     s,
				Label:    s.Label(),
				Disabled: disabled,
				Selected: p.hasTime && s == p.selectedTime && !disabled,
			})
		}
		grid.Sections = append(grid.Sections, sec)
	}

	p.timeGrid = &grid
	p.emit(TimeGridRendered{Grid: grid})
}
