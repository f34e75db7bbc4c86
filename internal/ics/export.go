package ics

import (
	"errors"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "dtpicker/internal/log"
	"dtpicker/internal/picker"
)

// ErrNoDate is returned for selections without a calendar day (time-only
// pickers); an event needs a date.
var ErrNoDate = errors.New("ics: selection has no date")

const productID = "-//dtpicker//selection export//EN"

// DefaultDuration is the length of a timed event: one slot step.
const DefaultDuration = 30 * time.Minute

// EventInfo is the descriptive part of an exported selection.
type EventInfo struct {
	UID         string
	Summary     string
	Description string
	// Stamp is DTSTAMP; zero means time.Now.
	Stamp time.Time
	// Duration of timed events; zero means DefaultDuration.
	Duration time.Duration
}

// Export serializes sel as a single-event VCALENDAR.
//
//   - date only (or no slot chosen): all-day event, DTSTART;VALUE=DATE
//   - date and slot: timed event starting at the slot, in UTC
func Export(sel picker.Selection, info EventInfo) (string, error) {
	if sel.Date == nil {
		return "", ErrNoDate
	}
	if info.UID == "" {
		return "", errors.New("ics: empty UID")
	}
	stamp := info.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	summary := info.Summary
	if summary == "" {
		summary = sel.Formatted
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)

	ev := cal.AddEvent(info.UID)
	ev.SetDtStampTime(stamp)
	ev.SetSummary(summary)
	if info.Description != "" {
		ev.SetDescription(info.Description)
	}

	day := *sel.Date
	if sel.Time == nil {
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
	} else {
		d := info.Duration
		if d <= 0 {
			d = DefaultDuration
		}
		start := sel.Time.On(day)
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(d))
	}

	out := cal.Serialize()
	appLog.Debug("ics export completed", "uid", info.UID, "all_day", sel.Time == nil)
	return out, nil
}
