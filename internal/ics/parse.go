package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "dtpicker/internal/log"
)

// Event is the normalized representation of an exported VEVENT.
type Event struct {
	UID         string
	Summary     string
	Description string

	Start  time.Time
	End    time.Time
	AllDay bool
}

// ParseEvent reads the first VEVENT of an ICS payload produced by Export.
//
//   - Timed events rely on the library's DTSTART/DTEND helpers.
//   - All-day events are detected by VALUE=DATE or a value without 'T' and
//     are returned as midnight in loc.
func ParseEvent(body []byte, loc *time.Location) (Event, error) {
	if len(body) == 0 {
		return Event{}, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return Event{}, err
	}
	events := cal.Events()
	if len(events) == 0 {
		return Event{}, errors.New("ics: no VEVENT")
	}
	ve := events[0]

	var out Event
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStart)

	if out.AllDay {
		if out.Start, err = time.ParseInLocation("20060102", dtStart.Value, loc); err != nil {
			return out, err
		}
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
			if out.End, err = time.ParseInLocation("20060102", p.Value, loc); err != nil {
				return out, err
			}
		}
		return out, nil
	}

	if out.Start, err = ve.GetStartAt(); err != nil {
		return out, err
	}
	if out.End, err = ve.GetEndAt(); err != nil {
		return out, err
	}
	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}
