package timeslot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Catalog bounds. Slots run every 30 minutes from FirstHour:00 through
// LastHour:00; there is no LastHour:30.
const (
	FirstHour = 8
	LastHour  = 20
	Step      = 30 * time.Minute
)

var ErrMalformed = errors.New("timeslot: malformed label")

// Slot is a time of day on the half-hour grid.
type Slot struct {
	Hour   int // 0..23
	Minute int // 0..59
}

// Label renders the slot in 12-hour form, e.g. "8:00 AM", "12:30 PM".
func (s Slot) Label() string {
	period := "AM"
	if s.Hour >= 12 {
		period = "PM"
	}
	h := s.Hour
	switch {
	case h == 0:
		h = 12
	case h > 12:
		h -= 12
	}
	return fmt.Sprintf("%d:%02d %s", h, s.Minute, period)
}

func (s Slot) String() string { return s.Label() }

// MarshalText encodes the slot as its label so JSON carries "2:30 PM".
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.Label()), nil
}

func (s *Slot) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// On returns the instant at which the slot falls on day's calendar date,
// in day's location.
func (s Slot) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, s.Hour, s.Minute, 0, 0, day.Location())
}

// Parse reads a 12-hour label such as "2:30 PM" or "07:00 pm".
// "12:00 AM" is midnight and "12:00 PM" is noon.
func Parse(label string) (Slot, error) {
	fields := strings.Fields(label)
	if len(fields) != 2 {
		return Slot{}, fmt.Errorf("%w: %q", ErrMalformed, label)
	}
	hm := strings.SplitN(fields[0], ":", 2)
	if len(hm) != 2 || len(hm[1]) != 2 {
		return Slot{}, fmt.Errorf("%w: %q", ErrMalformed, label)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil || hour < 1 || hour > 12 {
		return Slot{}, fmt.Errorf("%w: %q", ErrMalformed, label)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil || minute < 0 || minute > 59 {
		return Slot{}, fmt.Errorf("%w: %q", ErrMalformed, label)
	}

	switch strings.ToUpper(fields[1]) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return Slot{}, fmt.Errorf("%w: %q", ErrMalformed, label)
	}
	return Slot{Hour: hour, Minute: minute}, nil
}

// IsPast reports whether slot, placed on ref's calendar date, is strictly
// earlier than ref. The slot carries no date of its own; callers decide
// whether the day being looked at is ref's day.
func IsPast(s Slot, ref time.Time) bool {
	return s.On(ref).Before(ref)
}

// Period is a named group of consecutive catalog slots.
type Period struct {
	Name  string
	Label string
	Slots []Slot
}

// Catalog is the fixed, ordered set of selectable slots.
type Catalog struct {
	Periods []Period
	all     []Slot
	index   map[Slot]int
}

// BuildCatalog lays out 8:00 AM through 8:00 PM in half-hour steps,
// grouped into Morning (<12h), Afternoon (<18h) and Evening.
func BuildCatalog() Catalog {
	morning := Period{Name: "morning", Label: "Morning"}
	afternoon := Period{Name: "afternoon", Label: "Afternoon"}
	evening := Period{Name: "evening", Label: "Evening"}

	for hour := FirstHour; hour <= LastHour; hour++ {
		slots := []Slot{{Hour: hour, Minute: 0}}
		if hour < LastHour {
			slots = append(slots, Slot{Hour: hour, Minute: 30})
		}
		switch {
		case hour < 12:
			morning.Slots = append(morning.Slots, slots...)
		case hour < 18:
			afternoon.Slots = append(afternoon.Slots, slots...)
		default:
			evening.Slots = append(evening.Slots, slots...)
		}
	}

	c := Catalog{Periods: []Period{morning, afternoon, evening}}
	c.index = make(map[Slot]int)
	for _, p := range c.Periods {
		for _, s := range p.Slots {
			c.index[s] = len(c.all)
			c.all = append(c.all, s)
		}
	}
	return c
}

// All returns every slot in catalog order.
func (c Catalog) All() []Slot {
	out := make([]Slot, len(c.all))
	copy(out, c.all)
	return out
}

// Len is the number of slots in the catalog.
func (c Catalog) Len() int { return len(c.all) }

// Contains reports whether s is a catalog member.
func (c Catalog) Contains(s Slot) bool {
	_, ok := c.index[s]
	return ok
}

// Lookup parses label and returns the catalog slot it names.
func (c Catalog) Lookup(label string) (Slot, bool) {
	s, err := Parse(label)
	if err != nil || !c.Contains(s) {
		return Slot{}, false
	}
	return s, true
}
