package picker

import (
	"sync"

	"dtpicker/internal/calendar"
	"dtpicker/internal/placement"
	"dtpicker/internal/timeslot"
)

// Intent is something a picker asks its rendering adapter to do.
// Adapters receive intents through Subscribe, in emission order.
type Intent interface {
	intent()
}

// CalendarRendered carries a freshly computed month grid.
type CalendarRendered struct{ View CalendarView }

// TimeGridRendered carries a freshly computed time grid.
type TimeGridRendered struct{ Grid TimeGrid }

// Positioned carries a new popover placement.
type Positioned struct{ Placement placement.Placement }

// Shown asks the adapter to make the popover visible.
type Shown struct{}

// Hidden asks the adapter to hide the popover.
type Hidden struct{}

// ValueChanged reports the text now written to the anchor.
type ValueChanged struct{ Value string }

// DateSelected is the completion notification raised by Apply.
type DateSelected struct{ Selection Selection }

// Detached asks the adapter to remove the popover for good.
type Detached struct{}

func (CalendarRendered) intent() {}
func (TimeGridRendered) intent() {}
func (Positioned) intent()       {}
func (Shown) intent()            {}
func (Hidden) intent()           {}
func (ValueChanged) intent()     {}
func (DateSelected) intent()     {}
func (Detached) intent()         {}

// CalendarView is the date half of the popover.
type CalendarView struct {
	Month calendar.Month
	// Years are the options of the year selector.
	Years []int
}

// TimeChip is one selectable slot in the time grid.
type TimeChip struct {
	Slot     timeslot.Slot
	Label    string
	Disabled bool
	Selected bool
}

// TimeSection is one period of the time grid.
type TimeSection struct {
	Name  string
	Label string
	Chips []TimeChip
}

// TimeGrid is the time half of the popover.
type TimeGrid struct {
	Sections []TimeSection
}

// Selected returns the chip currently marked selected, if any.
func (g TimeGrid) Selected() (TimeChip, bool) {
	for _, sec := range g.Sections {
		for _, c := range sec.Chips {
			if c.Selected {
				return c, true
			}
		}
	}
	return TimeChip{}, false
}

// Chip looks up the chip rendered for label.
func (g TimeGrid) Chip(label string) (TimeChip, bool) {
	for _, sec := range g.Sections {
		for _, c := range sec.Chips {
			if c.Label == label {
				return c, true
			}
		}
	}
	return TimeChip{}, false
}

// resources is the list of things a picker owns and must release on
// teardown: intent subscriptions and adapter-registered listeners.
type resources struct {
	mu       sync.Mutex
	releases []func()
}

func (r *resources) add(release func()) {
	r.mu.Lock()
	r.releases = append(r.releases, release)
	r.mu.Unlock()
}

// releaseAll runs every release in reverse registration order.
func (r *resources) releaseAll() {
	r.mu.Lock()
	rel := r.releases
	r.releases = nil
	r.mu.Unlock()
	for i := len(rel) - 1; i >= 0; i-- {
		rel[i]()
	}
}

func (r *resources) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.releases)
}

type subscriber struct {
	fn func(Intent)
}

// subscribers fans intents out to adapter callbacks.
type subscribers struct {
	mu   sync.Mutex
	list []*subscriber
}

func (s *subscribers) add(fn func(Intent)) func() {
	sub := &subscriber{fn: fn}
	s.mu.Lock()
	s.list = append(s.list, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, cur := range s.list {
				if cur == sub {
					s.list = append(s.list[:i], s.list[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *subscribers) emit(in Intent) {
	s.mu.Lock()
	list := make([]*subscriber, len(s.list))
	copy(list, s.list)
	s.mu.Unlock()
	for _, sub := range list {
		sub.fn(in)
	}
}

func (s *subscribers) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}
