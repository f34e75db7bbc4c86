package picker

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"dtpicker/internal/calendar"
	appLog "dtpicker/internal/log"
	"dtpicker/internal/model"
	"dtpicker/internal/placement"
	"dtpicker/internal/timeslot"
)

var ErrAnchorNotFound = errors.New("picker: anchor not found")

// Anchor is the input element a picker is bound to.
type Anchor interface {
	ID() string
	// SetValue replaces the text shown in the input.
	SetValue(v string)
}

// Resolver finds anchors by id, the way a page finds elements.
type Resolver interface {
	Lookup(id string) (Anchor, bool)
}

// GeometryFunc reports the current anchor/popover/viewport geometry.
// ok is false while the adapter cannot measure (popover not laid out yet).
type GeometryFunc func() (g placement.Geometry, ok bool)

type Option func(*Picker)

// WithClock replaces time.Now. The clock's location is the picker's "local" zone.
func WithClock(now func() time.Time) Option {
	return func(p *Picker) {
		if now != nil {
			p.now = now
		}
	}
}

// WithGeometry installs the geometry source used for placement.
func WithGeometry(fn GeometryFunc) Option {
	return func(p *Picker) { p.geometry = fn }
}

// WithRegistry scopes the picker to r instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(p *Picker) {
		if r != nil {
			p.registry = r
		}
	}
}

// Selection is the result of Apply. Date is nil when the mode has no
// calendar, Time is nil when the mode has no time grid or no slot is chosen.
type Selection struct {
	Date      *time.Time     `json:"date"`
	Time      *timeslot.Slot `json:"time"`
	Formatted string         `json:"formatted"`
}

// Picker is the selection state machine of one widget instance.
//
// A Picker is not safe for concurrent use; adapters serialize calls.
// Construction never fails loudly: if the anchor cannot be resolved the
// picker is inert, Err reports why, and every operation is a no-op.
type Picker struct {
	id       string
	anchor   Anchor
	opts     model.Options
	catalog  timeslot.Catalog
	now      func() time.Time
	geometry GeometryFunc
	registry *Registry
	err      error

	view         calendar.View
	selectedDate time.Time
	selectedTime timeslot.Slot
	hasTime      bool
	isFirstOpen  bool
	active       atomic.Bool
	destroyed    bool

	calendarView  *CalendarView
	timeGrid      *TimeGrid
	placement     placement.Placement
	lastSelection *Selection

	subs      subscribers
	resources resources
}

// New binds a picker to the anchor named anchorID in doc.
func New(doc Resolver, anchorID string, opts model.Options, options ...Option) *Picker {
	p := &Picker{
		id:        uuid.NewString(),
		opts:      opts,
		now:       time.Now,
		registry:  DefaultRegistry,
		placement: placement.Default(),
	}
	for _, o := range options {
		o(p)
	}

	var anchor Anchor
	ok := false
	if doc != nil {
		anchor, ok = doc.Lookup(anchorID)
	}
	if !ok || anchor == nil {
		p.err = fmt.Errorf("%w: %q", ErrAnchorNotFound, anchorID)
		appLog.Error("picker: element not found, skipping initialization", p.err, "anchor", anchorID)
		return p
	}
	p.anchor = anchor
	p.catalog = timeslot.BuildCatalog()

	now := p.now()
	p.view = calendar.ViewOf(now)
	p.selectedDate = calendar.Midnight(now)
	p.isFirstOpen = true

	if opts.DefaultTime != "" {
		if s, ok := p.catalog.Lookup(opts.DefaultTime); ok {
			p.selectedTime, p.hasTime = s, true
		} else {
			appLog.Info("picker: default time is not a catalog slot, ignoring",
				"anchor", anchorID, "default_time", opts.DefaultTime)
		}
	}

	p.registry.add(p)

	if opts.Mode.HasDate() {
		p.renderCalendar(now)
	}
	if opts.Mode.HasTime() {
		p.renderTimeGrid(now)
	}

	appLog.Debug("picker initialized",
		"id", p.id,
		"anchor", anchorID,
		"mode", opts.Mode.String(),
		"allow_past", opts.AllowPast,
	)
	return p
}

// Err reports why the picker is inert, or nil.
func (p *Picker) Err() error { return p.err }

// ID is the instance id used by the registry.
func (p *Picker) ID() string { return p.id }

// AnchorID is the id of the bound input, empty for an inert picker.
func (p *Picker) AnchorID() string {
	if p.anchor == nil {
		return ""
	}
	return p.anchor.ID()
}

func (p *Picker) Options() model.Options { return p.opts }

func (p *Picker) Mode() model.Mode { return p.opts.Mode }

// IsActive reports whether the popover is open.
func (p *Picker) IsActive() bool { return p.active.Load() }

// Destroyed reports whether Destroy has run.
func (p *Picker) Destroyed() bool { return p.destroyed }

func (p *Picker) View() calendar.View { return p.view }

func (p *Picker) SelectedDate() time.Time { return p.selectedDate }

func (p *Picker) SelectedTime() (timeslot.Slot, bool) { return p.selectedTime, p.hasTime }

// Catalog returns the picker's slot catalog.
func (p *Picker) Catalog() timeslot.Catalog { return p.catalog }

// LastSelection returns the result of the latest Apply.
func (p *Picker) LastSelection() (Selection, bool) {
	if p.lastSelection == nil {
		return Selection{}, false
	}
	return *p.lastSelection, true
}

// Subscribe registers fn for every intent the picker emits. The returned
// func unsubscribes; Destroy unsubscribes everything. Subscribing to an
// inert or destroyed picker is a no-op.
//
// fn may be called from another picker's goroutine when that picker opens
// and deactivates this one (Hidden).
func (p *Picker) Subscribe(fn func(Intent)) func() {
	if !p.usable() || fn == nil {
		return func() {}
	}
	release := p.subs.add(fn)
	p.resources.add(release)
	return release
}

// Own hands a release func to the picker; it runs on Destroy. Adapters use
// it for listeners whose lifetime is the widget's (resize, outside click).
func (p *Picker) Own(release func()) {
	if release == nil {
		return
	}
	if !p.usable() {
		release()
		return
	}
	p.resources.add(release)
}

// Destroy releases every subscription and owned resource, leaves the
// registry and detaches the popover. Later calls are no-ops.
func (p *Picker) Destroy() {
	if !p.usable() {
		return
	}
	p.destroyed = true
	p.active.Store(false)
	p.registry.remove(p)
	p.subs.emit(Detached{})
	p.resources.releaseAll()
	appLog.Debug("picker destroyed", "id", p.id, "anchor", p.anchor.ID())
}

// Snapshot is the latest rendered state, for declarative adapters.
type Snapshot struct {
	ID           string
	AnchorID     string
	Options      model.Options
	Active       bool
	View         calendar.View
	SelectedDate time.Time
	SelectedTime *timeslot.Slot
	Calendar     *CalendarView
	TimeGrid     *TimeGrid
	Placement    placement.Placement
}

func (p *Picker) Snapshot() Snapshot {
	s := Snapshot{
		ID:           p.id,
		AnchorID:     p.AnchorID(),
		Options:      p.opts,
		Active:       p.IsActive(),
		View:         p.view,
		SelectedDate: p.selectedDate,
		Calendar:     p.calendarView,
		TimeGrid:     p.timeGrid,
		Placement:    p.placement,
	}
	if p.hasTime {
		t := p.selectedTime
		s.SelectedTime = &t
	}
	return s
}

func (p *Picker) usable() bool {
	return p.err == nil && !p.destroyed
}

func (p *Picker) emit(in Intent) {
	p.subs.emit(in)
}
