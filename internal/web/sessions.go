package web

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"dtpicker/internal/config"
	appLog "dtpicker/internal/log"
	"dtpicker/internal/picker"
	"dtpicker/internal/placement"
)

// input is the server-side mirror of an <input> on the page.
type input struct {
	id    string
	label string
	value string
}

func (i *input) ID() string        { return i.id }
func (i *input) SetValue(v string) { i.value = v }

// session is one browser page: its inputs, pickers and the last geometry
// the page reported for each of them. All fields are guarded by mu.
type session struct {
	id string

	mu       sync.Mutex
	registry *picker.Registry
	inputs   map[string]*input
	pickers  map[string]*picker.Picker
	order    []string
	geometry map[string]placement.Geometry
	lastSeen time.Time
}

func (s *session) Lookup(id string) (picker.Anchor, bool) {
	in, ok := s.inputs[id]
	if !ok {
		return nil, false
	}
	return in, true
}

// geometryFor is installed as the picker's geometry source. It runs while
// the caller holds s.mu.
func (s *session) geometryFor(anchor string) picker.GeometryFunc {
	return func() (placement.Geometry, bool) {
		g, ok := s.geometry[anchor]
		return g, ok
	}
}

func (s *session) destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, anchor := range s.order {
		s.pickers[anchor].Destroy()
	}
}

// sessionStore owns every live session and expires idle ones.
type sessionStore struct {
	mu    sync.RWMutex
	items map[string]*session
	ttl   time.Duration
	now   func() time.Time
}

func newSessionStore(ttl time.Duration, now func() time.Time) *sessionStore {
	return &sessionStore{
		items: make(map[string]*session),
		ttl:   ttl,
		now:   now,
	}
}

// create builds a session with one picker per configured anchor.
func (st *sessionStore) create(pickers []config.PickerConfig) *session {
	s := &session{
		id:       uuid.NewString(),
		registry: picker.NewRegistry(),
		inputs:   make(map[string]*input, len(pickers)),
		pickers:  make(map[string]*picker.Picker, len(pickers)),
		geometry: make(map[string]placement.Geometry),
		lastSeen: st.now(),
	}
	for _, pc := range pickers {
		s.inputs[pc.Anchor] = &input{id: pc.Anchor, label: pc.Label}
	}
	for _, pc := range pickers {
		p := picker.New(s, pc.Anchor, pc.Options(),
			picker.WithClock(st.now),
			picker.WithRegistry(s.registry),
			picker.WithGeometry(s.geometryFor(pc.Anchor)),
		)
		if p.Err() != nil {
			continue
		}
		s.pickers[pc.Anchor] = p
		s.order = append(s.order, pc.Anchor)
	}

	st.mu.Lock()
	st.items[s.id] = s
	st.mu.Unlock()

	appLog.Info("web: session created", "session", s.id, "pickers", len(s.order))
	return s
}

// get returns the session and marks it as used.
func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.RLock()
	s, ok := st.items[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	s.lastSeen = st.now()
	s.mu.Unlock()
	return s, true
}

func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	s, ok := st.items[id]
	delete(st.items, id)
	st.mu.Unlock()
	if !ok {
		return false
	}
	s.destroy()
	appLog.Info("web: session destroyed", "session", id)
	return true
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.items)
}

// sweep destroys sessions idle for longer than ttl and returns how many
// were removed.
func (st *sessionStore) sweep() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	var expired []*session
	for id, s := range st.items {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			expired = append(expired, s)
			delete(st.items, id)
		}
	}
	st.mu.Unlock()

	sort.Slice(expired, func(i, j int) bool { return expired[i].id < expired[j].id })
	for _, s := range expired {
		s.destroy()
	}
	if len(expired) > 0 {
		appLog.Info("web: idle sessions swept", "count", len(expired), "remaining", st.len())
	}
	return len(expired)
}

// startSweeper runs sweep on spec until ctx is done. An unparsable spec
// falls back to once a minute.
func (st *sessionStore) startSweeper(ctx context.Context, spec string) *cron.Cron {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { st.sweep() }); err != nil {
		appLog.Error("web: bad sweep schedule; falling back to @every 1m", err, "spec", spec)
		c = cron.New()
		_, _ = c.AddFunc("@every 1m", func() { st.sweep() })
	}
	c.Start()

	go func() {
		<-ctx.Done()
		done := c.Stop() // wait for a running sweep to finish
		<-done.Done()
	}()
	return c
}
