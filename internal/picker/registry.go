package picker

import "sync"

// Registry tracks live pickers and guarantees at most one of them is active
// at a time. Pickers join on construction and leave on Destroy.
type Registry struct {
	mu      sync.Mutex
	members map[string]*Picker
}

// DefaultRegistry is the process-wide registry used when a picker is built
// without WithRegistry.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{members: make(map[string]*Picker)}
}

func (r *Registry) add(p *Picker) {
	r.mu.Lock()
	r.members[p.id] = p
	r.mu.Unlock()
}

func (r *Registry) remove(p *Picker) {
	r.mu.Lock()
	delete(r.members, p.id)
	r.mu.Unlock()
}

// activate marks p active and deactivates every other member.
// Hidden intents of the deactivated pickers are emitted outside the lock.
func (r *Registry) activate(p *Picker) {
	r.mu.Lock()
	var hidden []*Picker
	for id, m := range r.members {
		if id == p.id {
			continue
		}
		if m.active.Swap(false) {
			hidden = append(hidden, m)
		}
	}
	p.active.Store(true)
	r.mu.Unlock()

	for _, m := range hidden {
		m.subs.emit(Hidden{})
	}
}

// Len is the number of live pickers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Active returns the picker whose popover is currently open, if any.
func (r *Registry) Active() (*Picker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.active.Load() {
			return m, true
		}
	}
	return nil, false
}
