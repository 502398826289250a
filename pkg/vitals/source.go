package vitals

import "sync"

// ManualSource is a Source fed explicitly by the embedding application (or
// a test): construct it with the entry types it supports, then push entries
// through Emit. Types it was not constructed with report as unavailable.
type ManualSource struct {
	mu        sync.Mutex
	supported map[EntryType]bool
	next      int
	observers map[EntryType]map[int]func(Entry)
}

// NewManualSource creates a source supporting the given entry types. With
// no arguments every entry type is supported.
func NewManualSource(types ...EntryType) *ManualSource {
	s := &ManualSource{
		supported: make(map[EntryType]bool),
		observers: make(map[EntryType]map[int]func(Entry)),
	}
	if len(types) == 0 {
		types = []EntryType{
			EntryLayoutShift, EntryPaint, EntryFirstInput,
			EntryLargestContentfulPaint, EntryNavigation,
		}
	}
	for _, t := range types {
		s.supported[t] = true
	}
	return s
}

func (s *ManualSource) Observe(typ EntryType, fn func(Entry)) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.supported[typ] {
		return nil, false
	}

	if s.observers[typ] == nil {
		s.observers[typ] = make(map[int]func(Entry))
	}
	id := s.next
	s.next++
	s.observers[typ][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers[typ], id)
	}, true
}

// Emit dispatches an entry to every observer of its type.
func (s *ManualSource) Emit(e Entry) {
	s.mu.Lock()
	fns := make([]func(Entry), 0, len(s.observers[e.Type]))
	for _, fn := range s.observers[e.Type] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
