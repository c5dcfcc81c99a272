package flow

import "sync"

// State is a per-Flow-Instance key-path addressable Value tree with linear
// undo/redo history (spec.md §4.1). It is privately owned by exactly one
// Flow Instance; composite nodes exchange state only via whole-tree
// copy-back at their boundaries, never by sharing a State across instances.
//
// Grounded on the teacher's store.MemStore: a mutex-guarded snapshot holder
// with deep-copy-on-read/write discipline, generalized here to a history
// list instead of a single current value.
type State struct {
	mu      sync.RWMutex
	history []Value
	index   int
}

// NewState builds a State whose initial snapshot is a deep copy of initial.
// A nil initial starts from an empty mapping.
func NewState(initial Value) *State {
	if initial == nil {
		initial = map[string]Value{}
	}
	return &State{history: []Value{DeepCopy(initial)}, index: 0}
}

// Get returns the Value at path (dot-separated; empty path means the
// root). Per spec.md §4.1, a missing segment or a nil leaf both yield "".
func (s *State) Get(path string) Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Get(s.history[s.index], path)
}

// Set replaces the subtree at path with a deep copy of val, truncates any
// redo history beyond the current point, and appends the result as a new
// snapshot.
func (s *State) Set(path string, val Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Set(s.history[s.index], path, val)
	s.history = append(s.history[:s.index+1], next)
	s.index = len(s.history) - 1
}

// GetState returns a deep copy of the current snapshot.
func (s *State) GetState() Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DeepCopy(s.history[s.index])
}

// SetState replaces the whole root with a deep copy of val (the
// composite-boundary "copy the entire child state over the parent"
// operation of Design Note §9; equivalent to Set("", val)).
func (s *State) SetState(val Value) {
	s.Set("", val)
}

// GetHistory returns a deep copy of every snapshot recorded so far.
func (s *State) GetHistory() []Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Value, len(s.history))
	for i, v := range s.history {
		out[i] = DeepCopy(v)
	}
	return out
}

// CurrentIndex returns the index of the current snapshot within history.
func (s *State) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// CanUndo reports whether Undo would move the history pointer.
func (s *State) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index > 0
}

// CanRedo reports whether Redo would move the history pointer.
func (s *State) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index < len(s.history)-1
}

// Undo moves one snapshot back in history, returning false if already at
// the earliest snapshot.
func (s *State) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == 0 {
		return false
	}
	s.index--
	return true
}

// Redo moves one snapshot forward in history, returning false if already
// at the latest snapshot.
func (s *State) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.history)-1 {
		return false
	}
	s.index++
	return true
}

// GoToState jumps directly to history index i, returning false if i is out
// of range. The history itself is left untouched; only the read/write
// pointer moves.
func (s *State) GoToState(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.history) {
		return false
	}
	s.index = i
	return true
}
