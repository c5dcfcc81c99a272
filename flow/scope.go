package flow

import "strings"

// Capability is a scope entry: a capability record (spec.md §4.2/§6:
// "a capability is either an executable or a record {id, name,
// description?, implementation, …}"). ID/Name/Description/Meta are opaque
// metadata a host may attach — the core preserves them in `self` (see
// selfFor) but never interprets them. Impl is the executable itself.
type Capability struct {
	ID          string
	Name        string
	Description string
	Impl        InlineFunc
	Meta        Value
}

// Hosts populate a Scope with capabilities backed by LLM adapters
// (flow/model), tool adapters (flow/tool), or any other InlineFunc-shaped
// closure.

// Scope resolves CallableId strings and ParamCall keys to Capabilities.
// Entries are typically registered under compound "id:name" keys (e.g.
// "gmail:sendEmail"). Resolution order is direct match, then prefix match
// (a registered key starting with "q:"), then suffix match (a registered
// key ending with ":q"), per spec.md §4.2 — the first successful pass wins;
// within a pass, entries are scanned in the order they were registered.
type Scope struct {
	names []string
	caps  map[string]Capability
}

// NewScope builds an empty Scope. Use Register or RegisterCapability to
// populate it.
func NewScope() *Scope {
	return &Scope{caps: make(map[string]Capability)}
}

// Register binds name to the bare executable fn, with no description or
// metadata — the common case. The resulting capability record's ID and
// Name both default to name. Re-registering an existing name replaces its
// capability but keeps its original registration position.
func (s *Scope) Register(name string, fn InlineFunc) {
	s.RegisterCapability(name, Capability{ID: name, Name: name, Impl: fn})
}

// RegisterCapability binds name to cap, a full capability record (spec.md
// §6's "{id, name, description?, implementation, …}"). Use this when a
// host wants self to preserve a human-readable name, description, or
// opaque metadata for this capability. Re-registering an existing name
// replaces its capability but keeps its original registration position.
func (s *Scope) RegisterCapability(name string, cap Capability) {
	if _, exists := s.caps[name]; !exists {
		s.names = append(s.names, name)
	}
	s.caps[name] = cap
}

// Resolve looks up id, trying (in order) a direct match, a prefix match
// (a registered "id:name" key whose id segment is id), then a suffix match
// (a registered "id:name" key whose name segment is id). It reports the
// capability record and whether any entry matched.
func (s *Scope) Resolve(id string) (Capability, bool) {
	if c, ok := s.caps[id]; ok {
		return c, true
	}
	for _, name := range s.names {
		if strings.HasPrefix(name, id+":") {
			return s.caps[name], true
		}
	}
	for _, name := range s.names {
		if strings.HasSuffix(name, ":"+id) {
			return s.caps[name], true
		}
	}
	return Capability{}, false
}

// Resolves reports whether id resolves to a capability, without returning
// it. It satisfies the capabilityResolver interface ParseNode consults to
// disambiguate ParamCall from Branch.
func (s *Scope) Resolves(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Resolve(id)
	return ok
}
