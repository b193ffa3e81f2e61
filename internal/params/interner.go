package params

import "sync"

// Interner deduplicates recurring strings — parameter names like "Kd" show
// up constantly across a scene file (spec.md §9 "Owned and interned
// strings"). Directive names, enum values, and type names are compile-time
// constants and need no interning; this is only for the dynamic names that
// appear in `"<type> <name>"` parameter declarations.
type Interner struct {
	mu sync.Mutex
	m  map[string]string
}

// NewInterner creates an empty Interner.
func NewInterner() *Interner {
	return &Interner{m: make(map[string]string)}
}

// Intern returns the canonical string equal to s, storing s itself the
// first time it is seen.
func (in *Interner) Intern(s string) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if existing, ok := in.m[s]; ok {
		return existing
	}
	in.m[s] = s
	return s
}
