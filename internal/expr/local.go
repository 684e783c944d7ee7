package expr

import "fmt"

// Local is one occurrence of a local variable slot. Occurrences that turn out to
// belong to the same variable are unified with Combine; Rep returns the
// representative of the unified group.
type Local struct {
	ID   uint
	Slot int
	Name string
	Type string

	parent *Local
}

// Rep returns the representative local of l's group.
func (l *Local) Rep() *Local {
	root := l
	for root.parent != nil {
		root = root.parent
	}
	// path compression
	for l != root {
		next := l.parent
		l.parent = root
		l = next
	}
	return root
}

// Combine unifies l and o into one variable. The older local (lower ID) stays
// the representative and inherits a name or type the other one carries.
func (l *Local) Combine(o *Local) {
	a, b := l.Rep(), o.Rep()
	if a == b {
		return
	}
	if b.ID < a.ID {
		a, b = b, a
	}
	b.parent = a
	if a.Name == "" {
		a.Name = b.Name
	}
	if a.Type == "" {
		a.Type = b.Type
	}
}

// SameVariable reports whether l and o were unified.
func (l *Local) SameVariable(o *Local) bool {
	return l.Rep() == o.Rep()
}

// String returns the display name of the variable.
func (l *Local) String() string {
	r := l.Rep()
	if r.Name != "" {
		return r.Name
	}
	if r.Slot < 0 {
		return fmt.Sprintf("tmp_%d", r.ID)
	}
	return fmt.Sprintf("local_%d", r.Slot)
}

// Locals is the per-method table of local occurrences, indexed by ID.
type Locals struct {
	all []*Local
}

// NewLocals creates an empty table.
func NewLocals() *Locals {
	return &Locals{}
}

// New allocates a fresh local occurrence for slot.
func (t *Locals) New(slot int) *Local {
	l := &Local{ID: uint(len(t.all)), Slot: slot}
	t.all = append(t.all, l)
	return l
}

// Get returns the local with the given ID, or nil.
func (t *Locals) Get(id uint) *Local {
	if id >= uint(len(t.all)) {
		return nil
	}
	return t.all[id]
}

// Len returns the number of allocated locals.
func (t *Locals) Len() int {
	return len(t.all)
}

// Representatives returns one local per unified variable, ordered by ID.
func (t *Locals) Representatives() []*Local {
	var reps []*Local
	for _, l := range t.all {
		if l.Rep() == l {
			reps = append(reps, l)
		}
	}
	return reps
}
