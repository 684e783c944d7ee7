package flow

import (
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/ludo-technologies/bcflow/internal/expr"
)

// VariableSet is a set of local variables backed by a bitset over local IDs.
//
// Exact operations compare unified variables (representatives); the others
// compare slots, so two distinct variables in the same slot count as equal.
type VariableSet struct {
	locals *expr.Locals
	bits   *bitset.BitSet
}

// NewVariableSet creates an empty set over the locals table.
func NewVariableSet(locals *expr.Locals) *VariableSet {
	return &VariableSet{locals: locals, bits: bitset.New(uint(locals.Len()))}
}

// canonical returns the bits of the representatives of the members.
func (vs *VariableSet) canonical() *bitset.BitSet {
	out := bitset.New(vs.bits.Len())
	for i, ok := vs.bits.NextSet(0); ok; i, ok = vs.bits.NextSet(i + 1) {
		out.Set(vs.locals.Get(i).Rep().ID)
	}
	return out
}

func (vs *VariableSet) normalize() {
	vs.bits = vs.canonical()
}

// Locals returns the distinct member variables (representatives) by ID.
func (vs *VariableSet) Locals() []*expr.Local {
	c := vs.canonical()
	out := make([]*expr.Local, 0, c.Count())
	for i, ok := c.NextSet(0); ok; i, ok = c.NextSet(i + 1) {
		out = append(out, vs.locals.Get(i))
	}
	return out
}

// Len returns the number of distinct variables.
func (vs *VariableSet) Len() int {
	return int(vs.canonical().Count())
}

// IsEmpty reports whether the set has no member.
func (vs *VariableSet) IsEmpty() bool {
	return vs.bits.None()
}

// Clone returns an independent copy.
func (vs *VariableSet) Clone() *VariableSet {
	return &VariableSet{locals: vs.locals, bits: vs.bits.Clone()}
}

// AddLocal inserts a single variable.
func (vs *VariableSet) AddLocal(l *expr.Local) {
	vs.bits.Set(l.Rep().ID)
}

// RemoveLocal deletes a variable, comparing exactly.
func (vs *VariableSet) RemoveLocal(l *expr.Local) {
	vs.normalize()
	vs.bits.Clear(l.Rep().ID)
}

// Contains reports whether the variable of l is a member.
func (vs *VariableSet) Contains(l *expr.Local) bool {
	return vs.canonical().Test(l.Rep().ID)
}

// ContainsSlot reports whether some member uses slot.
func (vs *VariableSet) ContainsSlot(slot int) bool {
	return vs.FindSlot(slot) != nil
}

// FindSlot returns a member using slot, or nil.
func (vs *VariableSet) FindSlot(slot int) *expr.Local {
	for i, ok := vs.bits.NextSet(0); ok; i, ok = vs.bits.NextSet(i + 1) {
		if l := vs.locals.Get(i).Rep(); l.Slot == slot {
			return l
		}
	}
	return nil
}

func (vs *VariableSet) slots() map[int]bool {
	out := make(map[int]bool)
	for _, l := range vs.Locals() {
		out[l.Slot] = true
	}
	return out
}

// Merge combines every member with the members of other in the same slot and
// returns the set of members that were combined.
func (vs *VariableSet) Merge(other *VariableSet) *VariableSet {
	merged := NewVariableSet(vs.locals)
	mine := vs.Locals()
	theirs := other.Locals()
	for _, l1 := range mine {
		for _, l2 := range theirs {
			if l1.Slot == l2.Slot {
				l1.Combine(l2)
				merged.AddLocal(l1)
			}
		}
	}
	return merged
}

// Intersect returns the members of both sets that share a slot with a member of
// the other set.
func (vs *VariableSet) Intersect(other *VariableSet) *VariableSet {
	out := NewVariableSet(vs.locals)
	theirs := other.Locals()
	for _, l1 := range vs.Locals() {
		for _, l2 := range theirs {
			if l1.Slot == l2.Slot {
				out.AddLocal(l1)
				out.AddLocal(l2)
			}
		}
	}
	return out
}

// IntersectExact returns the variables present in both sets.
func (vs *VariableSet) IntersectExact(other *VariableSet) *VariableSet {
	return &VariableSet{locals: vs.locals, bits: vs.canonical().Intersection(other.canonical())}
}

// UnionExact adds every variable of other.
func (vs *VariableSet) UnionExact(other *VariableSet) {
	vs.normalize()
	vs.bits.InPlaceUnion(other.canonical())
}

// Add adds the members of other whose slot is not used by a member this set
// had before the call.
func (vs *VariableSet) Add(other *VariableSet) {
	have := vs.slots()
	for _, l := range other.Locals() {
		if !have[l.Slot] {
			vs.AddLocal(l)
		}
	}
}

// AddExact adds the variables of other that are not members yet.
func (vs *VariableSet) AddExact(other *VariableSet) {
	vs.UnionExact(other)
}

// MergeGenKill adds the members of gen whose slot is not killed.
func (vs *VariableSet) MergeGenKill(gen, kill *VariableSet) {
	killed := kill.slots()
	for _, l := range gen.Locals() {
		if !killed[l.Slot] {
			vs.AddLocal(l)
		}
	}
}

// Subtract removes the members sharing a slot with a member of other.
func (vs *VariableSet) Subtract(other *VariableSet) {
	drop := other.slots()
	vs.normalize()
	for _, l := range vs.Locals() {
		if drop[l.Slot] {
			vs.bits.Clear(l.ID)
		}
	}
}

// SubtractExact removes the variables of other.
func (vs *VariableSet) SubtractExact(other *VariableSet) {
	vs.normalize()
	vs.bits.InPlaceDifference(other.canonical())
}

// RemoveSlot removes every member using slot.
func (vs *VariableSet) RemoveSlot(slot int) {
	vs.normalize()
	for _, l := range vs.Locals() {
		if l.Slot == slot {
			vs.bits.Clear(l.ID)
		}
	}
}

func (vs *VariableSet) String() string {
	names := make([]string, 0)
	for _, l := range vs.Locals() {
		names = append(names, l.String())
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ", ") + "}"
}
