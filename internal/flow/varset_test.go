package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ludo-technologies/bcflow/internal/expr"
)

func TestVariableSetExactOperations(t *testing.T) {
	locals := expr.NewLocals()
	a := locals.New(1)
	b := locals.New(1)
	c := locals.New(2)

	s := NewVariableSet(locals)
	assert.True(t, s.IsEmpty())
	s.AddLocal(a)
	s.AddLocal(c)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(a))
	assert.False(t, s.Contains(b), "same slot, different variable")

	b.Combine(a)
	assert.True(t, s.Contains(b), "combined locals are one variable")

	other := NewVariableSet(locals)
	other.AddLocal(b)
	inter := s.IntersectExact(other)
	assert.Equal(t, 1, inter.Len())
	assert.True(t, inter.Contains(a))

	s.SubtractExact(other)
	assert.False(t, s.Contains(a))
	assert.True(t, s.Contains(c))
}

func TestVariableSetSlotOperations(t *testing.T) {
	locals := expr.NewLocals()
	x1 := locals.New(1)
	x2 := locals.New(1)
	y := locals.New(2)

	s := NewVariableSet(locals)
	s.AddLocal(x1)
	s.AddLocal(y)

	assert.True(t, s.ContainsSlot(1))
	assert.False(t, s.ContainsSlot(3))
	assert.Equal(t, x1, s.FindSlot(1))
	assert.Nil(t, s.FindSlot(7))

	other := NewVariableSet(locals)
	other.AddLocal(x2)

	merged := s.Merge(other)
	assert.True(t, x1.SameVariable(x2))
	assert.True(t, merged.Contains(x2))
	assert.Equal(t, 1, merged.Len())

	s.Subtract(other)
	assert.False(t, s.ContainsSlot(1))
	assert.True(t, s.ContainsSlot(2))
}

func TestVariableSetAddSkipsKnownSlots(t *testing.T) {
	locals := expr.NewLocals()
	x1 := locals.New(1)
	x2 := locals.New(1)
	y := locals.New(2)

	s := NewVariableSet(locals)
	s.AddLocal(x1)
	other := NewVariableSet(locals)
	other.AddLocal(x2)
	other.AddLocal(y)

	s.Add(other)
	assert.False(t, s.Contains(x2))
	assert.True(t, s.Contains(y))
}

func TestVariableSetMergeGenKill(t *testing.T) {
	locals := expr.NewLocals()
	a := locals.New(1)
	b := locals.New(2)
	k := locals.New(2)

	gen := NewVariableSet(locals)
	gen.AddLocal(a)
	gen.AddLocal(b)
	kill := NewVariableSet(locals)
	kill.AddLocal(k)

	s := NewVariableSet(locals)
	s.MergeGenKill(gen, kill)
	assert.True(t, s.Contains(a))
	assert.False(t, s.ContainsSlot(2))
}

func TestVariableSetCloneIsIndependent(t *testing.T) {
	locals := expr.NewLocals()
	a := locals.New(1)
	b := locals.New(2)

	s := NewVariableSet(locals)
	s.AddLocal(a)
	c := s.Clone()
	c.AddLocal(b)
	c.RemoveSlot(1)

	assert.True(t, s.Contains(a))
	assert.False(t, s.Contains(b))
	assert.Equal(t, "{local_2}", c.String())
}
