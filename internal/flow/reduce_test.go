package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtMethod(t *testing.T, src string) *method {
	t.Helper()
	m := newMethod(parseMethod(t, src), checkedOptions())
	require.NoError(t, m.build())
	return m
}

func TestOptimizeIsIdempotent(t *testing.T) {
	m := builtMethod(t, ifThenMethod)
	f0, f2, f4 := m.flows[0], m.flows[2], m.flows[4]

	ok, err := f0.doT1(f2)
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, f0.Optimize(f4), "first pass turns the conditional into an if")
	assert.False(t, f0.Optimize(f4), "second pass finds nothing to do")
	assert.NoError(t, f0.CheckConsistent())
}

func TestT1CombinesLocalsAcrossBlocks(t *testing.T) {
	m := builtMethod(t, sequentialMethod)
	f0, f2 := m.flows[0], m.flows[2]

	store, load := m.locals.Get(0), m.locals.Get(1)
	require.Equal(t, 1, store.Slot)
	require.Equal(t, 1, load.Slot)
	assert.False(t, store.SameVariable(load))
	assert.True(t, f2.In().ContainsSlot(1))

	ok, err := f0.doT1(f2)
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, store.SameVariable(load))
	assert.False(t, f0.In().ContainsSlot(1), "the read is covered by the write")
	assert.True(t, f2.merged)
	assert.Equal(t, 5, f0.Length)
}

func TestT1KeepsUncoveredReads(t *testing.T) {
	m := builtMethod(t, `
class: demo.Seq
methods:
  - name: run
    blocks:
      - addr: 0
        length: 2
        code:
          - store: 1
            value: {const: "1"}
        end: {kind: next, target: 2}
      - addr: 2
        length: 3
        code:
          - call: foo
            void: true
            args: [{load: 1}, {load: 2}]
        end: {kind: return}
`)
	f0, f2 := m.flows[0], m.flows[2]

	_, err := f0.doT1(f2)
	require.NoError(t, err)
	assert.True(t, f0.In().ContainsSlot(2))
	assert.False(t, f0.In().ContainsSlot(1))
}

func TestT1RefusesSharedSuccessor(t *testing.T) {
	m := builtMethod(t, ifThenMethod)
	f0, f4 := m.flows[0], m.flows[4]

	ok, err := f0.doT1(f4)
	require.NoError(t, err)
	assert.False(t, ok, "flow_4 is also reached from flow_2")
}

func TestBuildDropsUnreachableBlocks(t *testing.T) {
	m := builtMethod(t, `
class: demo.Dead
methods:
  - name: run
    blocks:
      - {addr: 0, length: 1, end: {kind: return}}
      - {addr: 1, length: 3, code: [{call: never, void: true}], end: {kind: return}}
`)
	assert.Len(t, m.order, 1)
	assert.Nil(t, m.flows[1])
	assert.Equal(t, 1, m.stats.Regions)
}
