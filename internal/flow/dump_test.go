package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/bcflow/internal/expr"
)

func TestDumpBlock(t *testing.T) {
	t.Run("nil block", func(t *testing.T) {
		assert.Equal(t, "", DumpBlock(nil, DumpOptions{}))
	})

	t.Run("else if chain", func(t *testing.T) {
		inner := newIfThenElse(&expr.Raw{Text: "b"})
		inner.setSub(0, call("two"))
		inner.setSub(1, call("three"))
		outer := newIfThenElse(&expr.Raw{Text: "a"})
		outer.setSub(0, call("one"))
		outer.setSub(1, inner)

		assert.Equal(t, lines(
			"if (a) {",
			"    one();",
			"} else if (b) {",
			"    two();",
			"} else {",
			"    three();",
			"}",
		), DumpBlock(outer, DumpOptions{}))
	})

	t.Run("do while", func(t *testing.T) {
		loop := newLoop(DoWhile, &expr.Raw{Text: "more()"})
		loop.setSub(0, call("step"))

		assert.Equal(t, lines(
			"do {",
			"    step();",
			"} while (more());",
		), DumpBlock(loop, DumpOptions{}))
	})

	t.Run("special stack operation", func(t *testing.T) {
		b := &Block{Kind: Special, Op: "dup", Count: 2, Depth: 1}
		assert.Equal(t, lines("dup2_x1;"), DumpBlock(b, DumpOptions{}))
	})

	t.Run("synchronized without monitorenter", func(t *testing.T) {
		locals := expr.NewLocals()
		sync := newSynchronized(locals.New(3))
		sync.setSub(0, call("work"))

		assert.Equal(t, lines(
			"synchronized (local_3) { /* monitorenter missing */",
			"    work();",
			"}",
		), DumpBlock(sync, DumpOptions{}))
	})

	t.Run("description", func(t *testing.T) {
		assert.Equal(t, lines("/* odd exit */"), DumpBlock(newDescription("odd exit"), DumpOptions{}))
	})
}

func TestDumpColor(t *testing.T) {
	res := structure(t, ifThenMethod, DefaultOptions())
	require.NotNil(t, res.Root)

	plain := DumpBlock(res.Root, DumpOptions{})
	colored := DumpBlock(res.Root, DumpOptions{Color: true})

	assert.NotContains(t, plain, "\x1b[")
	assert.Contains(t, colored, "\x1b[")
	assert.Contains(t, colored, "b();")
}

func TestFlowBlockDumpShowsPendingJumps(t *testing.T) {
	m := builtMethod(t, ifThenMethod)

	assert.Equal(t, lines(
		"b();",
		"goto flow_4;",
	), m.flows[2].Dump())
}
