package flow

import (
	"github.com/ludo-technologies/bcflow/internal/expr"
)

// transform applies the local rewrites to f's tree until none applies.
func (f *FlowBlock) transform() bool {
	changed := false
	for f.transformOnce(f.block) {
		changed = true
	}
	if changed {
		f.fixLastModified()
	}
	return changed
}

// transformOnce applies the first rewrite that matches in b's subtree,
// children first.
func (f *FlowBlock) transformOnce(b *Block) bool {
	for _, s := range b.subs {
		if s != nil && f.transformOnce(s) {
			return true
		}
	}
	opts := f.method.opts
	switch b.Kind {
	case Sequential:
		if removeEmpty(b) {
			return true
		}
		if opts.CombineConditions && combineIfGoto(b) {
			return true
		}
	case Synchronized:
		return completeSynchronized(b)
	case Loop:
		return opts.CreateForLoops && createForInitializer(b)
	case Special:
		return opts.RemoveStackOps && removeStackOp(b)
	}
	return false
}

// removeEmpty drops jumpless Empty blocks from a sequence and hands the jump
// of a trailing Empty to its predecessor.
func removeEmpty(seq *Block) bool {
	first, second := seq.subs[0], seq.subs[1]
	switch {
	case second.Kind == Empty && second.jump == nil:
		second.RemoveBlock()
	case first.Kind == Empty && first.jump == nil:
		first.RemoveBlock()
	case second.Kind == Empty && first.jump == nil:
		first.MoveJump(second.jump)
		second.RemoveBlock()
	default:
		return false
	}
	return true
}

// combineIfGoto merges two adjacent conditionals:
//
//	if (a) goto X; if (b) goto X;          ->  if (a || b) goto X;
//	if (a) goto Y; if (b) goto X; goto Y;  ->  if (!a && b) goto X; goto Y;
func combineIfGoto(seq *Block) bool {
	cb1 := seq.subs[0]
	if cb1.Kind != Conditional || cb1.jump != nil {
		return false
	}
	cb2 := seq.subs[1]
	if cb2.Kind == Sequential {
		cb2 = cb2.subs[0]
	}
	if cb2.Kind != Conditional {
		return false
	}
	j1, j2 := cb1.subs[0].jump, cb2.subs[0].jump
	if j1 == nil || j2 == nil {
		return false
	}
	switch {
	case j1.dest == j2.dest:
		cb2.Expr = &expr.Binary{Op: "||", Left: cb1.Expr, Right: cb2.Expr}
	case cb2 == seq.subs[1] && cb2.jump != nil && j1.dest == cb2.jump.dest:
		cb2.Expr = &expr.Binary{Op: "&&", Left: expr.Negate(cb1.Expr), Right: cb2.Expr}
	default:
		return false
	}
	cb1.subs[0].RemoveJump()
	cb1.RemoveBlock()
	return true
}

// completeSynchronized folds the monitorenter and the store of the locked
// object in front of a synchronized block into the block.
func completeSynchronized(sync *Block) bool {
	if !sync.Entered {
		p := seqPrev(sync)
		if p == nil || p.Kind != Instruction || p.jump != nil {
			return false
		}
		enter, ok := p.Expr.(*expr.MonitorEnter)
		if !ok {
			return false
		}
		if ld, ok := enter.Object.(*expr.Load); ok && ld.Local.Slot != sync.Local.Slot {
			return false
		}
		sync.Entered = true
		p.RemoveBlock()
		return true
	}
	if sync.Expr != nil {
		return false
	}
	p := seqPrev(sync)
	if p == nil || p.Kind != Instruction || p.jump != nil {
		return false
	}
	st, ok := p.Expr.(*expr.Store)
	if !ok || st.Local.Slot != sync.Local.Slot {
		return false
	}
	sync.Expr = st.Value
	p.RemoveBlock()
	return true
}

// createForInitializer completes a for loop with the store to the
// incremented variable right before it.
func createForInitializer(loop *Block) bool {
	if loop.LoopKind != PossibleFor {
		return false
	}
	incr, _ := expr.IsIncrement(loop.Incr)
	p := seqPrev(loop)
	if incr == nil || p == nil || p.Kind != Instruction || p.jump != nil {
		return false
	}
	st, ok := p.Expr.(*expr.Store)
	if !ok || st.Local.Slot != incr.Slot {
		return false
	}
	loop.Init = st
	loop.LoopKind = For
	p.RemoveBlock()
	return true
}

// removeStackOp removes a swap of two pure pushes and a pop of a pushed
// value.
func removeStackOp(sp *Block) bool {
	pushed := func(b *Block) bool {
		return b != nil && b.Kind == Instruction && b.jump == nil && !b.Expr.Void()
	}
	switch sp.Op {
	case "swap":
		p2 := seqPrev(sp)
		if !pushed(p2) {
			return false
		}
		p1 := seqPrev(p2)
		if !pushed(p1) || !expr.IsPure(p1.Expr) || !expr.IsPure(p2.Expr) {
			return false
		}
		p1.Expr, p2.Expr = p2.Expr, p1.Expr
		sp.RemoveBlock()
		return true
	case "pop":
		p := seqPrev(sp)
		if !pushed(p) {
			return false
		}
		if expr.IsPure(p.Expr) {
			p.RemoveBlock()
		} else {
			p.Expr = &expr.Pop{Count: sp.Count, Value: p.Expr}
		}
		sp.RemoveBlock()
		return true
	}
	return false
}
