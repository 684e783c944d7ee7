package flow

import (
	"github.com/ludo-technologies/bcflow/internal/expr"
)

// optimizer eliminates the jumps from one flow block to succ ahead of a T1 or
// T2 step. sb is the append point; it follows the tree when a rewrite
// replaces it.
type optimizer struct {
	f    *FlowBlock
	succ *FlowBlock
	sb   *Block
}

func newOptimizer(f, succ *FlowBlock, sb *Block) *optimizer {
	return &optimizer{f: f, succ: succ, sb: sb}
}

// replaced records that nb took the place of old.
func (o *optimizer) replaced(old, nb *Block) {
	if o.sb == old {
		o.sb = nb
	}
	if lm := o.f.lastModified; lm == old || (old.Contains(lm) && !nb.Contains(lm)) {
		o.f.lastModified = nb
	}
}

// remove deletes b, keeping sb valid when the sequence holding b was sb.
func (o *optimizer) remove(b *Block) {
	seq := b.outer
	if seq != nil && seq.Kind == Sequential && o.sb == seq {
		keep := seq.subs[0]
		if keep == b {
			keep = seq.subs[1]
		}
		b.RemoveBlock()
		o.sb = keep
		return
	}
	b.RemoveBlock()
}

// run applies the rewrite rules to every jump until none applies and
// returns the jumps that are left for resolve.
func (o *optimizer) run(jumps []*Jump) []*Jump {
	work := make([]*Jump, len(jumps))
	copy(work, jumps)
	var remaining []*Jump
	for len(work) > 0 {
		j := work[0]
		work = work[1:]
		if j.prev == nil || j.dest != o.succ || j == o.sb.jump {
			continue
		}
		requeue, done := o.optimize(j)
		switch {
		case requeue:
			work = append([]*Jump{j}, work...)
		case !done:
			remaining = append(remaining, j)
		}
	}
	return remaining
}

func (o *optimizer) optimize(j *Jump) (requeue, done bool) {
	prev := j.prev

	if prev.Kind == Empty && prev.outer != nil && prev.outer.Kind == Conditional && prev.outer.jump != nil {
		cb := prev.outer
		if cb.jump.dest == o.succ {
			// both branches reach succ
			prev.RemoveJump()
			o.degrade(cb)
			return false, true
		}
		if o.f.method.opts.NegateConditions {
			cb.Expr = expr.Negate(cb.Expr)
			cb.SwapJump(prev)
			return true, false
		}
	}

	for prev.outer != nil && prev.outer.jump == nil && prev.outer.IsSingleExit(prev) && o.sb.Contains(prev.outer) {
		prev.outer.MoveJump(j)
		prev = prev.outer
	}
	if j == o.sb.jump {
		return false, true
	}

	if prev.outer != nil && prev.outer.nextFlowBlockOf(prev) == o.succ {
		prev.RemoveJump()
		if cb := prev.outer; cb.Kind == Conditional {
			o.degrade(cb)
		}
		return false, true
	}

	if prev.Kind == Empty && prev.outer != nil && prev.outer.Kind == Conditional {
		cb := prev.outer
		if o.loopCondition(cb, j) {
			return false, true
		}
		if ok, rq := o.ifThen(cb, j); ok {
			return rq, !rq
		}
	}

	if ok, rq := o.ifThenElse(prev, j); ok {
		return rq, !rq
	}
	return false, false
}

// degrade replaces a conditional whose branches meet by the evaluation of its
// condition.
func (o *optimizer) degrade(cb *Block) {
	var nb *Block
	if expr.IsPure(cb.Expr) {
		nb = newEmpty()
	} else {
		nb = newInstruction(cb.Expr)
	}
	nb.Replace(cb)
	if cb.jump != nil {
		nb.MoveJump(cb.jump)
	}
	o.replaced(cb, nb)
}

// loopCondition folds `if (c) break` at the start of a while(true) body into
// the loop condition, or at the end of the body into a do-while.
func (o *optimizer) loopCondition(cb *Block, j *Jump) bool {
	if cb.outer == nil || cb.jump != nil {
		return false
	}
	var loop *Block
	switch {
	case cb.outer.Kind == Loop:
		loop = cb.outer
	case cb.outer.Kind == Sequential && cb.outer.subs[0] == cb && cb.outer.outer != nil && cb.outer.outer.Kind == Loop:
		loop = cb.outer.outer
	}
	if loop != nil && (loop.LoopKind == While || loop.LoopKind == PossibleFor) &&
		expr.IsTrue(loop.Expr) && loop.NextFlowBlock() == o.succ {
		loop.Expr = expr.Negate(cb.Expr)
		j.prev.RemoveJump()
		o.remove(cb)
		o.f.method.log.Debugw("loop condition", "flow", o.f.Label(), "cond", loop.Expr.String())
		return true
	}

	top := cb
	for top.outer != nil && top.outer.Kind == Sequential && top.outer.subs[1] == top {
		top = top.outer
	}
	if top == cb || top.outer == nil || top.outer.Kind != Loop {
		return false
	}
	loop = top.outer
	if loop.LoopKind != While || !expr.IsTrue(loop.Expr) || loop.NextFlowBlock() != o.succ || loop.hasContinue() {
		return false
	}
	loop.LoopKind = DoWhile
	loop.Expr = expr.Negate(cb.Expr)
	j.prev.RemoveJump()
	o.remove(cb)
	return true
}

// ifThen turns `if (c) goto succ; rest` where rest ends at succ into
// `if (!c) { rest }`.
func (o *optimizer) ifThen(cb *Block, j *Jump) (ok, requeue bool) {
	seq := cb.outer
	if seq == nil || seq.Kind != Sequential || seq.subs[0] != cb || cb.jump != nil {
		return false, false
	}
	reaches := seq.NextFlowBlock() == o.succ
	if !reaches && !seq.JumpMayBeChanged() {
		return false, false
	}
	then := seq.subs[1]
	seqJump := seq.jump
	ifb := newIfThenElse(expr.Negate(cb.Expr))
	ifb.Replace(seq)
	ifb.setSub(0, then)
	if seqJump != nil {
		ifb.MoveJump(seqJump)
	}
	o.replaced(seq, ifb)
	if reaches {
		j.prev.RemoveJump()
		return true, false
	}
	ifb.MoveJump(j)
	return true, true
}

// ifThenElse turns a jump to succ at the end of an else-less then block into
// an else branch holding the code that followed the if.
func (o *optimizer) ifThenElse(prev *Block, j *Jump) (ok, requeue bool) {
	top := prev
	for top.outer != nil && top.outer.Kind == Sequential && top.outer.subs[1] == top {
		top = top.outer
	}
	ifb := top.outer
	if ifb == nil || ifb.Kind != IfThenElse || ifb.Then() != top || ifb.Else() != nil || ifb.jump != nil {
		return false, false
	}
	seq := ifb.outer
	if seq == nil || seq.Kind != Sequential || seq.subs[0] != ifb {
		return false, false
	}
	reaches := seq.NextFlowBlock() == o.succ
	if !reaches && !seq.JumpMayBeChanged() {
		return false, false
	}
	elseBlock := seq.subs[1]
	seqJump := seq.jump
	ifb.Replace(seq)
	ifb.setSub(1, elseBlock)
	if seqJump != nil {
		ifb.MoveJump(seqJump)
	}
	o.replaced(seq, ifb)
	if reaches {
		j.prev.RemoveJump()
		return true, false
	}
	ifb.MoveJump(j)
	return true, true
}

// resolve turns the jumps left by run into breaks: to the innermost loop or
// switch inside sb that already continues at succ, or else to a
// do{...}while(false) wrapped around sb. It returns the new append point.
func (o *optimizer) resolve(remaining []*Jump) *Block {
	m := o.f.method
	var trampoline *Block
	for _, j := range remaining {
		prev := j.prev
		if prev == nil || j.dest != o.succ || j == o.sb.jump {
			continue
		}
		level := 0
		var target *Block
		for s := prev.outer; s != nil; s = s.outer {
			if s.IsBreakable() {
				level++
				if s.NextFlowBlock() == o.succ {
					target = s
					break
				}
			}
			if s == o.sb {
				break
			}
		}
		prev.RemoveJump()
		var brk *Block
		if target != nil {
			brk = newBreak(target, level > 1)
		} else {
			if trampoline == nil {
				trampoline = newLoop(DoWhile, expr.False())
			}
			brk = newBreak(trampoline, level > 0)
		}
		o.place(brk, prev)
		m.stats.Breaks++
	}
	if trampoline != nil {
		sb := o.sb
		trampoline.Replace(sb)
		trampoline.setSub(0, sb)
		o.sb = trampoline
		m.stats.Trampolines++
		m.log.Debugw("trampoline", "flow", o.f.Label(), "succ", o.succ.Label())
	}
	return o.sb
}

// place puts a break or continue where prev's jump was. A conditional true
// branch becomes an if statement.
func (o *optimizer) place(nb, prev *Block) {
	if prev.Kind != Empty {
		prev.AppendBlock(nb)
		return
	}
	if cb := prev.outer; cb != nil && cb.Kind == Conditional {
		ifb := newIfThenElse(cb.Expr)
		ifb.Replace(cb)
		if cb.jump != nil {
			ifb.MoveJump(cb.jump)
		}
		ifb.setSub(0, nb)
		o.replaced(cb, ifb)
		return
	}
	nb.Replace(prev)
	o.replaced(prev, nb)
}

// Optimize runs the rewrite rules on the jumps from f to succ without
// merging anything. It reports whether the tree changed.
func (f *FlowBlock) Optimize(succ *FlowBlock) bool {
	jumps := f.jumpsTo(succ)
	if len(jumps) == 0 {
		return false
	}
	before := f.Dump()
	sb := f.ensureJumpless(f.appendPoint(jumps))
	o := newOptimizer(f, succ, sb)
	o.run(jumps)
	return f.Dump() != before
}

// ensureJumpless widens sb to the nearest ancestor that owns a jump, without
// attaching one.
func (f *FlowBlock) ensureJumpless(sb *Block) *Block {
	for sb.jump == nil && sb.outer != nil {
		sb = sb.outer
	}
	return sb
}
