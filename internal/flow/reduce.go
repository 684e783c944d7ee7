package flow

import (
	"github.com/ludo-technologies/bcflow/internal/expr"
)

// appendPoint returns the smallest block containing lastModified and the
// origin of every jump in jumps.
func (f *FlowBlock) appendPoint(jumps []*Jump) *Block {
	f.fixLastModified()
	sb := f.lastModified
	for _, j := range jumps {
		for !sb.Contains(j.prev) {
			sb = sb.outer
		}
	}
	return sb
}

// ensureJump widens sb until it owns a jump. A root without a jump never
// completes normally, so a jump to succ can be attached to it.
func (f *FlowBlock) ensureJump(sb *Block, succ *FlowBlock) *Block {
	for sb.jump == nil && sb.outer != nil {
		sb = sb.outer
	}
	if sb.jump == nil {
		locals := f.method.locals
		sb.SetJump(newJump(succ, NewVariableSet(locals), NewVariableSet(locals)))
	}
	return sb
}

// findCaseSplice checks whether succ is the target of a switch case body that
// only jumps there, with every other jump to succ coming from the case
// before. It returns the index of that case.
func findCaseSplice(sw *Block, succ *FlowBlock, jumps []*Jump) (int, bool) {
	if sw.Kind != Switch {
		return -1, false
	}
	idx := -1
	for i, c := range sw.subs {
		body := c.Body()
		if body != nil && body.Kind == Empty && body.jump != nil && body.jump.dest == succ {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, false
	}
	prevCase := previousCaseBody(sw, idx)
	next := sw.subs[idx].Body()
	for _, j := range jumps {
		if j.prev == next {
			continue
		}
		if prevCase == nil || !prevCase.Contains(j.prev) {
			return -1, false
		}
	}
	return idx, true
}

func previousCaseBody(sw *Block, idx int) *Block {
	for i := idx - 1; i >= 0; i-- {
		if body := sw.subs[i].Body(); body != nil {
			return body
		}
	}
	return nil
}

// doT1 merges succ into f when f is its only predecessor.
func (f *FlowBlock) doT1(succ *FlowBlock) (bool, error) {
	if succ == f || succ.IsEnd() || len(succ.preds) != 1 || succ.preds[0] != f {
		return false, nil
	}
	m := f.method
	jumps := f.jumpsTo(succ)
	f.updateInOut(succ, jumps, true)
	sb := f.appendPoint(jumps)

	if idx, ok := findCaseSplice(sb, succ, jumps); ok {
		f.spliceCase(sb, idx, succ, jumps)
	} else {
		sb = f.ensureJump(sb, succ)
		o := newOptimizer(f, succ, sb)
		remaining := o.run(jumps)
		inner := o.sb
		sb = o.resolve(remaining)
		if inner.jump != nil && inner.jump.dest == succ {
			inner.RemoveJump()
		}
		sb.AppendBlock(succ.block)
	}

	f.mergeSuccessors(succ)
	f.grow(succ)
	f.lastModified = succ.lastModified
	f.fixLastModified()
	m.stats.T1++
	if _, left := f.succs[succ]; left {
		return true, inconsistency(succ.Addr, "jumps to %s survived the merge into %s", succ.Label(), f.Label())
	}
	m.log.Debugw("T1", "flow", f.Label(), "merged", succ.Label())
	return true, nil
}

// spliceCase puts succ's tree into the switch case at idx whose body only
// jumped to succ. The preceding case then falls through into it.
func (f *FlowBlock) spliceCase(sw *Block, idx int, succ *FlowBlock, jumps []*Jump) {
	next := sw.subs[idx].Body()
	if prevCase := previousCaseBody(sw, idx); prevCase != nil {
		others := make([]*Jump, 0, len(jumps))
		for _, j := range jumps {
			if j.prev != next {
				others = append(others, j)
			}
		}
		o := newOptimizer(f, succ, prevCase)
		remaining := o.run(others)
		inner := o.sb
		o.resolve(remaining)
		if inner.jump != nil && inner.jump.dest == succ {
			inner.RemoveJump()
		}
	}
	next.RemoveJump()
	succ.block.Replace(next)
}

// doT2 turns f into a loop when it jumps back to itself and no other
// predecessor inside [start, end) lies after it.
func (f *FlowBlock) doT2(start, end int) (bool, error) {
	if !f.hasPred(f) {
		return false, nil
	}
	for _, p := range f.preds {
		if p != f && p.Addr > f.Addr && p.Addr >= start && p.Addr < end {
			return false, nil
		}
	}
	m := f.method
	jumps := f.jumpsTo(f)
	f.updateInOut(f, jumps, false)
	f.fixLastModified()

	o := newOptimizer(f, f, f.block)
	remaining := o.run(jumps)

	body := f.block
	loop := newLoop(While, expr.True())
	loop.Replace(body)
	loop.setSub(0, body)
	if body.jump != nil && body.jump.dest == f {
		body.RemoveJump()
	}

	for _, j := range remaining {
		prev := j.prev
		if prev == nil || j.dest != f {
			continue
		}
		labelled := false
		for s := prev.outer; s != nil && s != loop; s = s.outer {
			if s.IsBreakable() {
				labelled = true
				break
			}
		}
		prev.RemoveJump()
		o.place(newContinue(loop, labelled), prev)
		m.stats.Continues++
	}

	if m.opts.CreateForLoops && !loop.hasContinue() {
		loop.seedIncrement()
	}
	f.lastModified = loop
	m.stats.T2++
	if _, left := f.succs[f]; left {
		return true, inconsistency(f.Addr, "back edges of %s survived loop creation", f.Label())
	}
	m.log.Debugw("T2", "flow", f.Label())
	return true, nil
}

// hasContinue reports whether a continue inside the loop targets it.
func (b *Block) hasContinue() bool {
	found := false
	var walk func(*Block)
	walk = func(x *Block) {
		if found {
			return
		}
		if x.Kind == Continue && x.Target == b {
			found = true
			return
		}
		for _, s := range x.subs {
			if s != nil {
				walk(s)
			}
		}
	}
	walk(b)
	return found
}

// seedIncrement moves a trailing increment of the body into the loop header,
// making the loop a for loop waiting for its initializer.
func (b *Block) seedIncrement() {
	tail := b.Body()
	for tail.Kind == Sequential {
		tail = tail.subs[1]
	}
	if tail.Kind != Instruction || tail.jump != nil {
		return
	}
	if _, ok := expr.IsIncrement(tail.Expr); !ok {
		return
	}
	b.LoopKind = PossibleFor
	b.Incr = tail.Expr
	tail.RemoveBlock()
}

// analyze reduces f over the address range [start, end) until no successor
// in range can be merged. It reports whether anything changed.
func (f *FlowBlock) analyze(start, end int) (bool, error) {
	m := f.method
	changed := false
	for {
		if err := m.step(); err != nil {
			return changed, err
		}
		f.transform()

		ok, err := f.doT2(start, end)
		if err != nil {
			return changed, err
		}
		if ok {
			changed = true
			if err := m.checkStep(f); err != nil {
				return changed, err
			}
		}

		succ := f.successorInRange(start, end, -1)
		for {
			if succ == nil {
				f.transform()
				return changed, nil
			}
			if err := m.step(); err != nil {
				return changed, err
			}
			ok, err := f.doT1(succ)
			if err != nil {
				return changed, err
			}
			if ok {
				changed = true
				if err := m.checkStep(f); err != nil {
					return changed, err
				}
				break
			}

			// a region entered from outside the range is left for an outer
			// analysis, but the other successors may still be reducible
			if succ.predOutside(start, end) {
				succ = f.successorInRange(start, end, succ.Addr)
				continue
			}
			newStart, newEnd := start, f.Addr
			if succ.Addr > f.Addr {
				newStart, newEnd = f.NextAddr(), end
			}
			sub, err := succ.analyze(newStart, newEnd)
			if err != nil {
				return changed, err
			}
			if sub {
				changed = true
				break
			}
			succ = f.successorInRange(start, end, succ.Addr)
		}
	}
}
