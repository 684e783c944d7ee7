package flow

import (
	"math"
	"sort"

	"github.com/ludo-technologies/bcflow/internal/bytecode"
	"github.com/ludo-technologies/bcflow/internal/expr"
)

// ThrowableType is the exception type of a handler that catches everything
// and matches no finally or synchronized shape.
const ThrowableType = "java.lang.Throwable"

// sortHandlers orders the exception table so that inner ranges come before the
// ranges containing them: start descending, end ascending, then handler and
// type ascending.
func sortHandlers(hs []bytecode.Handler) []bytecode.Handler {
	out := make([]bytecode.Handler, len(hs))
	copy(out, hs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Start != b.Start {
			return a.Start > b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if a.Handler != b.Handler {
			return a.Handler < b.Handler
		}
		return a.Type < b.Type
	})
	return out
}

// validateHandlers rejects empty ranges, handlers inside their own range and
// ranges that overlap without nesting.
func validateHandlers(hs []bytecode.Handler) error {
	for i, h := range hs {
		if h.Start >= h.End || h.Handler < h.End {
			return inconsistency(h.Start, "invalid exception handler [%d,%d) -> %d", h.Start, h.End, h.Handler)
		}
		// every earlier range starts at or after h, so h must either end
		// before it starts or contain it
		for _, p := range hs[:i] {
			if h.End > p.Start && h.End < p.End {
				return inconsistency(h.Start, "exception ranges [%d,%d) and [%d,%d) overlap without nesting",
					h.Start, h.End, p.Start, p.End)
			}
		}
	}
	return nil
}

// analyzeHandlers turns the exception table into Try, Synchronized and
// Finally blocks, innermost range first.
func (m *method) analyzeHandlers() error {
	hs := sortHandlers(m.src.Handlers)
	if err := validateHandlers(hs); err != nil {
		return err
	}
	uses := make(map[int]int)
	for _, h := range hs {
		uses[h.Handler]++
	}

	for i, h := range hs {
		endHandler := math.MaxInt32
		if i+1 < len(hs) && hs[i+1].End > h.Handler {
			endHandler = hs[i+1].End
		}

		tryFlow := m.flowAt(h.Start)
		if tryFlow == nil {
			if m.flows[h.Start] == nil {
				// unreachable protected code
				m.log.Debugw("skipping handler of dead range", "start", h.Start, "end", h.End)
				continue
			}
			return inconsistency(h.Start, "try range start %d was merged before its handler", h.Start)
		}
		if _, err := tryFlow.analyze(h.Start, m.tryEnd(h)); err != nil {
			return err
		}

		newRange := i == 0 || hs[i-1].Start != h.Start || hs[i-1].End != h.End
		if newRange {
			newTryBlock(tryFlow)
		} else if tryFlow.block.Kind != Try {
			return inconsistency(h.Start, "no try block for range [%d,%d)", h.Start, h.End)
		}

		handlerFlow := m.flowAt(h.Handler)
		if handlerFlow == nil {
			return inconsistency(h.Handler, "handler %d is not a live flow block", h.Handler)
		}
		catchFlow := handlerFlow
		if uses[h.Handler] > 1 {
			if h.Type != "" {
				m.bindSharedHandler(handlerFlow)
			}
			catchFlow = m.handlerStub(handlerFlow)
		} else if _, err := catchFlow.analyze(h.Handler, endHandler); err != nil {
			return err
		}
		if len(catchFlow.preds) > 0 {
			return inconsistency(h.Handler, "handler %s has predecessors", catchFlow.Label())
		}

		tryFlow.updateInOutCatch(catchFlow)
		kind, err := m.classifyHandler(h, tryFlow, catchFlow, endHandler)
		if err != nil {
			return err
		}
		m.stats.Handlers++
		m.log.Debugw("handler", "range", []int{h.Start, h.End}, "handler", h.Handler, "kind", kind)
		if err := tryFlow.CheckConsistent(); err != nil {
			return err
		}
	}
	return nil
}

func (m *method) classifyHandler(h bytecode.Handler, tryFlow, catchFlow *FlowBlock, endHandler int) (string, error) {
	if h.Type != "" {
		m.analyzeCatch(h.Type, tryFlow, catchFlow)
		return "catch", nil
	}
	ok, err := m.analyzeSynchronized(tryFlow, catchFlow, endHandler)
	if err != nil || ok {
		return "synchronized", err
	}
	ok, err = m.analyzeFinally(tryFlow, catchFlow, endHandler)
	if err != nil || ok {
		return "finally", err
	}
	ok, err = m.analyzeSpecialFinally(tryFlow, catchFlow, endHandler)
	if err != nil || ok {
		return "special finally", err
	}
	m.analyzeCatch(ThrowableType, tryFlow, catchFlow)
	return "catch-all", nil
}

// tryEnd returns where the reduction of the try body of h stops. The gap
// between a range and its handler normally holds only the jump over the
// handler. Any other code there is unprotected and must stay outside the try.
func (m *method) tryEnd(h bytecode.Handler) int {
	for _, bb := range m.src.Blocks {
		if bb.Addr < h.End || bb.Addr >= h.Handler {
			continue
		}
		if len(bb.Code) > 0 || (bb.End.Kind != bytecode.Goto && bb.End.Kind != bytecode.Next) {
			return h.End
		}
	}
	return h.Handler
}

// bindSharedHandler takes the exception binding out of a typed handler used by
// several table entries, once, so that every catch clause jumping to it
// declares the same local.
func (m *method) bindSharedHandler(handler *FlowBlock) {
	if _, done := m.shared[handler.Addr]; done {
		return
	}
	local := m.takeCatchLocal(handler.block)
	if local == nil {
		local = m.exceptionLocal()
	}
	m.shared[handler.Addr] = local
}

// takeCatchLocal removes the leading store or pop of the thrown value from
// root and returns the local the exception is bound to.
func (m *method) takeCatchLocal(root *Block) *expr.Local {
	first := root
	if first.Kind == Sequential {
		first = first.subs[0]
	}
	if first.Kind != Instruction {
		return nil
	}
	switch e := first.Expr.(type) {
	case *expr.Store:
		if expr.IsStack(e.Value) {
			first.RemoveBlock()
			return e.Local
		}
	case *expr.Pop:
		if e.Value == nil && e.Count == 1 {
			first.RemoveBlock()
			return m.exceptionLocal()
		}
	}
	return nil
}

// handlerStub creates a region that only jumps to a handler shared by several
// table entries.
func (m *method) handlerStub(handler *FlowBlock) *FlowBlock {
	stub := newFlowBlock(m, handler.Addr, 0)
	e := newEmpty()
	stub.setBlock(e)
	e.SetJump(newJump(handler, NewVariableSet(m.locals), NewVariableSet(m.locals)))
	return stub
}

func newTryBlock(tryFlow *FlowBlock) *Block {
	t := &Block{Kind: Try, gen: tryFlow.gen.Clone()}
	body := tryFlow.block
	t.Replace(body)
	t.setSub(0, body)
	tryFlow.lastModified = t
	return t
}

func (f *FlowBlock) updateInOutCatch(catchFlow *FlowBlock) {
	gens := f.block.gen
	if gens == nil {
		gens = f.gen
	}
	catchFlow.in.Merge(gens)
	for _, dest := range catchFlow.succOrder {
		for _, j := range catchFlow.succs[dest] {
			j.gen.MergeGenKill(gens, j.kill)
		}
	}
	f.in.UnionExact(catchFlow.in)
	f.gen.UnionExact(catchFlow.gen)
}

// analyzeCatch adds catchFlow as a catch clause of the try block, binding the
// exception to the local the handler stores it in.
func (m *method) analyzeCatch(excType string, tryFlow, catchFlow *FlowBlock) {
	local, shared := m.shared[catchFlow.Addr]
	if !shared {
		local = m.takeCatchLocal(catchFlow.block)
	}
	if local == nil {
		local = m.exceptionLocal()
	}
	if local.Rep().Type == "" {
		local.Rep().Type = excType
	}

	c := newCatch(excType, local)
	body := catchFlow.block
	tryFlow.block.addSub(c)
	c.setSub(0, body)
	tryFlow.mergeSuccessors(catchFlow)
	tryFlow.grow(catchFlow)
}

func (m *method) exceptionLocal() *expr.Local {
	l := m.locals.New(-1)
	l.Name = m.names.exceptionName()
	return l
}

// matchMonitorHandler recognizes the handler javac emits for synchronized
// blocks and returns the monitor local:
//
//	monitorexit(x); throw <stack>
//	e = <stack>; monitorexit(x); throw e
func matchMonitorHandler(root *Block) *expr.Local {
	if root.Kind != Sequential {
		return nil
	}
	exit, thr := root.subs[0], root.subs[1]
	if st, ok := instrExpr(exit).(*expr.Store); ok && expr.IsStack(st.Value) {
		if thr.Kind != Sequential {
			return nil
		}
		exit, thr = thr.subs[0], thr.subs[1]
		ld, ok := thr.Expr.(*expr.Load)
		if thr.Kind != Throw || !ok || ld.Local.Slot != st.Local.Slot {
			return nil
		}
	} else if thr.Kind != Throw || !expr.IsStack(thr.Expr) {
		return nil
	}
	me, ok := instrExpr(exit).(*expr.MonitorExit)
	if !ok {
		return nil
	}
	ld, ok := me.Object.(*expr.Load)
	if !ok {
		return nil
	}
	return ld.Local
}

func instrExpr(b *Block) expr.Expr {
	if b == nil || b.Kind != Instruction {
		return nil
	}
	return b.Expr
}

// analyzeSynchronized turns the try block into a Synchronized block when the
// handler only releases a monitor and rethrows.
func (m *method) analyzeSynchronized(tryFlow, catchFlow *FlowBlock, endHandler int) (bool, error) {
	monitor := matchMonitorHandler(catchFlow.block)
	if monitor == nil {
		return false, nil
	}
	catchFlow.removeAllSuccessors()
	catchFlow.merged = true
	tryFlow.grow(catchFlow)

	if err := m.checkAndRemoveMonitorExit(tryFlow, monitor, catchFlow.NextAddr(), endHandler); err != nil {
		return true, err
	}

	tryBlock := tryFlow.block
	sync := newSynchronized(monitor)
	if len(tryBlock.SubBlocks()) == 1 {
		body := tryBlock.subs[0]
		jump := tryBlock.jump
		sync.Replace(tryBlock)
		sync.setSub(0, body)
		if jump != nil {
			sync.MoveJump(jump)
		}
	} else {
		sync.Replace(tryBlock)
		sync.setSub(0, tryBlock)
	}
	tryFlow.lastModified = sync
	return true, nil
}

// checkAndRemoveMonitorExit removes the monitor release in front of every
// exit of a synchronized body, inline or through a subroutine call.
func (m *method) checkAndRemoveMonitorExit(tryFlow *FlowBlock, monitor *expr.Local, start, end int) error {
	var subRoutine *FlowBlock
	triedSub := false
	for _, dest := range tryFlow.Successors() {
		jumps := tryFlow.jumpsTo(dest)
	nextJump:
		for _, j := range jumps {
			prev := j.prev
			if prev == nil {
				continue
			}
			if prev.Kind == Empty && prev.outer != nil && prev.outer.Kind == Jsr && !triedSub {
				triedSub = true
				if _, err := dest.analyze(start, end); err != nil {
					return err
				}
				if isMonitorSubRoutine(dest, monitor) {
					transformSubRoutine(dest)
					subRoutine = dest
					tryFlow.grow(subRoutine)
					break nextJump
				}
			}
			switch prev.Kind {
			case Throw, Jsr:
				continue
			}
			if prev.Kind == Empty && prev.outer != nil && prev.outer.Kind == Jsr {
				continue
			}
			if p := seqPrev(prev); p != nil {
				if p.Kind == Jsr {
					continue
				}
				if expr.IsMonitorExitOf(instrExpr(p), monitor) && (prev.Kind == Return || prev.Kind == Empty) {
					p.RemoveBlock()
					continue
				}
			}
			if expr.IsMonitorExitOf(instrExpr(prev), monitor) {
				prev.RemoveBlock()
				continue
			}
			m.diag(UnrecognizedIdiom, tryFlow.Addr, "non well formed synchronized block")
			m.markIllFormed(prev, "non well formed synchronized block")
		}
	}
	if subRoutine != nil {
		m.removeJSR(tryFlow, subRoutine)
		if len(subRoutine.preds) == 0 {
			subRoutine.removeAllSuccessors()
			subRoutine.merged = true
		}
	}
	return nil
}

// isMonitorSubRoutine matches `r = <stack>; monitorexit(x); ret r`.
func isMonitorSubRoutine(sub *FlowBlock, monitor *expr.Local) bool {
	first, ret := subRoutineShape(sub)
	if first == nil {
		return false
	}
	rest := first.outer.subs[1]
	return rest.Kind == Sequential && rest.subs[1] == ret &&
		expr.IsMonitorExitOf(instrExpr(rest.subs[0]), monitor)
}

// subRoutineShape returns the return-address store and the ret of a
// subroutine body.
func subRoutineShape(sub *FlowBlock) (first, ret *Block) {
	root := sub.block
	if root.Kind != Sequential {
		return nil, nil
	}
	st, ok := instrExpr(root.subs[0]).(*expr.Store)
	if !ok || !expr.IsStack(st.Value) {
		return nil, nil
	}
	tail := root
	for tail.Kind == Sequential {
		tail = tail.subs[1]
	}
	if tail.Kind != Ret || tail.Local == nil || tail.Local.Slot != st.Local.Slot {
		return nil, nil
	}
	return root.subs[0], tail
}

// transformSubRoutine strips the return-address store and the ret from a
// subroutine body.
func transformSubRoutine(sub *FlowBlock) bool {
	first, ret := subRoutineShape(sub)
	if first == nil {
		return false
	}
	first.RemoveBlock()
	ret.RemoveBlock()
	sub.fixLastModified()
	return true
}

// removeJSR deletes the calls of a subroutine that was inlined as a finally
// or monitor release.
func (m *method) removeJSR(tryFlow, sub *FlowBlock) {
	for _, j := range tryFlow.removeJumpsTo(sub) {
		prev := j.prev
		if prev == nil {
			continue
		}
		prev.RemoveJump()
		if prev.Kind == Empty && prev.outer != nil && prev.outer.Kind == Jsr {
			jsr := prev.outer
			if jsr.NextFlowBlock() != nil {
				jsr.RemoveBlock()
				continue
			}
			if seq := jsr.outer; seq != nil && seq.Kind == Sequential && seq.subs[0] == jsr {
				next := seq.subs[1]
				if next.Kind == Sequential {
					next = next.subs[0]
				}
				switch next.Kind {
				case Jsr:
					jsr.RemoveBlock()
					continue
				case Return:
					jsr.RemoveBlock()
					eliminateReturnLocal(next)
					continue
				}
			}
		}
		m.diag(UnrecognizedIdiom, tryFlow.Addr, "subroutine call is not followed by an exit")
	}
}

// eliminateReturnLocal folds `v = e; return v;` into `return e;`.
func eliminateReturnLocal(ret *Block) {
	ld, ok := ret.Expr.(*expr.Load)
	if !ok {
		return
	}
	p := seqPrev(ret)
	if p == nil || p.jump != nil {
		return
	}
	st, ok := instrExpr(p).(*expr.Store)
	if !ok || st.Local.Slot != ld.Local.Slot {
		return
	}
	ret.Expr = st.Value
	p.RemoveBlock()
}

// wellFormedFinallyExit reports whether a jump leaving the try body at prev
// runs the finally subroutine first.
func wellFormedFinallyExit(prev *Block) bool {
	switch prev.Kind {
	case Throw, Jsr:
		return true
	}
	if prev.Kind == Empty && prev.outer != nil && prev.outer.Kind == Jsr {
		return true
	}
	p := seqPrev(prev)
	return p != nil && p.Kind == Jsr
}

func (m *method) checkAndRemoveJSR(tryFlow, sub *FlowBlock) {
	for _, dest := range tryFlow.Successors() {
		if dest == sub {
			continue
		}
		for _, j := range tryFlow.jumpsTo(dest) {
			if j.prev == nil || wellFormedFinallyExit(j.prev) {
				continue
			}
			m.diag(UnrecognizedIdiom, tryFlow.Addr, "non well formed try-finally block")
			m.markIllFormed(j.prev, "non well formed try-finally block")
		}
	}
	m.removeJSR(tryFlow, sub)
}

// markIllFormed puts a Description in front of the statement owning an
// unrecognized exit.
func (m *method) markIllFormed(prev *Block, text string) {
	target := prev
	if prev.Kind == Empty && prev.outer != nil && prev.outer.Kind == Conditional {
		target = prev.outer
	}
	target.PrependBlock(newDescription(text))
}

// unnestTry drops a try block whose only content is another try block, so
// that a finally joins the catch clauses of the inner one.
func unnestTry(tryFlow *FlowBlock) *Block {
	tryBlock := tryFlow.block
	if len(tryBlock.subs) != 1 || tryBlock.subs[0].Kind != Try {
		return tryBlock
	}
	inner := tryBlock.subs[0]
	inner.gen = tryBlock.gen
	jump := tryBlock.jump
	inner.Replace(tryBlock)
	if jump != nil && inner.jump == nil {
		inner.MoveJump(jump)
	}
	tryFlow.lastModified = inner
	return inner
}

// matchFinallyHandler recognizes `e = <stack>; jsr S; throw e` and returns
// the subroutine S.
func matchFinallyHandler(root *Block) *FlowBlock {
	if root.Kind != Sequential {
		return nil
	}
	st, ok := instrExpr(root.subs[0]).(*expr.Store)
	if !ok || !expr.IsStack(st.Value) {
		return nil
	}
	rest := root.subs[1]
	if rest.Kind != Sequential || rest.subs[0].Kind != Jsr {
		return nil
	}
	jsr, thr := rest.subs[0], rest.subs[1]
	ld, ok := thr.Expr.(*expr.Load)
	if thr.Kind != Throw || !ok || ld.Local.Slot != st.Local.Slot {
		return nil
	}
	call := jsr.subs[0]
	if call == nil || call.jump == nil {
		return nil
	}
	return call.jump.dest
}

// analyzeFinally handles the javac try/finally shape where every exit calls
// the finally subroutine and the catch-all handler calls it and rethrows.
func (m *method) analyzeFinally(tryFlow, catchFlow *FlowBlock, end int) (bool, error) {
	sub := matchFinallyHandler(catchFlow.block)
	if sub == nil {
		return false, nil
	}
	if _, err := sub.analyze(catchFlow.NextAddr(), end); err != nil {
		return true, err
	}
	if first, _ := subRoutineShape(sub); first == nil {
		return false, nil
	}

	catchFlow.removeAllSuccessors()
	catchFlow.merged = true
	transformSubRoutine(sub)
	if jumps := tryFlow.jumpsTo(sub); len(jumps) > 0 {
		tryFlow.updateInOut(sub, jumps, true)
	}
	tryFlow.grow(catchFlow)
	m.checkAndRemoveJSR(tryFlow, sub)
	if len(sub.preds) > 0 {
		return true, inconsistency(sub.Addr, "finally subroutine %s is called from outside its try block", sub.Label())
	}

	tryBlock := unnestTry(tryFlow)
	fin := newFinally()
	tryBlock.addSub(fin)
	fin.setSub(0, sub.block)
	tryFlow.mergeSuccessors(sub)
	tryFlow.grow(sub)
	return true, nil
}

// analyzeSpecialFinally handles a catch-all handler that drops the exception
// and continues at code every exit of the try body also reaches, i.e. a
// finally that ends with a return, break or throw.
func (m *method) analyzeSpecialFinally(tryFlow, catchFlow *FlowBlock, end int) (bool, error) {
	first := catchFlow.block
	if first.Kind == Sequential {
		first = first.subs[0]
	}
	pop, ok := instrExpr(first).(*expr.Pop)
	if !ok || pop.Count != 1 || pop.Value != nil {
		return false, nil
	}
	var succ *FlowBlock
	if first.jump != nil {
		succ = first.jump.dest
	}
	for _, dest := range tryFlow.Successors() {
		if dest == succ {
			continue
		}
		if !dest.IsEnd() {
			return false, nil
		}
		for _, j := range tryFlow.jumpsTo(dest) {
			if j.prev.Kind != Throw {
				return false, nil
			}
		}
	}

	first.RemoveBlock()
	catchFlow.fixLastModified()
	if succ != nil {
		jumps := tryFlow.removeJumpsTo(succ)
		tryFlow.updateInOut(succ, jumps, true)
		o := newOptimizer(tryFlow, succ, tryFlow.block.subs[0])
		remaining := o.run(jumps)
		inner := o.sb
		o.resolve(remaining)
		if inner.jump != nil && inner.jump.dest == succ {
			inner.RemoveJump()
		}
	}
	tryFlow.grow(catchFlow)

	tryBlock := unnestTry(tryFlow)
	fin := newFinally()
	tryBlock.addSub(fin)
	root := catchFlow.block
	if succ != nil && len(succ.preds) == 1 && succ.preds[0] == catchFlow &&
		root.Kind == Empty && root.jump != nil && root.jump.dest == succ {
		if _, err := succ.analyze(catchFlow.NextAddr(), end); err != nil {
			return true, err
		}
		catchFlow.removeAllSuccessors()
		catchFlow.merged = true
		fin.setSub(0, succ.block)
		tryFlow.mergeSuccessors(succ)
		tryFlow.grow(succ)
		return true, nil
	}
	fin.setSub(0, root)
	tryFlow.mergeSuccessors(catchFlow)
	return true, nil
}
