package flow

import (
	"fmt"
	"sort"

	"github.com/ludo-technologies/bcflow/internal/bytecode"
	"github.com/ludo-technologies/bcflow/internal/expr"
)

// reachable returns the addresses of the blocks reachable from the entry or
// from an exception handler.
func (m *method) reachable() map[int]bool {
	byAddr := make(map[int]*bytecode.BasicBlock, len(m.src.Blocks))
	for _, bb := range m.src.Blocks {
		byAddr[bb.Addr] = bb
	}
	seen := make(map[int]bool)
	var work []int
	push := func(addr int) {
		if _, ok := byAddr[addr]; ok && !seen[addr] {
			seen[addr] = true
			work = append(work, addr)
		}
	}
	push(m.src.Entry().Addr)
	for _, h := range m.src.Handlers {
		push(h.Handler)
	}
	for len(work) > 0 {
		addr := work[len(work)-1]
		work = work[:len(work)-1]
		for _, t := range byAddr[addr].End.Targets() {
			push(t)
		}
	}
	return seen
}

// build creates one flow block per reachable basic block, holding the
// block's statements and the jumps of its terminator.
func (m *method) build() error {
	reach := m.reachable()
	m.end = newFlowBlock(m, endAddr, 0)
	m.end.setBlock(newEmpty())
	for _, bb := range m.src.Blocks {
		if !reach[bb.Addr] {
			m.log.Debugw("dropping unreachable block", "addr", bb.Addr)
			continue
		}
		f := newFlowBlock(m, bb.Addr, bb.Length)
		m.flows[bb.Addr] = f
		m.order = append(m.order, f)
	}
	sort.Slice(m.order, func(i, j int) bool { return m.order[i].Addr < m.order[j].Addr })
	m.entry = m.flows[m.src.Entry().Addr]
	m.stats.Regions = len(m.order)

	for _, bb := range m.src.Blocks {
		if f := m.flows[bb.Addr]; f != nil {
			if err := m.buildFlow(f, bb); err != nil {
				return err
			}
		}
	}
	return nil
}

// liveness tracks the reads and writes of one basic block. A read of a slot
// written earlier in the block is the same variable as that write.
type liveness struct {
	in      *VariableSet
	reads   map[int]*expr.Local
	written map[int]*expr.Local
}

func newLiveness(locals *expr.Locals) *liveness {
	return &liveness{
		in:      NewVariableSet(locals),
		reads:   make(map[int]*expr.Local),
		written: make(map[int]*expr.Local),
	}
}

func (lv *liveness) read(l *expr.Local) {
	if w := lv.written[l.Slot]; w != nil {
		w.Combine(l)
		return
	}
	if r := lv.reads[l.Slot]; r != nil {
		r.Combine(l)
		return
	}
	lv.reads[l.Slot] = l
	lv.in.AddLocal(l)
}

func (lv *liveness) expr(e expr.Expr) {
	for _, l := range expr.Reads(e) {
		lv.read(l)
	}
	if w := expr.Writes(e); w != nil {
		lv.written[w.Slot] = w
	}
}

func (lv *liveness) gen(locals *expr.Locals) *VariableSet {
	gen := NewVariableSet(locals)
	for _, l := range lv.written {
		gen.AddLocal(l)
	}
	return gen
}

// blockBuilder assembles the statements and pending jumps of one flow block.
type blockBuilder struct {
	m     *method
	bb    *bytecode.BasicBlock
	lv    *liveness
	stmts []*Block
	jumps []*Jump
}

func (m *method) buildFlow(f *FlowBlock, bb *bytecode.BasicBlock) error {
	b := &blockBuilder{m: m, bb: bb, lv: newLiveness(m.locals)}
	for i, n := range bb.Code {
		if n.IsSpecial() {
			count := n.Count
			if count == 0 {
				count = 1
			}
			b.stmts = append(b.stmts, &Block{Kind: Special, Op: n.Special, Count: count, Depth: n.Depth})
			continue
		}
		e, err := b.lower(n)
		if err != nil {
			return inconsistency(bb.Addr, "instruction %d: %v", i, err)
		}
		b.stmts = append(b.stmts, newInstruction(e))
	}
	if err := b.terminate(); err != nil {
		return err
	}

	root := sequence(b.stmts)
	f.setBlock(root)
	f.in = b.lv.in
	f.gen = b.lv.gen(m.locals)
	for _, j := range b.jumps {
		f.addSuccessor(j)
	}
	return nil
}

func (b *blockBuilder) lower(n *bytecode.Node) (expr.Expr, error) {
	e, err := bytecode.Lower(n, b.m.locals)
	if err != nil {
		return nil, err
	}
	b.lv.expr(e)
	return e, nil
}

// jumpTo creates the jump to the block at addr and attaches it to owner. A
// missing destination gets a Description in front of the terminator and
// leaves the method.
func (b *blockBuilder) jumpTo(owner *Block, addr int) {
	dest := b.m.flows[addr]
	if addr == endAddr {
		dest = b.m.end
	} else if dest == nil {
		if addr != b.m.src.End() || b.bb.End.Kind != bytecode.Next {
			msg := fmt.Sprintf("jump to %d has no destination block", addr)
			b.m.diag(IllegalEdgeTopology, b.bb.Addr, msg)
			b.stmts = append(b.stmts, newDescription(msg))
		}
		dest = b.m.end
	}
	gen := b.lv.gen(b.m.locals)
	j := newJump(dest, gen, gen.Clone())
	owner.jump = j
	j.prev = owner
	b.jumps = append(b.jumps, j)
}

func (b *blockBuilder) terminate() error {
	t := b.bb.End
	switch t.Kind {
	case bytecode.Next, bytecode.Goto:
		var last *Block
		if n := len(b.stmts); n > 0 {
			last = b.stmts[n-1]
			b.stmts = b.stmts[:n-1]
		} else {
			last = newEmpty()
		}
		b.jumpTo(last, t.Target)
		b.stmts = append(b.stmts, last)

	case bytecode.If:
		cond, err := b.lower(t.Cond)
		if err != nil {
			return inconsistency(b.bb.Addr, "condition: %v", err)
		}
		cb := &Block{Kind: Conditional, Expr: cond}
		tb := newEmpty()
		cb.setSub(0, tb)
		b.jumpTo(tb, t.Target)
		b.jumpTo(cb, t.Next)
		b.stmts = append(b.stmts, cb)

	case bytecode.Switch:
		sel, err := b.lower(t.Value)
		if err != nil {
			return inconsistency(b.bb.Addr, "switch selector: %v", err)
		}
		b.stmts = append(b.stmts, b.buildSwitch(sel))

	case bytecode.Return:
		var value expr.Expr
		if t.Value != nil {
			v, err := b.lower(t.Value)
			if err != nil {
				return inconsistency(b.bb.Addr, "return value: %v", err)
			}
			value = v
		}
		ret := newReturn(value)
		b.jumpTo(ret, endAddr)
		b.stmts = append(b.stmts, ret)

	case bytecode.Throw:
		v, err := b.lower(t.Value)
		if err != nil {
			return inconsistency(b.bb.Addr, "thrown value: %v", err)
		}
		thr := &Block{Kind: Throw, Expr: v}
		b.jumpTo(thr, endAddr)
		b.stmts = append(b.stmts, thr)

	case bytecode.Jsr:
		jsr := &Block{Kind: Jsr}
		call := newEmpty()
		jsr.setSub(0, call)
		b.jumpTo(call, t.Target)
		b.jumpTo(jsr, t.Next)
		b.stmts = append(b.stmts, jsr)

	case bytecode.Ret:
		l := b.m.locals.New(t.Slot)
		b.lv.read(l)
		b.stmts = append(b.stmts, &Block{Kind: Ret, Local: l})

	default:
		return inconsistency(b.bb.Addr, "unknown terminator %q", t.Kind)
	}
	return nil
}

// buildSwitch creates one case per label, ordered by target. Labels sharing a
// target are stacked; only the last of them has a body jumping there.
func (b *blockBuilder) buildSwitch(sel expr.Expr) *Block {
	type label struct {
		value     string
		isDefault bool
		target    int
	}
	t := b.bb.End
	labels := make([]label, 0, len(t.Cases)+1)
	for _, c := range t.Cases {
		labels = append(labels, label{value: c.Value, target: c.Target})
	}
	labels = append(labels, label{isDefault: true, target: t.Default})
	sort.SliceStable(labels, func(i, j int) bool { return labels[i].target < labels[j].target })

	sw := newSwitch(sel)
	for i, l := range labels {
		c := newCase(l.value, l.isDefault)
		if i == len(labels)-1 || labels[i+1].target != l.target {
			body := newEmpty()
			c.setSub(0, body)
			b.jumpTo(body, l.target)
		}
		sw.addSub(c)
	}
	sw.subs[len(sw.subs)-1].IsLastBlock = true
	return sw
}

// sequence nests stmts to the right: Seq(s0, Seq(s1, ...)).
func sequence(stmts []*Block) *Block {
	if len(stmts) == 0 {
		return newEmpty()
	}
	root := stmts[len(stmts)-1]
	for i := len(stmts) - 2; i >= 0; i-- {
		seq := newSequential()
		seq.setSub(0, stmts[i])
		seq.setSub(1, root)
		root = seq
	}
	return root
}
