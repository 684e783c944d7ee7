package flow

import "github.com/pkg/errors"

// CheckConsistent verifies the tree invariants below b: parent and flow
// links, the shape of each kind, jump registration and break targets.
func (b *Block) CheckConsistent() error {
	for _, s := range b.subs {
		if s == nil {
			continue
		}
		if s.outer != b {
			return b.inconsistent("%s has a %s child whose parent link points elsewhere", b.Kind, s.Kind)
		}
		if s.flow != b.flow {
			return b.inconsistent("%s child of %s belongs to another flow block", s.Kind, b.Kind)
		}
		if err := s.CheckConsistent(); err != nil {
			return err
		}
	}

	switch b.Kind {
	case Sequential:
		if len(b.subs) != 2 || b.subs[0] == nil || b.subs[1] == nil {
			return b.inconsistent("sequence without two children")
		}
		if b.subs[0].Kind == Sequential {
			return b.inconsistent("sequence starts with a sequence")
		}
	case Conditional:
		tb := b.sub(0)
		if tb == nil || tb.Kind != Empty || tb.jump == nil {
			return b.inconsistent("conditional without a jumping true block")
		}
	case IfThenElse, Loop, Catch, Finally, Synchronized, Try:
		if b.sub(0) == nil {
			return b.inconsistent("%s without body", b.Kind)
		}
	case Break, Continue:
		if b.Target == nil || !b.Target.Contains(b) {
			return errors.WithStack(&Error{Kind: IllegalEdgeTopology, Addr: b.addr(),
				Msg: b.Kind.String() + " to a block that does not enclose it"})
		}
		if b.Kind == Continue && b.Target.Kind != Loop {
			return b.inconsistent("continue to a %s", b.Target.Kind)
		}
	}

	if j := b.jump; j != nil {
		if j.prev != b {
			return b.inconsistent("jump of %s points back to another block", b.Kind)
		}
		if b.flow != nil && !containsJump(b.flow.succs[j.dest], j) {
			return b.inconsistent("jump to %s is not registered", j.dest.Label())
		}
	}
	return nil
}

func (b *Block) addr() int {
	if b.flow != nil {
		return b.flow.Addr
	}
	return -1
}

func (b *Block) inconsistent(format string, args ...interface{}) error {
	return inconsistency(b.addr(), format, args...)
}

func containsJump(jumps []*Jump, j *Jump) bool {
	for _, x := range jumps {
		if x == j {
			return true
		}
	}
	return false
}

// CheckConsistent verifies f's tree and the symmetry of its edges.
func (f *FlowBlock) CheckConsistent() error {
	if f.block == nil {
		return inconsistency(f.Addr, "%s has no block", f.Label())
	}
	if f.block.outer != nil || f.block.flow != f {
		return inconsistency(f.Addr, "root of %s is not owned by it", f.Label())
	}
	if err := f.block.CheckConsistent(); err != nil {
		return errors.Wrapf(err, "checking %s", f.Label())
	}
	if f.lastModified != nil && !f.block.Contains(f.lastModified) {
		return inconsistency(f.Addr, "last modified block of %s left the tree", f.Label())
	}
	if len(f.succOrder) != len(f.succs) {
		return inconsistency(f.Addr, "successor order of %s out of sync", f.Label())
	}
	for _, dest := range f.succOrder {
		jumps := f.succs[dest]
		if len(jumps) == 0 {
			return inconsistency(f.Addr, "%s lists %s without jumps", f.Label(), dest.Label())
		}
		for _, j := range jumps {
			if j.prev == nil || j.prev.jump != j {
				return inconsistency(f.Addr, "stale jump from %s to %s", f.Label(), dest.Label())
			}
			if j.prev.flow != f {
				return inconsistency(f.Addr, "jump to %s registered with %s but owned elsewhere", dest.Label(), f.Label())
			}
			if !f.block.Contains(j.prev) {
				return inconsistency(f.Addr, "jump to %s leaves a detached block", dest.Label())
			}
		}
		if !dest.hasPred(f) {
			return inconsistency(f.Addr, "%s misses %s among its predecessors", dest.Label(), f.Label())
		}
	}
	for _, p := range f.preds {
		if len(p.succs[f]) == 0 {
			return inconsistency(f.Addr, "%s lists predecessor %s without jumps", f.Label(), p.Label())
		}
	}
	return nil
}
