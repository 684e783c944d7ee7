package flow

import "github.com/ludo-technologies/bcflow/internal/expr"

// NextBlock returns the structured block control reaches when b completes
// normally, or nil when that is a flow block (see NextFlowBlock).
func (b *Block) NextBlock() *Block {
	if b.jump != nil {
		return nil
	}
	switch b.Kind {
	case Break:
		return b.Target.NextBlock()
	case Continue:
		return b.Target
	}
	if b.outer != nil {
		return b.outer.nextBlockOf(b)
	}
	return nil
}

// NextFlowBlock returns the flow block control reaches when b completes
// normally, or nil when it stays inside the structured tree.
func (b *Block) NextFlowBlock() *FlowBlock {
	if b.jump != nil {
		return b.jump.dest
	}
	switch b.Kind {
	case Break:
		return b.Target.NextFlowBlock()
	case Continue:
		return nil
	}
	if b.outer != nil {
		return b.outer.nextFlowBlockOf(b)
	}
	return nil
}

func (b *Block) nextBlockOf(sub *Block) *Block {
	switch b.Kind {
	case Sequential:
		if sub == b.subs[0] {
			return b.subs[1]
		}
	case Loop:
		return b
	case Switch:
		if i := b.indexOf(sub); i >= 0 && i+1 < len(b.subs) {
			return b.subs[i+1]
		}
	case Finally:
		return nil
	}
	return b.NextBlock()
}

func (b *Block) nextFlowBlockOf(sub *Block) *FlowBlock {
	switch b.Kind {
	case Sequential:
		if sub == b.subs[0] {
			return nil
		}
	case Loop, Finally:
		return nil
	case Switch:
		if i := b.indexOf(sub); i >= 0 && i+1 < len(b.subs) {
			return b.caseFallthrough(i + 1)
		}
	}
	return b.NextFlowBlock()
}

// caseFallthrough returns where control goes when it falls into case i: the
// destination of a body that only jumps, nil for a real body.
func (b *Block) caseFallthrough(i int) *FlowBlock {
	for ; i < len(b.subs); i++ {
		body := b.subs[i].Body()
		if body == nil {
			continue
		}
		if body.Kind == Empty && body.jump != nil {
			return body.jump.dest
		}
		return nil
	}
	return b.NextFlowBlock()
}

func (b *Block) indexOf(sub *Block) int {
	for i, s := range b.subs {
		if s == sub {
			return i
		}
	}
	return -1
}

// JumpMayBeChanged reports whether b never completes normally, so a jump can
// be attached to it without changing behaviour.
func (b *Block) JumpMayBeChanged() bool {
	exits := func(s *Block) bool {
		return s != nil && (s.jump != nil || s.JumpMayBeChanged())
	}
	switch b.Kind {
	case Sequential:
		return exits(b.subs[1])
	case Loop:
		return (b.LoopKind == While || b.LoopKind == PossibleFor) && expr.IsTrue(b.Expr) && !b.broken
	case Switch:
		if b.broken || len(b.subs) == 0 {
			return false
		}
		return exits(b.subs[len(b.subs)-1].Body())
	case IfThenElse:
		return exits(b.Then()) && exits(b.Else())
	case Try, Catch, Finally, Synchronized:
		for _, s := range b.subs {
			if !exits(s) {
				return false
			}
		}
		return true
	case Return, Throw, Break, Continue:
		return true
	}
	return false
}

// IsSingleExit reports whether a jump at the end of sub may move to b.
func (b *Block) IsSingleExit(sub *Block) bool {
	return b.Kind == Sequential && b.subs[1] == sub
}

// Contains reports whether x is b or lies inside b.
func (b *Block) Contains(x *Block) bool {
	for ; x != nil; x = x.outer {
		if x == b {
			return true
		}
	}
	return false
}

// ReplaceSubBlock puts nb where old was among b's children.
func (b *Block) ReplaceSubBlock(old, nb *Block) bool {
	for i, s := range b.subs {
		if s == old {
			b.subs[i] = nb
			return true
		}
	}
	return false
}

// Replace puts b where old is in the tree. old is detached.
func (b *Block) Replace(old *Block) {
	b.outer = old.outer
	if old.flow != nil {
		b.setFlow(old.flow)
	}
	if b.outer != nil {
		b.outer.ReplaceSubBlock(old, b)
	} else if old.flow != nil && old.flow.block == old {
		old.flow.block = b
	}
	old.outer = nil
}

// ReplaceWithSub replaces old by b, keeping sub (a child of old) as b's child
// at index i.
func (b *Block) ReplaceWithSub(old, sub *Block, i int) {
	b.Replace(old)
	b.setSub(i, sub)
}

// SetJump attaches j to b and registers it with b's flow block.
func (b *Block) SetJump(j *Jump) {
	if b.jump != nil {
		b.RemoveJump()
	}
	b.jump = j
	j.prev = b
	if b.flow != nil {
		b.flow.addSuccessor(j)
	}
}

// RemoveJump drops b's jump from the flow graph.
func (b *Block) RemoveJump() {
	if b.jump == nil {
		return
	}
	j := b.jump
	b.jump = nil
	if b.flow != nil {
		b.flow.removeSuccessor(j)
	}
	j.prev = nil
}

// MoveJump takes over j from its current owner.
func (b *Block) MoveJump(j *Jump) {
	if j == nil || j.prev == b {
		return
	}
	if b.jump != nil {
		b.RemoveJump()
	}
	if j.prev != nil {
		j.prev.jump = nil
	}
	b.jump = j
	j.prev = b
}

// SwapJump exchanges the jumps of b and other.
func (b *Block) SwapJump(other *Block) {
	b.jump, other.jump = other.jump, b.jump
	if b.jump != nil {
		b.jump.prev = b
	}
	if other.jump != nil {
		other.jump.prev = other
	}
}

// AppendBlock sequences next after b. Appending to a Sequential recurses into
// its second block so that first blocks never become Sequential.
func (b *Block) AppendBlock(next *Block) {
	if b.Kind == Sequential {
		if b.jump != nil {
			second := b.subs[1]
			if second.jump == nil {
				second.MoveJump(b.jump)
			} else {
				b.RemoveJump()
			}
		}
		b.subs[1].AppendBlock(next)
		return
	}
	seq := newSequential()
	seq.Replace(b)
	seq.setSub(0, b)
	seq.setSub(1, next)
}

// PrependBlock sequences prev before b. When b starts a sequence, prev goes in
// front of that sequence.
func (b *Block) PrependBlock(prev *Block) {
	for b.outer != nil && b.outer.Kind == Sequential && b.outer.subs[0] == b {
		b = b.outer
	}
	seq := newSequential()
	seq.Replace(b)
	seq.setSub(0, prev)
	seq.setSub(1, b)
}

// RemoveBlock deletes b from the tree. Inside a Sequential the sibling takes
// the place of the sequence; elsewhere b becomes Empty. A jump of b survives
// on the replacement when possible.
func (b *Block) RemoveBlock() {
	f := b.flow
	if seq := b.outer; seq != nil && seq.Kind == Sequential {
		var keep *Block
		if seq.subs[1] == b {
			keep = seq.subs[0]
			if b.jump != nil {
				if keep.jump == nil {
					keep.MoveJump(b.jump)
				} else {
					b.RemoveJump()
				}
			}
		} else {
			keep = seq.subs[1]
			b.RemoveJump()
		}
		if seq.jump != nil {
			if keep.jump == nil {
				keep.MoveJump(seq.jump)
			} else {
				seq.RemoveJump()
			}
		}
		keep.Replace(seq)
		if f != nil && (f.lastModified == seq || b.Contains(f.lastModified)) {
			f.lastModified = keep
		}
		return
	}
	eb := newEmpty()
	if b.jump != nil {
		eb.MoveJump(b.jump)
	}
	eb.Replace(b)
	if f != nil && b.Contains(f.lastModified) {
		f.lastModified = eb
	}
}

// MoveDefinitions moves the declarations of from and its subtree, except the
// ones inside sub, to b.
func (b *Block) MoveDefinitions(from, sub *Block) {
	if from == nil || from == sub {
		return
	}
	if from.declare != nil {
		if b.declare == nil {
			b.declare = from.declare.Clone()
		} else {
			b.declare.UnionExact(from.declare)
		}
		from.declare = nil
	}
	for _, s := range from.subs {
		if s != nil && s != sub {
			b.MoveDefinitions(s, sub)
		}
	}
}

// seqPrev returns the statement executed right before b in its sequence.
func seqPrev(b *Block) *Block {
	seq := b.outer
	if seq == nil || seq.Kind != Sequential {
		return nil
	}
	if seq.subs[1] == b {
		return seq.subs[0]
	}
	if up := seq.outer; up != nil && up.Kind == Sequential && up.subs[1] == seq {
		return up.subs[0]
	}
	return nil
}

// isTail reports whether b completes its flow block's root when it completes.
func isTail(b *Block) bool {
	for ; b.outer != nil; b = b.outer {
		if !b.outer.IsSingleExit(b) {
			return false
		}
	}
	return true
}
