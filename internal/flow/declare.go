package flow

import "github.com/ludo-technologies/bcflow/internal/expr"

// ownLocals returns the variables b itself references, not counting its
// children.
func (b *Block) ownLocals() []*expr.Local {
	var out []*expr.Local
	add := func(e expr.Expr) {
		if e != nil {
			out = append(out, expr.Uses(e)...)
		}
	}
	switch b.Kind {
	case Instruction, Conditional, IfThenElse, Switch, Return, Throw:
		add(b.Expr)
	case Loop:
		add(b.Expr)
		add(b.Init)
		add(b.Incr)
	case Synchronized:
		// the monitor copy disappears once the locked object is known
		if b.Expr != nil {
			add(b.Expr)
		} else if b.Local != nil {
			out = append(out, b.Local)
		}
	case Ret:
		if b.Local != nil {
			out = append(out, b.Local)
		}
	}
	return out
}

// PropagateUsage computes the used set of every block below b: its own
// variables plus those used by more than one of its children. It returns
// every variable used anywhere below b.
func (b *Block) PropagateUsage() *VariableSet {
	locals := b.flow.method.locals
	b.used = NewVariableSet(locals)
	for _, l := range b.ownLocals() {
		b.used.AddLocal(l)
	}
	all := b.used.Clone()
	for _, s := range b.subs {
		if s == nil {
			continue
		}
		child := s.PropagateUsage()
		b.used.UnionExact(child.IntersectExact(all))
		all.UnionExact(child)
	}
	return all
}

// MakeDeclaration declares at b the used variables not in done, then
// recurses. Each child sees done plus the declarations made above it.
func (b *Block) MakeDeclaration(done *VariableSet) {
	b.declare = b.used.Clone()
	b.declare.SubtractExact(done)
	inner := done.Clone()
	inner.UnionExact(b.declare)
	if b.Kind == Catch && b.Local != nil {
		b.declare.RemoveLocal(b.Local)
		inner.AddLocal(b.Local)
	}
	for _, s := range b.subs {
		if s != nil {
			s.MakeDeclaration(inner.Clone())
		}
	}
}
