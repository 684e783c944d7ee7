package expr

// Children returns the direct operands of e in evaluation order.
func Children(e Expr) []Expr {
	switch x := e.(type) {
	case *Store:
		return []Expr{x.Value}
	case *Pop:
		if x.Value != nil {
			return []Expr{x.Value}
		}
	case *MonitorEnter:
		return []Expr{x.Object}
	case *MonitorExit:
		return []Expr{x.Object}
	case *Invoke:
		return x.Args
	case *Binary:
		return []Expr{x.Left, x.Right}
	case *Compare:
		return []Expr{x.Left, x.Right}
	case *Not:
		return []Expr{x.Operand}
	}
	return nil
}

// Reads returns the locals loaded by e, in evaluation order.
func Reads(e Expr) []*Local {
	if e == nil {
		return nil
	}
	var out []*Local
	var walk func(Expr)
	walk = func(e Expr) {
		switch x := e.(type) {
		case *Load:
			out = append(out, x.Local)
			return
		case *Raw:
			out = append(out, x.Reads...)
			return
		}
		for _, c := range Children(e) {
			walk(c)
		}
	}
	walk(e)
	return out
}

// Writes returns the local stored by e, or nil.
func Writes(e Expr) *Local {
	if s, ok := e.(*Store); ok {
		return s.Local
	}
	return nil
}

// Uses returns every local referenced by e, loads first, then the store target.
func Uses(e Expr) []*Local {
	out := Reads(e)
	if w := Writes(e); w != nil {
		out = append(out, w)
	}
	return out
}

// IsPure reports whether evaluating e has no side effect.
func IsPure(e Expr) bool {
	switch x := e.(type) {
	case *Const, *Load:
		return true
	case *Binary:
		return IsPure(x.Left) && IsPure(x.Right)
	case *Compare:
		return IsPure(x.Left) && IsPure(x.Right)
	case *Not:
		return IsPure(x.Operand)
	}
	return false
}

// IsStack reports whether e is the operand-stack placeholder.
func IsStack(e Expr) bool {
	_, ok := e.(*Stack)
	return ok
}

// IsMonitorExitOf reports whether e releases the monitor held in a local
// sharing slot with l.
func IsMonitorExitOf(e Expr, l *Local) bool {
	m, ok := e.(*MonitorExit)
	if !ok {
		return false
	}
	ld, ok := m.Object.(*Load)
	return ok && ld.Local.Slot == l.Slot
}

// IsIncrement reports whether e stores into a local the result of adding to or
// subtracting from the same slot, e.g. i = i + 1.
func IsIncrement(e Expr) (*Local, bool) {
	s, ok := e.(*Store)
	if !ok {
		return nil, false
	}
	b, ok := s.Value.(*Binary)
	if !ok || (b.Op != "+" && b.Op != "-") {
		return nil, false
	}
	ld, ok := b.Left.(*Load)
	if !ok || ld.Local.Slot != s.Local.Slot {
		return nil, false
	}
	return s.Local, true
}
