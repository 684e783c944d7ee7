package bytecode

import (
	"fmt"

	"github.com/ludo-technologies/bcflow/internal/expr"
)

// Node is one decoded instruction or operand. Exactly one of the shape fields is
// set; Value, Args, Left and Right carry operands.
type Node struct {
	Const        *string `yaml:"const,omitempty" json:"const,omitempty"`
	Load         *int    `yaml:"load,omitempty" json:"load,omitempty"`
	Store        *int    `yaml:"store,omitempty" json:"store,omitempty"`
	Value        *Node   `yaml:"value,omitempty" json:"value,omitempty"`
	Stack        bool    `yaml:"stack,omitempty" json:"stack,omitempty"`
	Pop          int     `yaml:"pop,omitempty" json:"pop,omitempty"`
	MonitorEnter *Node   `yaml:"monitorenter,omitempty" json:"monitorenter,omitempty"`
	MonitorExit  *Node   `yaml:"monitorexit,omitempty" json:"monitorexit,omitempty"`
	Call         string  `yaml:"call,omitempty" json:"call,omitempty"`
	Args         []*Node `yaml:"args,omitempty" json:"args,omitempty"`
	Void         bool    `yaml:"void,omitempty" json:"void,omitempty"`
	Op           string  `yaml:"op,omitempty" json:"op,omitempty"`
	Left         *Node   `yaml:"left,omitempty" json:"left,omitempty"`
	Right        *Node   `yaml:"right,omitempty" json:"right,omitempty"`
	Not          *Node   `yaml:"not,omitempty" json:"not,omitempty"`
	Raw          string  `yaml:"raw,omitempty" json:"raw,omitempty"`
	Special      string  `yaml:"special,omitempty" json:"special,omitempty"`
	Count        int     `yaml:"count,omitempty" json:"count,omitempty"`
	Depth        int     `yaml:"depth,omitempty" json:"depth,omitempty"`
}

var relational = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

// IsSpecial reports whether n is a stack manipulation (dup, swap, pop) kept as
// a block of its own rather than an expression.
func (n *Node) IsSpecial() bool {
	return n != nil && n.Special != ""
}

// Lower converts n to an expression leaf. Every load and store gets a fresh
// local occurrence from locals.
func Lower(n *Node, locals *expr.Locals) (expr.Expr, error) {
	if n == nil {
		return nil, fmt.Errorf("missing operand")
	}
	switch {
	case n.Const != nil:
		return &expr.Const{Value: *n.Const}, nil
	case n.Load != nil:
		return &expr.Load{Local: locals.New(*n.Load)}, nil
	case n.Store != nil:
		v, err := Lower(n.Value, locals)
		if err != nil {
			return nil, fmt.Errorf("store %d: %w", *n.Store, err)
		}
		return &expr.Store{Local: locals.New(*n.Store), Value: v}, nil
	case n.Stack:
		return &expr.Stack{}, nil
	case n.Pop > 0:
		p := &expr.Pop{Count: n.Pop}
		if n.Value != nil {
			v, err := Lower(n.Value, locals)
			if err != nil {
				return nil, err
			}
			p.Value = v
		}
		return p, nil
	case n.MonitorEnter != nil:
		obj, err := Lower(n.MonitorEnter, locals)
		if err != nil {
			return nil, err
		}
		return &expr.MonitorEnter{Object: obj}, nil
	case n.MonitorExit != nil:
		obj, err := Lower(n.MonitorExit, locals)
		if err != nil {
			return nil, err
		}
		return &expr.MonitorExit{Object: obj}, nil
	case n.Call != "":
		call := &expr.Invoke{Method: n.Call, IsVoid: n.Void}
		for _, a := range n.Args {
			arg, err := Lower(a, locals)
			if err != nil {
				return nil, fmt.Errorf("call %s: %w", n.Call, err)
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil
	case n.Op != "":
		l, err := Lower(n.Left, locals)
		if err != nil {
			return nil, fmt.Errorf("operator %s: %w", n.Op, err)
		}
		r, err := Lower(n.Right, locals)
		if err != nil {
			return nil, fmt.Errorf("operator %s: %w", n.Op, err)
		}
		if relational[n.Op] {
			return &expr.Compare{Op: n.Op, Left: l, Right: r}, nil
		}
		return &expr.Binary{Op: n.Op, Left: l, Right: r}, nil
	case n.Not != nil:
		operand, err := Lower(n.Not, locals)
		if err != nil {
			return nil, err
		}
		return &expr.Not{Operand: operand}, nil
	case n.Raw != "":
		return &expr.Raw{Text: n.Raw, IsVoid: n.Void}, nil
	}
	return nil, fmt.Errorf("empty instruction node")
}
