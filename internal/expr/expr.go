// Package expr holds the opaque expression leaves carried by structured blocks.
// The structuring engine only pattern-matches a handful of shapes (loads,
// stores, pops, monitor operations and values on the operand stack); everything
// else is rendered and otherwise left alone.
package expr

import (
	"fmt"
	"strings"
)

// Expr is an expression leaf.
type Expr interface {
	// String renders the expression in Java-like syntax.
	String() string
	// Void reports whether the expression leaves no value.
	Void() bool
}

// Const is a literal.
type Const struct {
	Value string
}

func (c *Const) String() string { return c.Value }
func (c *Const) Void() bool     { return false }

// True and False are the boolean literals used for loop conditions.
func True() *Const  { return &Const{Value: "true"} }
func False() *Const { return &Const{Value: "false"} }

// Load reads a local variable.
type Load struct {
	Local *Local
}

func (l *Load) String() string { return l.Local.String() }
func (l *Load) Void() bool     { return false }

// Store writes Value into a local variable.
type Store struct {
	Local *Local
	Value Expr
}

func (s *Store) String() string { return s.Local.String() + " = " + s.Value.String() }
func (s *Store) Void() bool     { return true }

// Stack is the value on top of the operand stack, e.g. the caught exception at
// a handler entry.
type Stack struct{}

func (s *Stack) String() string { return "POP" }
func (s *Stack) Void() bool     { return false }

// Pop discards Count stack words. Value is the popped expression when known.
type Pop struct {
	Count int
	Value Expr
}

func (p *Pop) String() string {
	if p.Value != nil {
		return p.Value.String()
	}
	if p.Count == 2 {
		return "pop2"
	}
	return "pop"
}
func (p *Pop) Void() bool { return true }

// MonitorEnter locks Object.
type MonitorEnter struct {
	Object Expr
}

func (m *MonitorEnter) String() string { return "MONITORENTER " + m.Object.String() }
func (m *MonitorEnter) Void() bool     { return true }

// MonitorExit unlocks Object.
type MonitorExit struct {
	Object Expr
}

func (m *MonitorExit) String() string { return "MONITOREXIT " + m.Object.String() }
func (m *MonitorExit) Void() bool     { return true }

// Invoke is a method call.
type Invoke struct {
	Method string
	Args   []Expr
	IsVoid bool
}

func (i *Invoke) String() string {
	args := make([]string, len(i.Args))
	for k, a := range i.Args {
		args[k] = a.String()
	}
	return fmt.Sprintf("%s(%s)", i.Method, strings.Join(args, ", "))
}
func (i *Invoke) Void() bool { return i.IsVoid }

// Binary is an arithmetic or short-circuit operator.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

func (b *Binary) String() string {
	return fmt.Sprintf("%s %s %s", paren(b.Left), b.Op, paren(b.Right))
}
func (b *Binary) Void() bool { return false }

// Compare is a relational operator producing a boolean.
type Compare struct {
	Op    string
	Left  Expr
	Right Expr
}

func (c *Compare) String() string {
	return fmt.Sprintf("%s %s %s", paren(c.Left), c.Op, paren(c.Right))
}
func (c *Compare) Void() bool { return false }

// Not is a boolean negation.
type Not struct {
	Operand Expr
}

func (n *Not) String() string { return "!" + paren(n.Operand) }
func (n *Not) Void() bool     { return false }

// Raw is an expression the engine does not interpret.
type Raw struct {
	Text   string
	IsVoid bool
	Reads  []*Local
}

func (r *Raw) String() string { return r.Text }
func (r *Raw) Void() bool     { return r.IsVoid }

func paren(e Expr) string {
	switch e.(type) {
	case *Binary, *Compare:
		return "(" + e.String() + ")"
	}
	return e.String()
}

var negatedOps = map[string]string{
	"==": "!=",
	"!=": "==",
	"<":  ">=",
	">=": "<",
	">":  "<=",
	"<=": ">",
}

// Negate returns the logical negation of cond, folding double negation,
// comparisons, boolean literals and De Morgan over && and ||.
func Negate(cond Expr) Expr {
	switch e := cond.(type) {
	case *Not:
		return e.Operand
	case *Compare:
		if op, ok := negatedOps[e.Op]; ok {
			return &Compare{Op: op, Left: e.Left, Right: e.Right}
		}
	case *Const:
		switch e.Value {
		case "true":
			return False()
		case "false":
			return True()
		}
	case *Binary:
		switch e.Op {
		case "&&":
			return &Binary{Op: "||", Left: Negate(e.Left), Right: Negate(e.Right)}
		case "||":
			return &Binary{Op: "&&", Left: Negate(e.Left), Right: Negate(e.Right)}
		}
	}
	return &Not{Operand: cond}
}

// IsTrue reports whether e is the literal true.
func IsTrue(e Expr) bool {
	c, ok := e.(*Const)
	return ok && c.Value == "true"
}

// IsFalse reports whether e is the literal false.
func IsFalse(e Expr) bool {
	c, ok := e.(*Const)
	return ok && c.Value == "false"
}
