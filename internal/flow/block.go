package flow

import (
	"github.com/ludo-technologies/bcflow/internal/expr"
)

// BlockKind identifies the variant of a structured block.
type BlockKind int

const (
	// Sequential runs subs[0] then subs[1]; subs[0] is never Sequential.
	Sequential BlockKind = iota
	// Conditional jumps through its Empty true block when Expr holds.
	Conditional
	// IfThenElse runs subs[0] when Expr holds, subs[1] (if any) otherwise.
	IfThenElse
	// Loop repeats subs[0]; see LoopKind.
	Loop
	// Switch dispatches over its Case subs.
	Switch
	// Case is one switch label with an optional body.
	Case
	// Try protects subs[0]; the other subs are Catch and Finally blocks.
	Try
	Catch
	Finally
	Synchronized
	Break
	Continue
	Return
	Throw
	// Instruction evaluates Expr.
	Instruction
	Empty
	// Special is a raw stack operation (dup, swap, pop).
	Special
	// Jsr calls a subroutine through the jump of its Empty sub.
	Jsr
	Ret
	// Description is an inline diagnostic placeholder.
	Description
)

var blockKindNames = [...]string{
	Sequential:   "Sequential",
	Conditional:  "Conditional",
	IfThenElse:   "IfThenElse",
	Loop:         "Loop",
	Switch:       "Switch",
	Case:         "Case",
	Try:          "Try",
	Catch:        "Catch",
	Finally:      "Finally",
	Synchronized: "Synchronized",
	Break:        "Break",
	Continue:     "Continue",
	Return:       "Return",
	Throw:        "Throw",
	Instruction:  "Instruction",
	Empty:        "Empty",
	Special:      "Special",
	Jsr:          "Jsr",
	Ret:          "Ret",
	Description:  "Description",
}

// String returns the name of the kind.
func (k BlockKind) String() string {
	if k >= 0 && int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return "Unknown"
}

// LoopKind distinguishes loop shapes.
type LoopKind int

const (
	While LoopKind = iota
	DoWhile
	For
	// PossibleFor is a while loop with a trailing increment still waiting for
	// a matching initializer.
	PossibleFor
)

// String returns the Java keyword of the loop kind.
func (k LoopKind) String() string {
	switch k {
	case While:
		return "while"
	case DoWhile:
		return "do"
	case For, PossibleFor:
		return "for"
	default:
		return "loop"
	}
}

// Block is a node of the structured tree. Kind selects the variant; the
// payload fields that matter depend on it.
type Block struct {
	Kind BlockKind

	// Expr is the instruction, condition, selector, returned/thrown value or
	// locked object, depending on Kind.
	Expr expr.Expr

	// Loop payload.
	LoopKind LoopKind
	Init     expr.Expr
	Incr     expr.Expr

	// Case payload.
	Value       string
	IsDefault   bool
	IsLastBlock bool

	// Break and Continue payload.
	Target   *Block
	Labelled bool

	// Catch type; Local is the bound exception, the monitor of a
	// Synchronized block or the return address of a Ret.
	ExceptionType string
	Local         *expr.Local
	Entered       bool

	// Special payload.
	Op    string
	Count int
	Depth int

	// Description text.
	Text string

	outer   *Block
	flow    *FlowBlock
	jump    *Jump
	subs    []*Block
	used    *VariableSet
	declare *VariableSet

	label  string
	broken bool
	// gen of a Try: variables possibly written by the protected body.
	gen *VariableSet
}

func newBlock(kind BlockKind) *Block {
	return &Block{Kind: kind}
}

func newEmpty() *Block {
	return newBlock(Empty)
}

func newInstruction(e expr.Expr) *Block {
	return &Block{Kind: Instruction, Expr: e}
}

func newSequential() *Block {
	return &Block{Kind: Sequential, subs: make([]*Block, 2)}
}

// newConditional creates a Conditional whose true block carries j.
func newConditional(cond expr.Expr, j *Jump) *Block {
	cb := &Block{Kind: Conditional, Expr: cond, subs: make([]*Block, 1)}
	tb := newEmpty()
	cb.setSub(0, tb)
	tb.jump = j
	j.prev = tb
	return cb
}

func newIfThenElse(cond expr.Expr) *Block {
	return &Block{Kind: IfThenElse, Expr: cond, subs: make([]*Block, 1)}
}

func newLoop(kind LoopKind, cond expr.Expr) *Block {
	return &Block{Kind: Loop, LoopKind: kind, Expr: cond, subs: make([]*Block, 1)}
}

func newSwitch(selector expr.Expr) *Block {
	return &Block{Kind: Switch, Expr: selector}
}

func newCase(value string, isDefault bool) *Block {
	return &Block{Kind: Case, Value: value, IsDefault: isDefault}
}

func newBreak(target *Block, labelled bool) *Block {
	target.broken = true
	return &Block{Kind: Break, Target: target, Labelled: labelled}
}

func newContinue(target *Block, labelled bool) *Block {
	return &Block{Kind: Continue, Target: target, Labelled: labelled}
}

func newReturn(value expr.Expr) *Block {
	return &Block{Kind: Return, Expr: value}
}

func newCatch(excType string, local *expr.Local) *Block {
	return &Block{Kind: Catch, ExceptionType: excType, Local: local, subs: make([]*Block, 1)}
}

func newFinally() *Block {
	return &Block{Kind: Finally, subs: make([]*Block, 1)}
}

func newSynchronized(local *expr.Local) *Block {
	return &Block{Kind: Synchronized, Local: local, subs: make([]*Block, 1)}
}

func newDescription(text string) *Block {
	return &Block{Kind: Description, Text: text}
}

// Outer returns the enclosing block, or nil for the root of a flow block.
func (b *Block) Outer() *Block { return b.outer }

// Flow returns the flow block owning b.
func (b *Block) Flow() *FlowBlock { return b.flow }

// Jump returns the pending jump at the end of b, or nil.
func (b *Block) Jump() *Jump { return b.jump }

// SubBlocks returns the direct children of b.
func (b *Block) SubBlocks() []*Block {
	out := make([]*Block, 0, len(b.subs))
	for _, s := range b.subs {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Used returns the variables used by b as computed by PropagateUsage.
func (b *Block) Used() *VariableSet { return b.used }

// Declarations returns the variables declared at b by MakeDeclaration.
func (b *Block) Declarations() *VariableSet { return b.declare }

// Then returns the then branch of an IfThenElse.
func (b *Block) Then() *Block { return b.sub(0) }

// Else returns the else branch of an IfThenElse, or nil.
func (b *Block) Else() *Block { return b.sub(1) }

// Body returns the body of a Loop, Case, Catch, Finally, Synchronized or Try.
func (b *Block) Body() *Block { return b.sub(0) }

func (b *Block) sub(i int) *Block {
	if i < len(b.subs) {
		return b.subs[i]
	}
	return nil
}

func (b *Block) setSub(i int, s *Block) {
	for len(b.subs) <= i {
		b.subs = append(b.subs, nil)
	}
	b.subs[i] = s
	if s == nil {
		return
	}
	s.outer = b
	if b.flow != nil {
		s.setFlow(b.flow)
	}
}

func (b *Block) addSub(s *Block) {
	b.setSub(len(b.subs), s)
}

func (b *Block) setFlow(f *FlowBlock) {
	b.flow = f
	for _, s := range b.subs {
		if s != nil {
			s.setFlow(f)
		}
	}
}

// IsBreakable reports whether a break can target b.
func (b *Block) IsBreakable() bool {
	return b.Kind == Loop || b.Kind == Switch
}

// Label returns the label of a breakable block, assigning one on first use.
func (b *Block) Label() string {
	if b.label == "" && b.flow != nil {
		prefix := "loop"
		if b.Kind == Switch {
			prefix = "switch"
		}
		b.label = b.flow.method.names.label(prefix)
	}
	return b.label
}

// IsBroken reports whether some break targets b.
func (b *Block) IsBroken() bool { return b.broken }
