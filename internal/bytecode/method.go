// Package bytecode describes the input of the structuring engine: methods made of
// basic blocks and an exception table, decoded from YAML or JSON method files.
package bytecode

import (
	"fmt"
	"sort"
)

// TerminatorKind names how a basic block ends.
type TerminatorKind string

const (
	// Next falls through to Target.
	Next TerminatorKind = "next"
	// Goto jumps unconditionally to Target.
	Goto TerminatorKind = "goto"
	// If jumps to Target when Cond holds and continues at Next otherwise.
	If TerminatorKind = "if"
	// Switch dispatches on Value over Cases and Default.
	Switch TerminatorKind = "switch"
	// Return leaves the method, with Value when present.
	Return TerminatorKind = "return"
	// Throw raises Value.
	Throw TerminatorKind = "throw"
	// Jsr calls the subroutine at Target and resumes at Next.
	Jsr TerminatorKind = "jsr"
	// Ret returns from a subroutine through the address stored in Slot.
	Ret TerminatorKind = "ret"
)

// File is one decoded method file.
type File struct {
	Class   string    `yaml:"class" json:"class"`
	Methods []*Method `yaml:"methods" json:"methods"`
}

// Method is a method body split into basic blocks.
type Method struct {
	Class      string         `yaml:"class,omitempty" json:"class,omitempty"`
	Name       string         `yaml:"name" json:"name"`
	MaxLocals  int            `yaml:"max_locals" json:"max_locals"`
	LocalNames map[int]string `yaml:"locals,omitempty" json:"locals,omitempty"`
	Blocks     []*BasicBlock  `yaml:"blocks" json:"blocks"`
	Handlers   []Handler      `yaml:"handlers,omitempty" json:"handlers,omitempty"`
}

// BasicBlock is a straight-line run of instructions ending in a terminator.
type BasicBlock struct {
	Addr   int        `yaml:"addr" json:"addr"`
	Length int        `yaml:"length" json:"length"`
	Code   []*Node    `yaml:"code,omitempty" json:"code,omitempty"`
	End    Terminator `yaml:"end" json:"end"`
}

// Terminator is the control transfer at the end of a basic block.
type Terminator struct {
	Kind    TerminatorKind `yaml:"kind" json:"kind"`
	Target  int            `yaml:"target,omitempty" json:"target,omitempty"`
	Next    int            `yaml:"next,omitempty" json:"next,omitempty"`
	Cond    *Node          `yaml:"cond,omitempty" json:"cond,omitempty"`
	Value   *Node          `yaml:"value,omitempty" json:"value,omitempty"`
	Cases   []SwitchCase   `yaml:"cases,omitempty" json:"cases,omitempty"`
	Default int            `yaml:"default,omitempty" json:"default,omitempty"`
	Slot    int            `yaml:"slot,omitempty" json:"slot,omitempty"`
}

// SwitchCase is one labelled switch target.
type SwitchCase struct {
	Value  string `yaml:"value" json:"value"`
	Target int    `yaml:"target" json:"target"`
}

// Handler is one exception table entry. An empty Type catches everything.
type Handler struct {
	Start   int    `yaml:"start" json:"start"`
	End     int    `yaml:"end" json:"end"`
	Handler int    `yaml:"handler" json:"handler"`
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
}

// Targets returns every address the terminator can transfer control to, in
// the order the engine creates jumps.
func (t Terminator) Targets() []int {
	switch t.Kind {
	case Next, Goto:
		return []int{t.Target}
	case If, Jsr:
		return []int{t.Target, t.Next}
	case Switch:
		out := make([]int, 0, len(t.Cases)+1)
		for _, c := range t.Cases {
			out = append(out, c.Target)
		}
		return append(out, t.Default)
	}
	return nil
}

// QualifiedName returns Class.Name, or Name alone.
func (m *Method) QualifiedName() string {
	if m.Class == "" {
		return m.Name
	}
	return m.Class + "." + m.Name
}

// Entry returns the block with the lowest address.
func (m *Method) Entry() *BasicBlock {
	var entry *BasicBlock
	for _, b := range m.Blocks {
		if entry == nil || b.Addr < entry.Addr {
			entry = b
		}
	}
	return entry
}

// End returns the address just past the last block.
func (m *Method) End() int {
	end := 0
	for _, b := range m.Blocks {
		if b.Addr+b.Length > end {
			end = b.Addr + b.Length
		}
	}
	return end
}

// Validate checks the shape of the method: at least one block, unique
// addresses, positive lengths and known terminators.
func (m *Method) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("method has no name")
	}
	if len(m.Blocks) == 0 {
		return fmt.Errorf("method %s has no blocks", m.Name)
	}
	seen := make(map[int]bool, len(m.Blocks))
	for _, b := range m.Blocks {
		if b == nil {
			return fmt.Errorf("method %s: nil block", m.Name)
		}
		if seen[b.Addr] {
			return fmt.Errorf("method %s: duplicate block address %d", m.Name, b.Addr)
		}
		seen[b.Addr] = true
		if b.Length <= 0 {
			return fmt.Errorf("method %s: block %d has non-positive length %d", m.Name, b.Addr, b.Length)
		}
		switch b.End.Kind {
		case Next, Goto, If, Switch, Return, Throw, Jsr, Ret:
		case "":
			return fmt.Errorf("method %s: block %d has no terminator", m.Name, b.Addr)
		default:
			return fmt.Errorf("method %s: block %d has unknown terminator %q", m.Name, b.Addr, b.End.Kind)
		}
		if b.End.Kind == If && b.End.Cond == nil {
			return fmt.Errorf("method %s: conditional block %d has no condition", m.Name, b.Addr)
		}
		if b.End.Kind == Throw && b.End.Value == nil {
			return fmt.Errorf("method %s: throw in block %d has no value", m.Name, b.Addr)
		}
	}
	for _, h := range m.Handlers {
		if !seen[h.Start] {
			return fmt.Errorf("method %s: try range start %d is not a block address", m.Name, h.Start)
		}
		if !seen[h.Handler] {
			return fmt.Errorf("method %s: handler %d is not a block address", m.Name, h.Handler)
		}
	}
	return nil
}

// SortBlocks orders the blocks by address.
func (m *Method) SortBlocks() {
	sort.Slice(m.Blocks, func(i, j int) bool { return m.Blocks[i].Addr < m.Blocks[j].Addr })
}
