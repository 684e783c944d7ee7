package flow

import "fmt"

// Jump is a pending control transfer from the end of a structured block to
// another flow block.
type Jump struct {
	// prev is the block the jump leaves; nil once the jump is removed.
	prev *Block
	// dest is the flow block the jump goes to.
	dest *FlowBlock
	// gen holds the variables possibly written on the path to dest.
	gen *VariableSet
	// kill holds the variables written on every path to dest.
	kill *VariableSet
}

func newJump(dest *FlowBlock, gen, kill *VariableSet) *Jump {
	return &Jump{dest: dest, gen: gen, kill: kill}
}

// Prev returns the block owning the jump.
func (j *Jump) Prev() *Block { return j.prev }

// Destination returns the target flow block.
func (j *Jump) Destination() *FlowBlock { return j.dest }

func (j *Jump) String() string {
	if j.dest == nil {
		return "goto <nil>"
	}
	return fmt.Sprintf("goto %s", j.dest.Label())
}
