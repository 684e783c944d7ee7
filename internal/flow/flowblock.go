package flow

import (
	"fmt"
	"math"
)

// endAddr is the address of the end-of-method sentinel.
const endAddr = math.MaxInt32

// FlowBlock is a region of the method with a single entry. It starts as one
// basic block and grows as the reduction merges its successors into its
// structured tree.
type FlowBlock struct {
	Addr   int
	Length int
	// hi is the address just past the highest block merged so far. Merged
	// blocks need not be adjacent, so it can exceed Addr+Length.
	hi int

	method *method
	block  *Block
	// lastModified is where the search for the append point starts.
	lastModified *Block

	succOrder []*FlowBlock
	succs     map[*FlowBlock][]*Jump
	preds     []*FlowBlock

	// in holds the variables read before being written in the region.
	in *VariableSet
	// gen holds the variables written anywhere in the region.
	gen *VariableSet

	merged bool
}

func newFlowBlock(m *method, addr, length int) *FlowBlock {
	return &FlowBlock{
		Addr:   addr,
		Length: length,
		hi:     addr + length,
		method: m,
		succs:  make(map[*FlowBlock][]*Jump),
		in:     NewVariableSet(m.locals),
		gen:    NewVariableSet(m.locals),
	}
}

// Block returns the root of the structured tree.
func (f *FlowBlock) Block() *Block { return f.block }

// IsEnd reports whether f is the end-of-method sentinel.
func (f *FlowBlock) IsEnd() bool { return f.Addr == endAddr }

// Label returns the name used for f in dumps.
func (f *FlowBlock) Label() string {
	if f.IsEnd() {
		return "END_OF_METHOD"
	}
	return fmt.Sprintf("flow_%d", f.Addr)
}

// NextAddr returns the address just past the highest block of the region.
func (f *FlowBlock) NextAddr() int { return f.hi }

// grow accounts the addresses of a region merged into f.
func (f *FlowBlock) grow(other *FlowBlock) {
	f.Length += other.Length
	if other.hi > f.hi {
		f.hi = other.hi
	}
}

// predOutside reports whether f is reached from a region outside [start, end).
func (f *FlowBlock) predOutside(start, end int) bool {
	for _, p := range f.preds {
		if p.Addr < start || p.Addr >= end {
			return true
		}
	}
	return false
}

// In returns the variables the region reads before writing them.
func (f *FlowBlock) In() *VariableSet { return f.in }

// Successors returns the destinations of pending jumps in insertion order.
func (f *FlowBlock) Successors() []*FlowBlock {
	out := make([]*FlowBlock, len(f.succOrder))
	copy(out, f.succOrder)
	return out
}

// Predecessors returns the flow blocks with jumps to f.
func (f *FlowBlock) Predecessors() []*FlowBlock {
	out := make([]*FlowBlock, len(f.preds))
	copy(out, f.preds)
	return out
}

func (f *FlowBlock) setBlock(b *Block) {
	f.block = b
	f.lastModified = b
	b.outer = nil
	b.setFlow(f)
}

func (f *FlowBlock) hasPred(p *FlowBlock) bool {
	for _, q := range f.preds {
		if q == p {
			return true
		}
	}
	return false
}

func (f *FlowBlock) addPred(p *FlowBlock) {
	if !f.hasPred(p) {
		f.preds = append(f.preds, p)
	}
}

func (f *FlowBlock) removePred(p *FlowBlock) {
	for i, q := range f.preds {
		if q == p {
			f.preds = append(f.preds[:i], f.preds[i+1:]...)
			return
		}
	}
}

func (f *FlowBlock) addSuccessor(j *Jump) {
	if _, ok := f.succs[j.dest]; !ok {
		f.succOrder = append(f.succOrder, j.dest)
	}
	f.succs[j.dest] = append(f.succs[j.dest], j)
	j.dest.addPred(f)
}

func (f *FlowBlock) removeSuccessor(j *Jump) {
	jumps, ok := f.succs[j.dest]
	if !ok {
		return
	}
	for i, x := range jumps {
		if x == j {
			jumps = append(jumps[:i], jumps[i+1:]...)
			break
		}
	}
	if len(jumps) > 0 {
		f.succs[j.dest] = jumps
		return
	}
	f.dropDest(j.dest)
}

func (f *FlowBlock) dropDest(dest *FlowBlock) {
	delete(f.succs, dest)
	for i, d := range f.succOrder {
		if d == dest {
			f.succOrder = append(f.succOrder[:i], f.succOrder[i+1:]...)
			break
		}
	}
	dest.removePred(f)
}

// jumpsTo returns a copy of the jumps from f to dest.
func (f *FlowBlock) jumpsTo(dest *FlowBlock) []*Jump {
	jumps := f.succs[dest]
	out := make([]*Jump, len(jumps))
	copy(out, jumps)
	return out
}

// removeJumpsTo unregisters every jump to dest and returns them. The owning
// blocks still reference the jumps.
func (f *FlowBlock) removeJumpsTo(dest *FlowBlock) []*Jump {
	jumps := f.jumpsTo(dest)
	if _, ok := f.succs[dest]; ok {
		f.dropDest(dest)
	}
	return jumps
}

// removeAllSuccessors unregisters every pending jump of a discarded region.
func (f *FlowBlock) removeAllSuccessors() {
	for _, dest := range f.Successors() {
		f.dropDest(dest)
	}
}

// mergeSuccessors moves the pending jumps of succ to f and re-homes succ's
// place among the predecessors of each destination.
func (f *FlowBlock) mergeSuccessors(succ *FlowBlock) {
	for _, dest := range succ.succOrder {
		jumps := succ.succs[dest]
		if _, ok := f.succs[dest]; !ok {
			f.succOrder = append(f.succOrder, dest)
		}
		f.succs[dest] = append(f.succs[dest], jumps...)
		dest.removePred(succ)
		dest.addPred(f)
	}
	succ.succOrder = nil
	succ.succs = make(map[*FlowBlock][]*Jump)
	succ.merged = true
}

// updateInOut propagates liveness over the jumps from f to succ. For T1 the
// gen/kill sets of the jumps succ brings along are updated as well. It
// returns the variables possibly written on the way to succ.
func (f *FlowBlock) updateInOut(succ *FlowBlock, jumps []*Jump, t1 bool) *VariableSet {
	locals := f.method.locals
	gens := NewVariableSet(locals)
	var kills *VariableSet
	for _, j := range jumps {
		gens.UnionExact(j.gen)
		if kills == nil {
			kills = j.kill.Clone()
		} else {
			kills = kills.Intersect(j.kill)
		}
	}
	if kills == nil {
		kills = NewVariableSet(locals)
	}

	succ.in.Merge(gens)

	live := succ.in.Clone()
	live.Subtract(kills)
	f.in.UnionExact(live)

	if t1 {
		for _, dest := range succ.succOrder {
			for _, j := range succ.succs[dest] {
				j.gen.MergeGenKill(gens, j.kill)
				j.kill.Add(kills)
			}
		}
		f.gen.UnionExact(succ.gen)
	}
	return gens
}

// successorInRange returns the successor with the smallest address in
// [start, end) above addr, excluding f and the end sentinel.
func (f *FlowBlock) successorInRange(start, end, above int) *FlowBlock {
	var best *FlowBlock
	for _, s := range f.succOrder {
		if s == f || s.IsEnd() || s.Addr < start || s.Addr >= end || s.Addr <= above {
			continue
		}
		if best == nil || s.Addr < best.Addr {
			best = s
		}
	}
	return best
}

// fixLastModified resets the cursor when the block it pointed to left the
// tree.
func (f *FlowBlock) fixLastModified() {
	if f.lastModified == nil || !f.block.Contains(f.lastModified) {
		f.lastModified = f.block
	}
}

func (f *FlowBlock) String() string {
	return fmt.Sprintf("%s[%d,%d)", f.Label(), f.Addr, f.NextAddr())
}
