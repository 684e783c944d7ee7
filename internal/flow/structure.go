package flow

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ludo-technologies/bcflow/internal/bytecode"
	"github.com/ludo-technologies/bcflow/internal/expr"
)

// Options tunes the structuring engine.
type Options struct {
	// Logger receives debug traces of every reduction step. Nil disables
	// logging.
	Logger *zap.SugaredLogger

	// MaxSteps bounds the reduction attempts per method. Zero means no limit.
	MaxSteps int
	// CheckEveryStep verifies the tree invariants after every T1 and T2.
	CheckEveryStep bool

	NegateConditions  bool
	CombineConditions bool
	CreateForLoops    bool
	RemoveStackOps    bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxSteps:          100000,
		NegateConditions:  true,
		CombineConditions: true,
		CreateForLoops:    true,
		RemoveStackOps:    true,
	}
}

// Stats counts what the engine did for one method.
type Stats struct {
	Regions     int `json:"regions" yaml:"regions" msgpack:"regions"`
	T1          int `json:"t1" yaml:"t1" msgpack:"t1"`
	T2          int `json:"t2" yaml:"t2" msgpack:"t2"`
	Steps       int `json:"steps" yaml:"steps" msgpack:"steps"`
	Breaks      int `json:"breaks" yaml:"breaks" msgpack:"breaks"`
	Continues   int `json:"continues" yaml:"continues" msgpack:"continues"`
	Trampolines int `json:"trampolines" yaml:"trampolines" msgpack:"trampolines"`
	Handlers    int `json:"handlers" yaml:"handlers" msgpack:"handlers"`
}

// Result is the structured form of one method. After a failure Root and Dump
// hold the partially structured entry region.
type Result struct {
	Method      string
	Root        *Block
	Dump        string
	Diagnostics []Diagnostic
	Stats       Stats
}

// method is the per-method arena: locals, naming, flow blocks and counters.
type method struct {
	src    *bytecode.Method
	opts   Options
	locals *expr.Locals
	names  *naming
	log    *zap.SugaredLogger

	flows map[int]*FlowBlock
	order []*FlowBlock
	entry *FlowBlock
	end   *FlowBlock

	// shared maps the address of a handler used by several table entries to
	// the local its catch clauses bind.
	shared map[int]*expr.Local

	steps int
	stats Stats
	diags []Diagnostic
}

func newMethod(src *bytecode.Method, opts Options) *method {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &method{
		src:    src,
		opts:   opts,
		locals: expr.NewLocals(),
		names:  newNaming(),
		log:    log.With("method", src.QualifiedName()),
		flows:  make(map[int]*FlowBlock),
		shared: make(map[int]*expr.Local),
	}
}

// Structure turns the control-flow graph of m into a tree of structured
// blocks.
func Structure(m *bytecode.Method, opts Options) (*Result, error) {
	if m == nil {
		return nil, newError(StructuralInconsistency, -1, "no method")
	}
	mt := newMethod(m, opts)
	err := mt.safeRun()

	res := &Result{Method: m.QualifiedName(), Diagnostics: mt.diags}
	if mt.entry != nil {
		res.Root = mt.entry.block
		res.Dump = partialDump(res.Root, DumpOptions{Declarations: err == nil})
	}
	res.Stats = mt.stats
	if err != nil {
		mt.log.Debugw("structuring failed", "error", err)
	}
	return res, err
}

// safeRun is run with a panic on malformed input reported as a structural
// inconsistency, so the caller still gets the partial tree.
func (m *method) safeRun() (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorw("engine panic", "panic", r)
			err = newError(StructuralInconsistency, -1, "engine panic: %v", r)
		}
	}()
	return m.run()
}

// partialDump renders b, or nothing when the tree is too broken to walk.
func partialDump(b *Block, opts DumpOptions) (dump string) {
	defer func() {
		if r := recover(); r != nil {
			dump = ""
		}
	}()
	return DumpBlock(b, opts)
}

func (m *method) run() error {
	if m.src.Entry() == nil {
		return newError(StructuralInconsistency, -1, "method %s has no blocks", m.src.QualifiedName())
	}
	if err := m.build(); err != nil {
		return err
	}
	if err := m.analyzeHandlers(); err != nil {
		return err
	}
	if _, err := m.entry.analyze(math.MinInt32, endAddr); err != nil {
		return err
	}
	return m.finish()
}

// flowAt returns the live flow block starting at addr.
func (m *method) flowAt(addr int) *FlowBlock {
	f := m.flows[addr]
	if f == nil || f.merged {
		return nil
	}
	return f
}

func (m *method) step() error {
	m.steps++
	m.stats.Steps = m.steps
	if m.opts.MaxSteps > 0 && m.steps > m.opts.MaxSteps {
		return inconsistency(-1, "step limit of %d exceeded", m.opts.MaxSteps)
	}
	return nil
}

func (m *method) checkStep(f *FlowBlock) error {
	if !m.opts.CheckEveryStep {
		return nil
	}
	return f.CheckConsistent()
}

func (m *method) diag(kind ErrorKind, addr int, msg string) {
	m.diags = append(m.diags, Diagnostic{Kind: kind, Addr: addr, Message: msg})
	m.log.Debugw("diagnostic", "kind", kind.String(), "addr", addr, "message", msg)
}

// finish turns the jumps left at the end of the method into returns, names
// the variables and places their declarations.
func (m *method) finish() error {
	f := m.entry
	for _, j := range f.jumpsTo(m.end) {
		prev := j.prev
		if prev == nil {
			continue
		}
		prev.RemoveJump()
		if prev.Kind == Return || prev.Kind == Throw || isTail(prev) {
			continue
		}
		o := newOptimizer(f, m.end, f.block)
		o.place(newReturn(nil), prev)
	}
	f.fixLastModified()

	if succs := f.Successors(); len(succs) > 0 {
		labels := make([]string, 0, len(succs))
		for _, s := range succs {
			labels = append(labels, s.Label())
		}
		sort.Strings(labels)
		f.block.PrependBlock(newDescription("unstructured jumps to " + strings.Join(labels, ", ")))
		return inconsistency(f.Addr, "control flow is not reducible: %s still reaches %s",
			f.Label(), strings.Join(labels, ", "))
	}

	completeForLoops(f.block)
	m.names.nameLocals(m.locals, m.src.LocalNames)
	f.block.PropagateUsage()
	f.block.MakeDeclaration(f.in.Clone())
	return f.CheckConsistent()
}

// completeForLoops gives up waiting for an initializer.
func completeForLoops(b *Block) {
	if b.Kind == Loop && b.LoopKind == PossibleFor {
		b.LoopKind = For
	}
	for _, s := range b.subs {
		if s != nil {
			completeForLoops(s)
		}
	}
}
