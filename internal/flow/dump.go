package flow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/ludo-technologies/bcflow/internal/expr"
)

const indentUnit = "    "

// DumpOptions controls the structural dump.
type DumpOptions struct {
	// Declarations prints the variable declarations placed by
	// MakeDeclaration.
	Declarations bool
	// Color highlights keywords, pending gotos and diagnostics.
	Color bool
}

type dumper struct {
	opts DumpOptions
	sb   strings.Builder
	// inline holds the stores that also declare their variable.
	inline map[*Block]string

	keyword func(a ...interface{}) string
	pending func(a ...interface{}) string
	note    func(a ...interface{}) string
}

func newDumper(opts DumpOptions) *dumper {
	d := &dumper{opts: opts, inline: make(map[*Block]string)}
	plain := fmt.Sprint
	d.keyword, d.pending, d.note = plain, plain, plain
	if opts.Color {
		kw := color.New(color.FgBlue, color.Bold)
		kw.EnableColor()
		gt := color.New(color.FgYellow)
		gt.EnableColor()
		nt := color.New(color.FgRed)
		nt.EnableColor()
		d.keyword, d.pending, d.note = kw.SprintFunc(), gt.SprintFunc(), nt.SprintFunc()
	}
	return d
}

// Dump renders f's tree without declarations.
func (f *FlowBlock) Dump() string {
	return DumpBlock(f.block, DumpOptions{})
}

// DumpBlock renders the tree below b as indented Java-like text.
func DumpBlock(b *Block, opts DumpOptions) string {
	if b == nil {
		return ""
	}
	d := newDumper(opts)
	assignLabels(b)
	d.block(b, 0)
	return d.sb.String()
}

// assignLabels names the blocks targeted by labelled breaks and continues so
// that the label line precedes them.
func assignLabels(b *Block) {
	if (b.Kind == Break || b.Kind == Continue) && b.Labelled && b.Target != nil {
		b.Target.Label()
	}
	for _, s := range b.subs {
		if s != nil {
			assignLabels(s)
		}
	}
}

func (d *dumper) line(depth int, parts ...string) {
	d.sb.WriteString(strings.Repeat(indentUnit, depth))
	d.sb.WriteString(strings.Join(parts, ""))
	d.sb.WriteByte('\n')
}

func (d *dumper) kw(s string) string { return d.keyword(s) }

func (d *dumper) declarations(b *Block, depth int) {
	if !d.opts.Declarations || b.declare == nil || b.declare.IsEmpty() {
		return
	}
	first := b
	for first.Kind == Sequential {
		first = first.subs[0]
	}
	var inlineLocal *expr.Local
	var init expr.Expr
	switch first.Kind {
	case Instruction:
		init = first.Expr
	case Loop:
		init = first.Init
	}
	if st, ok := init.(*expr.Store); ok && b.declare.Contains(st.Local) {
		inlineLocal = st.Local.Rep()
		d.inline[first] = typeName(inlineLocal)
	}
	decls := b.declare.Locals()
	sort.Slice(decls, func(i, j int) bool { return decls[i].String() < decls[j].String() })
	for _, l := range decls {
		if l.Rep() == inlineLocal {
			continue
		}
		d.line(depth, typeName(l), " ", l.String(), ";")
	}
}

func typeName(l *expr.Local) string {
	if t := l.Rep().Type; t != "" {
		return t
	}
	return "var"
}

func (d *dumper) jump(b *Block, depth int) {
	if b.jump != nil {
		d.line(depth, d.pending("goto "+b.jump.dest.Label()+";"))
	}
}

func (d *dumper) label(b *Block, depth int) {
	if b.label != "" {
		d.line(depth, b.label, ":")
	}
}

func (d *dumper) block(b *Block, depth int) {
	d.declarations(b, depth)
	switch b.Kind {
	case Sequential:
		d.block(b.subs[0], depth)
		d.block(b.subs[1], depth)

	case Empty:

	case Instruction:
		if t, ok := d.inline[b]; ok {
			d.line(depth, t, " ", b.Expr.String(), ";")
		} else {
			d.line(depth, b.Expr.String(), ";")
		}

	case Return:
		if b.Expr == nil {
			d.line(depth, d.kw("return"), ";")
		} else {
			d.line(depth, d.kw("return"), " ", b.Expr.String(), ";")
		}

	case Throw:
		d.line(depth, d.kw("throw"), " ", b.Expr.String(), ";")

	case Break, Continue:
		word := "break"
		if b.Kind == Continue {
			word = "continue"
		}
		if b.Labelled && b.Target != nil {
			d.line(depth, d.kw(word), " ", b.Target.Label(), ";")
		} else {
			d.line(depth, d.kw(word), ";")
		}

	case Conditional:
		d.line(depth, d.kw("if"), " (", b.Expr.String(), ")")
		d.block(b.subs[0], depth+1)

	case IfThenElse:
		d.ifThenElse(b, depth, "")

	case Loop:
		d.loop(b, depth)

	case Switch:
		d.label(b, depth)
		d.line(depth, d.kw("switch"), " (", b.Expr.String(), ") {")
		for _, c := range b.subs {
			d.declarations(c, depth+1)
			if c.IsDefault {
				d.line(depth+1, d.kw("default"), ":")
			} else {
				d.line(depth+1, d.kw("case"), " ", c.Value, ":")
			}
			if body := c.Body(); body != nil {
				d.block(body, depth+2)
			}
			d.jump(c, depth+2)
		}
		d.line(depth, "}")

	case Try:
		d.line(depth, d.kw("try"), " {")
		d.block(b.subs[0], depth+1)
		for _, h := range b.subs[1:] {
			if h == nil {
				continue
			}
			d.declarations(h, depth)
			if h.Kind == Finally {
				d.line(depth, "} ", d.kw("finally"), " {")
			} else {
				d.line(depth, "} ", d.kw("catch"), " (", h.ExceptionType, " ", h.Local.String(), ") {")
			}
			d.block(h.subs[0], depth+1)
			d.jump(h, depth+1)
		}
		d.line(depth, "}")

	case Catch, Finally:
		// only reachable when dumping a handler on its own
		d.block(b.subs[0], depth)

	case Synchronized:
		object := b.Local.String()
		if b.Expr != nil {
			object = b.Expr.String()
		}
		head := []string{d.kw("synchronized"), " (", object, ") {"}
		if !b.Entered {
			head = append(head, " ", d.note("/* monitorenter missing */"))
		}
		d.line(depth, head...)
		d.block(b.subs[0], depth+1)
		d.line(depth, "}")

	case Special:
		d.line(depth, specialName(b), ";")

	case Jsr:
		if call := b.sub(0); call != nil && call.jump != nil {
			d.line(depth, d.kw("jsr"), " ", call.jump.dest.Label(), ";")
		} else {
			d.line(depth, d.kw("jsr"), ";")
		}

	case Ret:
		d.line(depth, d.kw("ret"), " ", b.Local.String(), ";")

	case Description:
		d.line(depth, d.note("/* "+b.Text+" */"))

	case Case:
		if body := b.Body(); body != nil {
			d.block(body, depth)
		}
	}
	d.jump(b, depth)
}

func (d *dumper) ifThenElse(b *Block, depth int, prefix string) {
	if prefix == "" {
		d.line(depth, d.kw("if"), " (", b.Expr.String(), ") {")
	} else {
		d.line(depth, prefix, d.kw("if"), " (", b.Expr.String(), ") {")
	}
	d.block(b.subs[0], depth+1)
	if e := b.Else(); e != nil {
		if e.Kind == IfThenElse && e.jump == nil && (e.declare == nil || e.declare.IsEmpty() || !d.opts.Declarations) {
			d.ifThenElse(e, depth, "} "+d.kw("else")+" ")
			return
		}
		d.line(depth, "} ", d.kw("else"), " {")
		d.block(e, depth+1)
	}
	d.line(depth, "}")
}

func (d *dumper) loop(b *Block, depth int) {
	d.label(b, depth)
	cond := "true"
	if b.Expr != nil {
		cond = b.Expr.String()
	}
	switch b.LoopKind {
	case DoWhile:
		d.line(depth, d.kw("do"), " {")
		d.block(b.subs[0], depth+1)
		d.line(depth, "} ", d.kw("while"), " (", cond, ");")
	case For, PossibleFor:
		init, incr := "", ""
		if b.Init != nil {
			init = b.Init.String()
			if t, ok := d.inline[b]; ok {
				init = t + " " + init
			}
		}
		if b.Incr != nil {
			incr = b.Incr.String()
		}
		d.line(depth, d.kw("for"), " (", init, "; ", cond, "; ", incr, ") {")
		d.block(b.subs[0], depth+1)
		d.line(depth, "}")
	default:
		d.line(depth, d.kw("while"), " (", cond, ") {")
		d.block(b.subs[0], depth+1)
		d.line(depth, "}")
	}
}

// specialName renders a stack operation in JVM mnemonic form: dup2_x1, pop2.
func specialName(b *Block) string {
	name := b.Op
	if b.Count > 1 {
		name += fmt.Sprint(b.Count)
	}
	if b.Depth > 0 {
		name += fmt.Sprintf("_x%d", b.Depth)
	}
	return name
}
