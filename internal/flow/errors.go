package flow

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies structuring failures.
type ErrorKind int

const (
	// StructuralInconsistency means an internal invariant broke or the input is
	// not structurable (irreducible flow, malformed handler table). It aborts
	// the method.
	StructuralInconsistency ErrorKind = iota
	// UnrecognizedIdiom means a handler or exit pattern did not match any known
	// shape; the fallback representation is used.
	UnrecognizedIdiom
	// IllegalEdgeTopology means a jump without a valid destination or a
	// break/continue to a block that is not an ancestor.
	IllegalEdgeTopology
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case StructuralInconsistency:
		return "StructuralInconsistency"
	case UnrecognizedIdiom:
		return "UnrecognizedIdiom"
	case IllegalEdgeTopology:
		return "IllegalEdgeTopology"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(text []byte) error {
	for _, c := range []ErrorKind{StructuralInconsistency, UnrecognizedIdiom, IllegalEdgeTopology} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// Error is a structuring error at a bytecode address.
type Error struct {
	Kind ErrorKind
	Msg  string
	Addr int
}

func (e *Error) Error() string {
	if e.Addr >= 0 {
		return fmt.Sprintf("%s at %d: %s", e.Kind, e.Addr, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newError(kind ErrorKind, addr int, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Addr: addr})
}

func inconsistency(addr int, format string, args ...interface{}) error {
	return newError(StructuralInconsistency, addr, format, args...)
}

// KindOf returns the kind of the structuring error wrapped in err.
func KindOf(err error) (ErrorKind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Diagnostic is a non-fatal finding recorded while structuring a method.
type Diagnostic struct {
	Kind    ErrorKind `json:"kind" yaml:"kind"`
	Addr    int       `json:"addr" yaml:"addr"`
	Message string    `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %d: %s", d.Kind, d.Addr, d.Message)
}
