// Package native compiles word bodies into functions that operate directly on
// a stack buffer, as an optional fast path for the evaluator.
//
// A compiled Func receives the stack buffer and the index of its top element
// (-1 when empty), and returns the new top index. Run-time faults detected by
// the compiled code are signaled by returning one of the negative Fault
// values below -1 instead; the buffer contents are then unspecified within
// the body's Shape, and callers must restore them before reporting the fault.
//
// Only bodies whose stack use is statically bounded can be compiled; see
// Analyze.
package native

import (
	"errors"
	"fmt"

	"github.com/jcorbin/goforth/internal/parse"
)

// Func is a compiled word body.
type Func func(buf []int64, top int) int

// Run-time faults returned by a Func.
const (
	FaultUnderflow      = -2
	FaultDivisionByZero = -3
)

// Entry is a compiled word.
type Entry struct {
	Name string
	Func Func
	Shape
}

// Compiler compiles word bodies.
type Compiler interface {
	Compile(name string, body []parse.Op) (*Entry, error)
}

// ErrUnsupported is wrapped by errors for bodies that cannot be compiled.
var ErrUnsupported = errors.New("unsupported")

type unsupportedError struct {
	op     parse.Op
	reason string
}

func (err unsupportedError) Error() string {
	if err.reason != "" {
		return fmt.Sprintf("%v %q: %v", ErrUnsupported, err.op, err.reason)
	}
	return fmt.Sprintf("%v %q", ErrUnsupported, err.op)
}

func (err unsupportedError) Unwrap() error { return ErrUnsupported }

// Emitting wraps a Compiler so that every body it compiles is also emitted
// as LLVM IR into Module.
//
// Logf, if set, is told about any compiled body that could not be emitted.
type Emitting struct {
	Compiler
	Module *LLVM
	Logf   func(mess string, args ...interface{})
}

// Compile compiles body with the wrapped compiler, then emits it.
// Emission failure is not a compile failure: the IR module is advisory.
func (em Emitting) Compile(name string, body []parse.Op) (*Entry, error) {
	ent, err := em.Compiler.Compile(name, body)
	if err == nil && em.Module != nil {
		if _, emitErr := em.Module.Emit(name, body); emitErr != nil && em.Logf != nil {
			em.Logf("%v compiled without IR: %v", name, emitErr)
		}
	}
	return ent, err
}
