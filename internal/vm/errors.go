package vm

import (
	"errors"
	"fmt"
)

// Evaluation errors; all abort the current Evaluate call without rolling back
// effects that preceded the failing operation.
var (
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrLoopStackUnderflow = errors.New("loop control stack underflow")
	ErrControlMismatch    = errors.New("control structure mismatch during execution")
	ErrNestedDefinition   = errors.New("nested definitions are not supported")
	ErrNotDefining        = errors.New("not defining a word")
	ErrNoLatestWord       = errors.New("no word defined to mark immediate")
)

// UnknownWordError names a word reference with no dictionary entry, as it was
// spelled in the source.
type UnknownWordError string

func (name UnknownWordError) Error() string {
	return fmt.Sprintf("unknown word: %v", string(name))
}

// CompileOnlyError names a control word that reached evaluation as a plain
// word reference.
type CompileOnlyError string

func (name CompileOnlyError) Error() string {
	return fmt.Sprintf("interpreting a compile-only word: %v", string(name))
}
