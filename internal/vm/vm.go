// Package vm implements the evaluator: it executes parsed operation
// sequences against an operand stack, a loop-control stack, and a dictionary
// of defined words.
//
// A VM is a single session; it is not safe for concurrent use, but any
// number of independent VMs may run concurrently, sharing nothing except
// what is explicitly copied between them by Import.
package vm

import (
	"strings"

	"github.com/jcorbin/goforth/internal/flushio"
	"github.com/jcorbin/goforth/internal/native"
	"github.com/jcorbin/goforth/internal/parse"
)

// VM is an evaluator session.
type VM struct {
	logging

	stack []int64
	loops []frame

	dict     Dictionary
	latest   string
	defining *definition

	out      flushio.WriteFlusher
	compiler native.Compiler
}

// frame is a loop-control stack entry for a running do ... loop.
type frame struct {
	resume int // index just after the Do
	index  int64
	limit  int64
}

type definition struct {
	name      string
	body      []parse.Op
	immediate bool
}

// New creates a VM with the given options.
func New(opts ...Option) *VM {
	vm := &VM{dict: make(Dictionary)}
	defaultOptions.apply(vm)
	Options(opts...).apply(vm)
	return vm
}

// Close flushes any buffered output.
func (vm *VM) Close() error {
	return vm.out.Flush()
}

// Evaluate executes ops in order, stopping at the first error. Effects of
// operations before a failing one are kept.
//
// While a definition is open (see Begin), ops are accumulated into it
// instead, except immediate words which execute now. An error while
// accumulating abandons the definition.
func (vm *VM) Evaluate(ops []parse.Op) (err error) {
	defer func() {
		if ferr := vm.out.Flush(); err == nil {
			err = ferr
		}
	}()
	if vm.defining != nil {
		body, err := vm.compile(ops)
		if err != nil {
			vm.defining = nil
			return err
		}
		vm.defining.body = append(vm.defining.body, body...)
		return nil
	}
	return vm.exec(ops)
}

// Stack returns a copy of the operand stack, bottom first.
func (vm *VM) Stack() []int64 {
	return append([]int64(nil), vm.stack...)
}

// SetStack replaces the operand stack.
func (vm *VM) SetStack(values []int64) {
	vm.stack = append(vm.stack[:0], values...)
}

// Push pushes values onto the operand stack.
func (vm *VM) Push(values ...int64) {
	vm.stack = append(vm.stack, values...)
}

// Dictionary returns a copy of the dictionary.
func (vm *VM) Dictionary() Dictionary {
	return vm.dict.clone()
}

// Import copies every definition from d, replacing any of the same name.
func (vm *VM) Import(d Dictionary) {
	for name, ent := range d {
		vm.dict[name] = ent
	}
}

// Lookup finds a defined word.
func (vm *VM) Lookup(name string) (*Entry, bool) {
	return vm.dict.Lookup(name)
}

// Defining returns the name of the open definition, if any.
func (vm *VM) Defining() (string, bool) {
	if vm.defining == nil {
		return "", false
	}
	return vm.defining.name, true
}

// Begin opens a definition of name; until End, Evaluate accumulates into it.
func (vm *VM) Begin(name string) error {
	if vm.defining != nil {
		return ErrNestedDefinition
	}
	vm.defining = &definition{name: strings.ToUpper(name)}
	return nil
}

// End closes the open definition, installing it in the dictionary.
func (vm *VM) End() error {
	def := vm.defining
	if def == nil {
		return ErrNotDefining
	}
	vm.defining = nil

	parse.Link(def.body)
	ent := &Entry{
		Name:      def.name,
		Body:      def.body,
		Immediate: def.immediate,
	}
	if vm.compiler != nil && !ent.Immediate {
		if nat, err := vm.compiler.Compile(ent.Name, ent.Body); err != nil {
			vm.logf("native", "%v interpreted: %v", ent.Name, err)
		} else {
			ent.Native = nat
			vm.logf("native", "%v compiled %+v", ent.Name, nat.Shape)
		}
	}
	vm.dict[ent.Name] = ent
	vm.latest = ent.Name
	vm.logf("define", "%v", ent)
	return nil
}

// Abort discards any open definition.
func (vm *VM) Abort() {
	vm.defining = nil
}

func (vm *VM) markImmediate() error {
	if vm.defining != nil {
		vm.defining.immediate = true
		return nil
	}
	ent, ok := vm.dict[vm.latest]
	if !ok {
		return ErrNoLatestWord
	}
	marked := *ent
	marked.Immediate = true
	marked.Native = nil
	vm.dict[marked.Name] = &marked
	return nil
}

func (vm *VM) write(p []byte) error {
	_, err := vm.out.Write(p)
	return err
}

// ensure the stack has capacity for n more values.
func (vm *VM) ensure(n int) {
	if need := len(vm.stack) + n; need > cap(vm.stack) {
		stack := make([]int64, len(vm.stack), 2*need)
		copy(stack, vm.stack)
		vm.stack = stack
	}
}
