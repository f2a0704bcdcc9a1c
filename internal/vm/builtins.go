package vm

import (
	"strconv"

	"github.com/jcorbin/goforth/internal/parse"
)

// builtins implements every operation code that needs no access to the
// operation sequence being executed.
var builtins = [parse.CodeMax]func(vm *VM) error{
	parse.Add: binaryOp(func(a, b int64) int64 { return a + b }),
	parse.Sub: binaryOp(func(a, b int64) int64 { return a - b }),
	parse.Mul: binaryOp(func(a, b int64) int64 { return a * b }),
	parse.Div: divisiveOp(func(a, b int64) int64 { return a / b }),
	parse.Mod: divisiveOp(func(a, b int64) int64 { return a % b }),
	parse.Eq:  binaryOp(func(a, b int64) int64 { return truth(a == b) }),
	parse.Lt:  binaryOp(func(a, b int64) int64 { return truth(a < b) }),
	parse.Gt:  binaryOp(func(a, b int64) int64 { return truth(a > b) }),

	parse.Dup:      shuffleOp(1, 0, 0),
	parse.Drop:     shuffleOp(1),
	parse.Swap:     shuffleOp(2, 1, 0),
	parse.Over:     shuffleOp(2, 0, 1, 0),
	parse.Rot:      shuffleOp(3, 1, 2, 0),
	parse.MinusRot: shuffleOp(3, 2, 0, 1),
	parse.TwoDup:   shuffleOp(2, 0, 1, 0, 1),
	parse.TwoDrop:  shuffleOp(2),
	parse.TwoSwap:  shuffleOp(4, 2, 3, 0, 1),
	parse.TwoOver:  shuffleOp(4, 0, 1, 2, 3, 0, 1),
	parse.QDup:     (*VM).qdup,

	parse.Print:      (*VM).print,
	parse.PrintStack: (*VM).printStack,
}

func truth(b bool) int64 {
	if b {
		return -1
	}
	return 0
}

func (vm *VM) need(n int) error {
	if len(vm.stack) < n {
		return ErrStackUnderflow
	}
	return nil
}

func (vm *VM) pop() int64 {
	i := len(vm.stack) - 1
	v := vm.stack[i]
	vm.stack = vm.stack[:i]
	return v
}

func binaryOp(f func(a, b int64) int64) func(vm *VM) error {
	return func(vm *VM) error {
		if err := vm.need(2); err != nil {
			return err
		}
		b := vm.pop()
		i := len(vm.stack) - 1
		vm.stack[i] = f(vm.stack[i], b)
		return nil
	}
}

// divisiveOp checks for a zero divisor before consuming any operand.
func divisiveOp(f func(a, b int64) int64) func(vm *VM) error {
	op := binaryOp(f)
	return func(vm *VM) error {
		if err := vm.need(2); err != nil {
			return err
		}
		if vm.stack[len(vm.stack)-1] == 0 {
			return ErrDivisionByZero
		}
		return op(vm)
	}
}

// shuffleOp replaces the top n values with the values picked from them by
// index, counting from the deepest of the n.
func shuffleOp(n int, picks ...int) func(vm *VM) error {
	return func(vm *VM) error {
		if err := vm.need(n); err != nil {
			return err
		}
		var in [4]int64
		base := len(vm.stack) - n
		copy(in[:], vm.stack[base:])
		vm.stack = vm.stack[:base]
		for _, i := range picks {
			vm.stack = append(vm.stack, in[i])
		}
		return nil
	}
}

func (vm *VM) qdup() error {
	if err := vm.need(1); err != nil {
		return err
	}
	if v := vm.stack[len(vm.stack)-1]; v != 0 {
		vm.stack = append(vm.stack, v)
	}
	return nil
}

func (vm *VM) print() error {
	if err := vm.need(1); err != nil {
		return err
	}
	buf := strconv.AppendInt(nil, vm.pop(), 10)
	return vm.write(append(buf, '\n'))
}

func (vm *VM) printStack() error {
	buf := make([]byte, 0, 8+8*len(vm.stack))
	buf = append(buf, '<')
	buf = strconv.AppendInt(buf, int64(len(vm.stack)), 10)
	buf = append(buf, '>')
	for _, v := range vm.stack {
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, v, 10)
	}
	return vm.write(append(buf, '\n'))
}
