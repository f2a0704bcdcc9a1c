package vm

import "github.com/jcorbin/goforth/internal/parse"

// exec runs one operation sequence. Loop frames opened by the sequence are
// always gone when it returns; a sequence that ends with one still open is a
// control mismatch.
func (vm *VM) exec(ops []parse.Op) (err error) {
	base := len(vm.loops)
	defer func() {
		if len(vm.loops) > base {
			if err == nil {
				err = ErrControlMismatch
			}
			vm.loops = vm.loops[:base]
		}
	}()

	for pc := 0; pc < len(ops); pc++ {
		op := &ops[pc]
		if vm.logfn != nil {
			vm.logf("exec", "%v %v", vm.stack, op)
		}

		switch op.Code {
		case parse.Push:
			vm.stack = append(vm.stack, op.Value)

		case parse.Word:
			err = vm.call(op.Name)

		case parse.Define:
			err = vm.define(*op)

		case parse.Immediate:
			err = vm.markImmediate()

		case parse.IfElse:
			if err = vm.need(1); err == nil {
				flag := vm.pop()
				if flag != 0 {
					err = vm.exec(op.Body)
				} else {
					err = vm.exec(op.Else)
				}
			}

		case parse.Do:
			if err = vm.need(2); err != nil {
				break
			}
			start := vm.pop()
			limit := vm.pop()
			if start < limit {
				vm.loops = append(vm.loops, frame{resume: pc + 1, index: start, limit: limit})
			} else if end := parse.MatchLoop(ops, pc); end < 0 {
				err = ErrControlMismatch
			} else {
				pc = end - 1
			}

		case parse.Loop:
			if len(vm.loops) <= base {
				err = ErrLoopStackUnderflow
				break
			}
			fr := &vm.loops[len(vm.loops)-1]
			if fr.index++; fr.index < fr.limit {
				pc = fr.resume - 1
			} else {
				vm.loops = vm.loops[:len(vm.loops)-1]
			}

		case parse.Index:
			if len(vm.loops) == 0 {
				err = ErrLoopStackUnderflow
				break
			}
			vm.stack = append(vm.stack, vm.loops[len(vm.loops)-1].index)

		default:
			err = builtins[op.Code](vm)
		}

		if err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) call(name string) error {
	if parse.IsControlWord(name) {
		return CompileOnlyError(name)
	}
	ent, ok := vm.dict.Lookup(name)
	if !ok {
		return UnknownWordError(name)
	}
	if vm.logfn != nil {
		vm.logf("call", "%v", ent.Name)
		defer vm.withLogPrefix("  ")()
	}
	if ent.Native != nil {
		return vm.callNative(ent)
	}
	return vm.exec(ent.Body)
}

// callNative runs a compiled word. On a fault, the stack values the word
// could have touched are restored and its body is interpreted instead, so
// that partial effects and the error are exactly those of interpretation.
func (vm *VM) callNative(ent *Entry) error {
	nat := ent.Native
	n := len(vm.stack)
	reach := nat.Reach
	if reach > n {
		reach = n
	}
	saved := append([]int64(nil), vm.stack[n-reach:]...)

	vm.ensure(nat.Growth)
	buf := vm.stack[:cap(vm.stack)]
	top := nat.Func(buf, n-1)
	if top >= -1 {
		vm.stack = buf[:top+1]
		return nil
	}

	vm.logf("native", "%v fault %v, interpreting", ent.Name, top)
	copy(vm.stack[n-reach:], saved)
	return vm.exec(ent.Body)
}
