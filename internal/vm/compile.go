package vm

import "github.com/jcorbin/goforth/internal/parse"

// define runs a definition operation through the compile overlay.
func (vm *VM) define(op parse.Op) error {
	if err := vm.Begin(op.Name); err != nil {
		return err
	}
	vm.defining.immediate = op.Immediate
	body, err := vm.compile(op.Body)
	if err != nil {
		vm.defining = nil
		return err
	}
	vm.defining.body = body
	return vm.End()
}

// compile returns the operations to append to the open definition for ops:
// references to immediate words execute now rather than being compiled,
// within conditional branches too, and a mark-immediate operation applies
// to the definition itself.
func (vm *VM) compile(ops []parse.Op) ([]parse.Op, error) {
	var body []parse.Op
	for _, op := range ops {
		switch op.Code {
		case parse.Define:
			return body, ErrNestedDefinition

		case parse.Immediate:
			vm.defining.immediate = true
			continue

		case parse.Word:
			if ent, ok := vm.dict.Lookup(op.Name); ok && ent.Immediate {
				vm.logf("immediate", "%v", ent.Name)
				if err := vm.call(op.Name); err != nil {
					return body, err
				}
				continue
			}

		case parse.IfElse:
			then, err := vm.compile(op.Body)
			if err != nil {
				return body, err
			}
			els, err := vm.compile(op.Else)
			if err != nil {
				return body, err
			}
			op = parse.Cond(then, els)
		}
		body = append(body, op)
	}
	return body, nil
}
