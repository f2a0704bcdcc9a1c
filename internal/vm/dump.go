package vm

import (
	"fmt"
	"io"
)

// Dump writes a human readable description of the VM state.
func (vm *VM) Dump(w io.Writer) {
	vmDumper{vm: vm, out: w}.dump()
}

type vmDumper struct {
	vm  *VM
	out io.Writer
}

func (dump vmDumper) dump() {
	fmt.Fprintf(dump.out, "# VM Dump\n")
	fmt.Fprintf(dump.out, "  stack: %v\n", dump.vm.stack)
	if len(dump.vm.loops) > 0 {
		dump.dumpLoops()
	}
	if def := dump.vm.defining; def != nil {
		fmt.Fprintf(dump.out, "  defining: %v\n", def.name)
	}
	if dump.vm.latest != "" {
		fmt.Fprintf(dump.out, "  latest: %v\n", dump.vm.latest)
	}
	dump.dumpDict()
}

func (dump vmDumper) dumpLoops() {
	fmt.Fprintf(dump.out, "  loops:")
	for _, fr := range dump.vm.loops {
		fmt.Fprintf(dump.out, " %v/%v", fr.index, fr.limit)
	}
	fmt.Fprintf(dump.out, "\n")
}

func (dump vmDumper) dumpDict() {
	names := dump.vm.dict.Names()
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(dump.out, "# Dictionary\n")
	for _, name := range names {
		ent := dump.vm.dict[name]
		fmt.Fprintf(dump.out, "  %v", ent)
		if ent.Immediate {
			fmt.Fprintf(dump.out, " immediate")
		}
		if nat := ent.Native; nat != nil {
			fmt.Fprintf(dump.out, " \\ native reach:%v growth:%v", nat.Reach, nat.Growth)
		}
		fmt.Fprintf(dump.out, "\n")
	}
}
