package vm

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes a human readable description of the machine state to w: its
// registers and stacks, every memory row holding a non-zero cell, and the
// code around the instruction pointer.
func (vm *VM) Dump(w io.Writer) error {
	var sb strings.Builder
	vmDumper{vm: vm, out: &sb}.dump()
	_, err := io.WriteString(w, sb.String())
	return err
}

type vmDumper struct {
	vm  *VM
	out *strings.Builder

	addrWidth   int
	rowSize     int
	codeContext int
}

func (dump vmDumper) dump() {
	if dump.rowSize == 0 {
		dump.rowSize = 8
	}
	if dump.codeContext == 0 {
		dump.codeContext = 3
	}
	if dump.addrWidth == 0 {
		dump.addrWidth = len(strconv.Itoa(dump.vm.MemSize() - 1))
	}

	fmt.Fprintf(dump.out, "# VM Dump\n")
	fmt.Fprintf(dump.out, "  state: %v\n", dump.vm)
	fmt.Fprintf(dump.out, "  steps: %v\n", dump.vm.steps)
	fmt.Fprintf(dump.out, "  stack: %v\n", dump.vm.stack)
	fmt.Fprintf(dump.out, "  calls: %v\n", dump.vm.calls)
	dump.dumpMem()
	dump.dumpCode()
}

func (dump vmDumper) dumpMem() {
	fmt.Fprintf(dump.out, "# Memory @%v\n", dump.vm.MemSize())

	row := make([]int64, dump.rowSize)
	size := uint64(dump.rowSize)
	limit := dump.vm.mem.Limit
	last := ^uint64(0)
	dump.vm.mem.Each(func(addr uint64, _ int64) {
		base := addr / size * size
		if base == last {
			return
		}
		last = base

		cells := row
		if limit != 0 && base+size > limit {
			cells = row[:limit-base]
		}
		if err := dump.vm.mem.LoadInto(base, cells); err != nil {
			fmt.Fprintf(dump.out, "  @%*v %v\n", dump.addrWidth, base, err)
			return
		}
		fmt.Fprintf(dump.out, "  @%*v", dump.addrWidth, base)
		for _, val := range cells {
			dump.out.WriteByte(' ')
			dump.out.WriteString(strconv.FormatInt(val, 10))
		}
		dump.out.WriteByte('\n')
	})
}

func (dump vmDumper) dumpCode() {
	prog := dump.vm.prog
	n := prog.Len()
	fmt.Fprintf(dump.out, "# Code @%v\n", n)

	lo, hi := dump.vm.ip-dump.codeContext, dump.vm.ip+dump.codeContext+1
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	width := len(strconv.Itoa(n))
	for i := lo; i < hi; i++ {
		mark := " "
		if i == dump.vm.ip {
			mark = ">"
		}
		fmt.Fprintf(dump.out, "  %v %*d @%04x  %v\n", mark, width, i, prog.Offset(i), prog.At(i))
	}
}
