package vm

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jcorbin/stackvm/internal/runeio"
)

// print writes v in decimal followed by a line feed.
func (vm *VM) print(v int64) *Fault {
	var buf [24]byte
	b := strconv.AppendInt(buf[:0], v, 10)
	b = append(b, '\n')
	if _, err := vm.out.Write(b); err != nil {
		return vm.newFault(OutputError, err)
	}
	return nil
}

// printc writes the low byte of v as a single rune, so bytes above 0x7f come
// out as their two byte utf8 encoding.
func (vm *VM) printc(v int64) *Fault {
	if _, err := runeio.WriteRune(vm.out, rune(v&0xff)); err != nil {
		return vm.newFault(OutputError, err)
	}
	return nil
}

// read flushes output, prompts if configured, then scans the next whitespace
// separated token from input as a base 10 integer.
func (vm *VM) read() (int64, *Fault) {
	if err := vm.out.Flush(); err != nil {
		return 0, vm.newFault(OutputError, err)
	}

	if vm.promptw != nil {
		if _, err := io.WriteString(vm.promptw, vm.promptText); err != nil {
			return 0, vm.newFault(OutputError, err)
		}
		if err := vm.promptw.Flush(); err != nil {
			return 0, vm.newFault(OutputError, err)
		}
	}

	token, loc, err := vm.in.Token()
	if err == io.EOF {
		return 0, vm.newFault(EndOfInput, nil)
	} else if err != nil {
		return 0, vm.newFault(InvalidInput, err)
	}

	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, vm.newFault(InvalidInput, fmt.Errorf("%v: %w", loc, err))
	}
	vm.logf("<", "read %v from %v", v, loc)
	return v, nil
}
