package vm

import (
	"fmt"
	"strings"

	"github.com/jcorbin/stackvm/program"
)

// FaultKind classifies why a run stopped abnormally. Each kind is itself an
// error, so that errors.Is(err, vm.DivisionByZero) works against any error
// returned by Run or Step.
type FaultKind uint8

// Fault kinds; the zero value is not a valid kind.
const (
	StackUnderflow FaultKind = iota + 1
	StackOverflow
	DivisionByZero
	InvalidJumpTarget
	MemoryOutOfBounds
	InstructionPointerOutOfRange
	CallStackUnderflow
	CallStackOverflow
	InvalidInput
	EndOfInput
	StepLimitExceeded
	OutputError
)

// FaultKinds lists every valid fault kind, in order.
var FaultKinds = []FaultKind{
	StackUnderflow,
	StackOverflow,
	DivisionByZero,
	InvalidJumpTarget,
	MemoryOutOfBounds,
	InstructionPointerOutOfRange,
	CallStackUnderflow,
	CallStackOverflow,
	InvalidInput,
	EndOfInput,
	StepLimitExceeded,
	OutputError,
}

var faultNames = [...]string{
	StackUnderflow:               "stack underflow",
	StackOverflow:                "stack overflow",
	DivisionByZero:               "division by zero",
	InvalidJumpTarget:            "invalid jump target",
	MemoryOutOfBounds:            "memory out of bounds",
	InstructionPointerOutOfRange: "instruction pointer out of range",
	CallStackUnderflow:           "call stack underflow",
	CallStackOverflow:            "call stack overflow",
	InvalidInput:                 "invalid input",
	EndOfInput:                   "end of input",
	StepLimitExceeded:            "step limit exceeded",
	OutputError:                  "output error",
}

func (kind FaultKind) String() string {
	if int(kind) < len(faultNames) && faultNames[kind] != "" {
		return faultNames[kind]
	}
	return fmt.Sprintf("fault_%d", uint8(kind))
}

func (kind FaultKind) Error() string { return kind.String() }

// Fault records the kind of a fatal run-time fault, along with where it
// happened. Op is only meaningful when the instruction pointer was in range.
// Err optionally carries detail, like a memory limit error or an input parse
// error.
type Fault struct {
	Kind FaultKind
	IP   int
	Op   program.Opcode
	Err  error
}

func (f *Fault) Error() string {
	var sb strings.Builder
	sb.WriteString(f.Kind.String())
	fmt.Fprintf(&sb, " @%v", f.IP)
	if f.Kind != InstructionPointerOutOfRange {
		sb.WriteByte(' ')
		sb.WriteString(f.Op.String())
	}
	if f.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(f.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the fault kind, and any detail error.
func (f *Fault) Unwrap() []error {
	if f.Err != nil {
		return []error{f.Kind, f.Err}
	}
	return []error{f.Kind}
}
