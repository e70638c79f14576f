package program

import "fmt"

// Opcode selects the semantics of a single instruction; it is encoded as the
// first byte of every instruction.
type Opcode byte

// The instruction set. Gaps in the numbering are reserved; decoding a
// reserved byte is a malformed program.
const (
	// Control
	Nop  Opcode = 0x00
	Halt Opcode = 0x01
	Exit Opcode = 0x02

	// Stack
	Push Opcode = 0x10
	Pop  Opcode = 0x11
	Dup  Opcode = 0x12
	Swap Opcode = 0x13
	Over Opcode = 0x14

	// Arithmetic
	Add Opcode = 0x20
	Sub Opcode = 0x21
	Mul Opcode = 0x22
	Div Opcode = 0x23
	Mod Opcode = 0x24
	Neg Opcode = 0x25

	// Comparison
	Eq  Opcode = 0x30
	Ne  Opcode = 0x31
	Lt  Opcode = 0x32
	Le  Opcode = 0x33
	Gt  Opcode = 0x34
	Ge  Opcode = 0x35
	Not Opcode = 0x36

	// Flow
	Jmp  Opcode = 0x40
	Jz   Opcode = 0x41
	Jnz  Opcode = 0x42
	Call Opcode = 0x43
	Ret  Opcode = 0x44

	// Memory
	Load  Opcode = 0x50
	Store Opcode = 0x51

	// I/O
	Print  Opcode = 0x60
	PrintC Opcode = 0x61
	Read   Opcode = 0x62
)

// OperandSize is the fixed width, in bytes, of every immediate operand. Operands
// are little-endian two's complement.
const OperandSize = 8

type opInfo struct {
	name    string
	operand bool
	pops    int
	pushes  int
}

var opTable = [256]*opInfo{
	Nop:  {"nop", false, 0, 0},
	Halt: {"halt", false, 0, 0},
	Exit: {"exit", false, 1, 0},

	Push: {"push", true, 0, 1},
	Pop:  {"pop", false, 1, 0},
	Dup:  {"dup", false, 1, 2},
	Swap: {"swap", false, 2, 2},
	Over: {"over", false, 2, 3},

	Add: {"add", false, 2, 1},
	Sub: {"sub", false, 2, 1},
	Mul: {"mul", false, 2, 1},
	Div: {"div", false, 2, 1},
	Mod: {"mod", false, 2, 1},
	Neg: {"neg", false, 1, 1},

	Eq:  {"eq", false, 2, 1},
	Ne:  {"ne", false, 2, 1},
	Lt:  {"lt", false, 2, 1},
	Le:  {"le", false, 2, 1},
	Gt:  {"gt", false, 2, 1},
	Ge:  {"ge", false, 2, 1},
	Not: {"not", false, 1, 1},

	Jmp:  {"jmp", true, 0, 0},
	Jz:   {"jz", true, 1, 0},
	Jnz:  {"jnz", true, 1, 0},
	Call: {"call", true, 0, 0},
	Ret:  {"ret", false, 0, 0},

	Load:  {"load", false, 1, 1},
	Store: {"store", false, 2, 0},

	Print:  {"print", false, 1, 0},
	PrintC: {"printc", false, 1, 0},
	Read:   {"read", false, 0, 1},
}

// Valid returns true if op is part of the instruction set.
func (op Opcode) Valid() bool { return opTable[op] != nil }

// HasOperand returns true if op is followed by an immediate operand.
func (op Opcode) HasOperand() bool {
	info := opTable[op]
	return info != nil && info.operand
}

// IsJump returns true for instructions whose operand is an absolute
// instruction index.
func (op Opcode) IsJump() bool {
	switch op {
	case Jmp, Jz, Jnz, Call:
		return true
	}
	return false
}

// Arity returns how many stack values op consumes and produces.
func (op Opcode) Arity() (pops, pushes int) {
	if info := opTable[op]; info != nil {
		return info.pops, info.pushes
	}
	return 0, 0
}

// Size returns the encoded size of an instruction with this opcode.
func (op Opcode) Size() int {
	if op.HasOperand() {
		return 1 + OperandSize
	}
	return 1
}

func (op Opcode) String() string {
	if info := opTable[op]; info != nil {
		return info.name
	}
	return fmt.Sprintf("op_%02x", byte(op))
}

// Lookup returns the opcode with the given mnemonic.
func Lookup(name string) (Opcode, bool) {
	for op, info := range opTable {
		if info != nil && info.name == name {
			return Opcode(op), true
		}
	}
	return 0, false
}
