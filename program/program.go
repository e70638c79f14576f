// Package program implements the binary program format: decoding raw bytes
// into an immutable instruction sequence, encoding it back, and eager
// validation of jump targets.
//
// Every instruction is a single opcode byte, followed by an 8 byte little
// endian signed operand for those opcodes that take one (push and the jump
// family). There is no header; a program is just its instructions, in order,
// until the end of the stream.
package program

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Instruction is a single decoded instruction. Arg is only meaningful when
// Op.HasOperand().
type Instruction struct {
	Op  Opcode
	Arg int64
}

func (in Instruction) String() string {
	if !in.Op.HasOperand() {
		return in.Op.String()
	}
	return in.Op.String() + " " + strconv.FormatInt(in.Arg, 10)
}

// Program is an ordered, 0-indexed sequence of instructions. A Program is
// never modified after construction, so it may be shared between any number
// of runs.
type Program struct {
	code    []Instruction
	offsets []int
}

// New builds a program directly from instructions, computing the byte offsets
// that encoding them would produce.
func New(code ...Instruction) *Program {
	p := &Program{
		code:    append([]Instruction(nil), code...),
		offsets: make([]int, len(code)),
	}
	off := 0
	for i, in := range p.code {
		p.offsets[i] = off
		off += in.Op.Size()
	}
	return p
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	if p == nil {
		return 0
	}
	return len(p.code)
}

// At returns the i-th instruction; i must be in [0, Len()).
func (p *Program) At(i int) Instruction { return p.code[i] }

// Offset returns the byte offset of the i-th instruction in the encoding.
func (p *Program) Offset(i int) int { return p.offsets[i] }

// Instructions returns a copy of the instruction sequence.
func (p *Program) Instructions() []Instruction {
	return append([]Instruction(nil), p.code...)
}

// Disassemble writes one line per instruction to w: index, byte offset,
// mnemonic, and operand when present.
func (p *Program) Disassemble(w io.Writer) error {
	width := len(strconv.Itoa(p.Len()))
	var sb strings.Builder
	for i, in := range p.code {
		sb.Reset()
		fmt.Fprintf(&sb, "%*d @%04x  %v\n", width, i, p.offsets[i], in)
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// Builders for hand assembled programs.

func Op(op Opcode) Instruction                 { return Instruction{Op: op} }
func PushOf(v int64) Instruction               { return Instruction{Op: Push, Arg: v} }
func JumpTo(op Opcode, target int) Instruction { return Instruction{Op: op, Arg: int64(target)} }
