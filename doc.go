/* Command stackvm: a small bytecode stack machine

Programs are flat byte streams: one opcode byte per instruction, with an 8
byte little endian signed operand following push, jmp, jz, jnz, and call.
Jump and call operands are instruction indices, not byte offsets. There is no
header and no data section; scratch memory starts out zeroed.

The machine keeps a bounded operand stack of 64-bit integers, a bounded call
stack of return indices, and a bounded word addressed memory. Arithmetic wraps
around on overflow. Anything the machine cannot carry out (popping an empty
stack, dividing by zero, jumping out of the program, reading past the end of
input, and so on) stops it with a fault, leaving its state exactly as it was
before the faulting instruction.

	00 nop    01 halt   02 exit
	10 push   11 pop    12 dup    13 swap   14 over
	20 add    21 sub    22 mul    23 div    24 mod    25 neg
	30 eq     31 ne     32 lt     33 le     34 gt     35 ge     36 not
	40 jmp    41 jz     42 jnz    43 call   44 ret
	50 load   51 store
	60 print  61 printc 62 read

Subcommands:

	stackvm run program.bin      execute a program
	stackvm disasm program.bin   print one line per instruction
	stackvm check program.bin    decode and validate programs
	stackvm inspect snapshot     dump a saved machine snapshot

Settings that run does not get from flags come from the nearest stackvm.toml,
searching upward from the working directory:

	[vm]
	mem-size = 4096
	stack-limit = 1024
	call-depth = 256
	step-limit = 0

	[run]
	lazy-jumps = false
	prompt = "? "

Exit status of run:

	0      halt
	N      exit with code N, masked to a byte
	1      any other error, e.g. an unreadable file
	2      bad usage or configuration
	3      malformed program
	4      jump target out of range, found while loading
	10-21  fault, one code per kind, in the order of vm.FaultKinds

*/
package main
