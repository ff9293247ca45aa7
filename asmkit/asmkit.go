// Package asmkit decodes x86 machine code.
package asmkit

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"gitlab.com/stephen-fox/ropkit/arch"
)

const (
	SkipSyntax  DisassemblySyntax = ""
	ATTSyntax   DisassemblySyntax = "att"
	GoSyntax    DisassemblySyntax = "go"
	IntelSyntax DisassemblySyntax = "intel"
)

type DisassemblySyntax string

type DisassemblerConfig struct {
	Syntax DisassemblySyntax
	Arch   arch.Arch
}

func NewDisassembler(config DisassemblerConfig) (*Disassembler, error) {
	err := config.Arch.Validate()
	if err != nil {
		return nil, err
	}

	var disassemblyFn func(inst x86asm.Inst, pc uint64) string
	switch config.Syntax {
	case SkipSyntax:
		// Do nothing.
	case ATTSyntax:
		disassemblyFn = func(inst x86asm.Inst, pc uint64) string {
			return x86asm.GNUSyntax(inst, pc, nil)
		}
	case GoSyntax:
		disassemblyFn = func(inst x86asm.Inst, pc uint64) string {
			return x86asm.GoSyntax(inst, pc, nil)
		}
	case IntelSyntax:
		disassemblyFn = func(inst x86asm.Inst, pc uint64) string {
			return x86asm.IntelSyntax(inst, pc, nil)
		}
	default:
		return nil, fmt.Errorf("unsupported syntax type for x86: %q", config.Syntax)
	}

	return &Disassembler{
		bits:          config.Arch.Bits(),
		disassemblyFn: disassemblyFn,
	}, nil
}

// Disassembler decodes instructions for a single architecture.
type Disassembler struct {
	bits          int
	disassemblyFn func(inst x86asm.Inst, pc uint64) string
}

// All decodes rawInstructions from start to finish, calling onDecodeFn
// for each instruction. addr is the virtual address of the first byte.
func (o *Disassembler) All(rawInstructions []byte, addr uint64, onDecodeFn func(Inst) error) error {
	index := 0

	for index < len(rawInstructions) {
		inst, err := o.Decode(rawInstructions[index:], addr+uint64(index))
		if err != nil {
			return fmt.Errorf("failed to decode instruction %d - %w - remaining data: 0x%x",
				index, err, rawInstructions[index:])
		}

		inst.Index = index

		err = onDecodeFn(inst)
		if err != nil {
			return fmt.Errorf("on decode function failed for instruction %d (%q) - %w",
				index, inst.Dis, err)
		}

		index += inst.Len
	}

	return nil
}

// Decode decodes the first instruction in rawInstructions.
func (o *Disassembler) Decode(rawInstructions []byte, addr uint64) (Inst, error) {
	x86Inst, err := x86asm.Decode(rawInstructions, o.bits)
	if err != nil {
		return Inst{}, err
	}

	var disassembly string
	if o.disassemblyFn != nil {
		disassembly = strings.ToLower(o.disassemblyFn(x86Inst, addr))
	}

	return Inst{
		Bin:  copySlice(rawInstructions, x86Inst.Len),
		Len:  x86Inst.Len,
		Addr: addr,
		Dis:  disassembly,
		Inst: x86Inst,
	}, nil
}

func copySlice(src []byte, numBytes int) []byte {
	cp := make([]byte, numBytes)

	copy(cp, src[0:numBytes])

	return cp
}

type Inst struct {
	Bin   []byte
	Len   int
	Index int
	Addr  uint64
	Dis   string
	Inst  x86asm.Inst
}

// PoppedRegister returns the lowercase name of the register written
// by a "pop reg" instruction.
func (o Inst) PoppedRegister() (string, bool) {
	if o.Inst.Op != x86asm.POP {
		return "", false
	}

	reg, ok := o.Inst.Args[0].(x86asm.Reg)
	if !ok {
		return "", false
	}

	return strings.ToLower(reg.String()), true
}

// IsReturn returns true if the instruction is a near "ret"
// without an immediate stack adjustment.
func (o Inst) IsReturn() bool {
	return o.Inst.Op == x86asm.RET && o.Inst.Args[0] == nil
}

// IsSyscall returns true if the instruction enters the kernel
// using "syscall" or "int 0x80".
func (o Inst) IsSyscall() bool {
	switch o.Inst.Op {
	case x86asm.SYSCALL:
		return true
	case x86asm.INT:
		imm, ok := o.Inst.Args[0].(x86asm.Imm)
		return ok && imm == 0x80
	default:
		return false
	}
}
