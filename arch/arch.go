// Package arch describes the target architectures supported by ropkit.
//
// An Arch value replaces the "global context" found in other exploitation
// toolkits. It is passed explicitly to every constructor and function
// that behaves differently per architecture. The zero value is invalid.
package arch

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// AMD64 is 64-bit x86.
	AMD64 Arch = "amd64"

	// I386 is 32-bit x86.
	I386 Arch = "i386"
)

// ErrUnknown is returned when an architecture is not supported.
var ErrUnknown = errors.New("unknown architecture")

// Arch identifies a CPU architecture.
type Arch string

type info struct {
	bits          int
	byteOrder     binary.ByteOrder
	registers     map[string]struct{}
	syscallNumReg string
	syscallArgs   []string
	elfMachine    elf.Machine
}

var infos = map[Arch]info{
	AMD64: {
		bits:      64,
		byteOrder: binary.LittleEndian,
		registers: toSet(
			"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp", "rip",
			"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
			"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp",
			"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d",
			"ax", "bx", "cx", "dx", "si", "di", "bp", "sp",
			"r8w", "r9w", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w",
			"al", "bl", "cl", "dl", "sil", "dil", "bpl", "spl",
			"ah", "bh", "ch", "dh",
			"r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b",
		),
		syscallNumReg: "rax",
		syscallArgs:   []string{"rdi", "rsi", "rdx", "r10", "r8", "r9"},
		elfMachine:    elf.EM_X86_64,
	},
	I386: {
		bits:      32,
		byteOrder: binary.LittleEndian,
		registers: toSet(
			"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp", "eip",
			"ax", "bx", "cx", "dx", "si", "di", "bp", "sp",
			"al", "bl", "cl", "dl", "ah", "bh", "ch", "dh",
		),
		syscallNumReg: "eax",
		syscallArgs:   []string{"ebx", "ecx", "edx", "esi", "edi", "ebp"},
		elfMachine:    elf.EM_386,
	},
}

func toSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Parse converts a string such as "amd64" or "x86_64" into an Arch.
func Parse(str string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "amd64", "x86_64", "x86-64", "x64":
		return AMD64, nil
	case "i386", "i686", "x86", "386":
		return I386, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknown, str)
	}
}

// FromELFMachine returns the Arch for an ELF e_machine value.
func FromELFMachine(machine elf.Machine) (Arch, error) {
	for a, inf := range infos {
		if inf.elfMachine == machine {
			return a, nil
		}
	}

	return "", fmt.Errorf("%w: elf machine %s", ErrUnknown, machine)
}

// Validate returns a non-nil error if the Arch is not supported.
func (o Arch) Validate() error {
	if _, hasIt := infos[o]; !hasIt {
		return fmt.Errorf("%w: %q", ErrUnknown, string(o))
	}

	return nil
}

func (o Arch) String() string {
	return string(o)
}

func (o Arch) info() info {
	inf, hasIt := infos[o]
	if !hasIt {
		panic(fmt.Sprintf("unsupported architecture: %q", string(o)))
	}
	return inf
}

// Bits returns the architecture's word size in bits.
func (o Arch) Bits() int {
	return o.info().bits
}

// PointerSize returns the size of a pointer in bytes.
func (o Arch) PointerSize() int {
	return o.info().bits / 8
}

// ByteOrder returns the conventional byte order used when packing
// integers for the architecture.
func (o Arch) ByteOrder() binary.ByteOrder {
	return o.info().byteOrder
}

// ELFMachine returns the ELF e_machine value for the architecture.
func (o Arch) ELFMachine() elf.Machine {
	return o.info().elfMachine
}

// IsRegister returns true if name is a valid register name for
// the architecture. Names are case-sensitive and lowercase.
func (o Arch) IsRegister(name string) bool {
	inf, hasIt := infos[o]
	if !hasIt {
		return false
	}

	_, hasIt = inf.registers[name]
	return hasIt
}

// Registers returns the sorted list of valid register names.
func (o Arch) Registers() []string {
	inf := o.info()

	names := make([]string, 0, len(inf.registers))
	for name := range inf.registers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// SyscallNumberRegister returns the register holding the system
// call number (e.g., "rax" on amd64).
func (o Arch) SyscallNumberRegister() string {
	return o.info().syscallNumReg
}

// SyscallArgumentRegisters returns the registers used to pass system
// call arguments on Linux, in argument order.
func (o Arch) SyscallArgumentRegisters() []string {
	args := o.info().syscallArgs
	cp := make([]string, len(args))
	copy(cp, args)
	return cp
}
