package arch

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := map[string]Arch{
		"amd64":  AMD64,
		"x86_64": AMD64,
		" X64 ":  AMD64,
		"i386":   I386,
		"x86":    I386,
	}

	for str, exp := range tests {
		a, err := Parse(str)
		if err != nil {
			t.Fatalf("%q - %s", str, err)
		}

		if a != exp {
			t.Fatalf("%q: expected %q - got %q", str, exp, a)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("mips")
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown - got %v", err)
	}
}

func TestArch_ZeroValue(t *testing.T) {
	var a Arch

	if !errors.Is(a.Validate(), ErrUnknown) {
		t.Fatal("zero value should not validate")
	}

	if a.IsRegister("rax") {
		t.Fatal("zero value should not have registers")
	}
}

func TestAMD64(t *testing.T) {
	if AMD64.PointerSize() != 8 {
		t.Fatalf("expected 8 - got %d", AMD64.PointerSize())
	}

	if AMD64.ByteOrder() != binary.LittleEndian {
		t.Fatal("expected little endian")
	}

	if !AMD64.IsRegister("rdi") || AMD64.IsRegister("RDI") || AMD64.IsRegister("x0") {
		t.Fatal("unexpected register set membership")
	}

	if AMD64.SyscallNumberRegister() != "rax" {
		t.Fatalf("unexpected syscall register: %s", AMD64.SyscallNumberRegister())
	}

	args := AMD64.SyscallArgumentRegisters()
	args[0] = "clobbered"
	if AMD64.SyscallArgumentRegisters()[0] != "rdi" {
		t.Fatal("syscall argument registers should be copied")
	}
}

func TestI386(t *testing.T) {
	if I386.PointerSize() != 4 {
		t.Fatalf("expected 4 - got %d", I386.PointerSize())
	}

	if I386.IsRegister("rax") {
		t.Fatal("rax is not an i386 register")
	}
}

func TestFromELFMachine(t *testing.T) {
	a, err := FromELFMachine(elf.EM_X86_64)
	if err != nil {
		t.Fatal(err)
	}

	if a != AMD64 {
		t.Fatalf("expected amd64 - got %s", a)
	}

	_, err = FromELFMachine(elf.EM_MIPS)
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown - got %v", err)
	}
}

func TestRegisters_Sorted(t *testing.T) {
	regs := I386.Registers()
	for i := 1; i < len(regs); i++ {
		if regs[i-1] > regs[i] {
			t.Fatalf("registers are not sorted: %v", regs)
		}
	}
}
