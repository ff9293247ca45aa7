package rop

import (
	"fmt"
	"strconv"
	"strings"
)

// Engine abstracts a gadget-finding and register-solving engine.
// The gadgets package provides an implementation that searches
// x86 ELF executables.
type Engine interface {
	// SetRegisters returns the chain steps needed to set each register
	// to its corresponding value. Steps are returned in the order they
	// must appear in the chain. The Values are passed through as-is;
	// interpreting them is the caller's job.
	SetRegisters(Registers) ([]Step, error)

	// Syscall returns a gadget that performs a system call.
	Syscall() (Gadget, bool)

	// FindGadget returns a gadget consisting of exactly the specified
	// instructions (e.g., "syscall", "ret").
	FindGadget(insts []string) (Gadget, bool)

	// Version returns the engine's semantic version string.
	Version() string
}

// Gadget is a sequence of instructions at a fixed address.
type Gadget struct {
	Address uint64

	// Insts is the gadget's instructions in lowercase Intel syntax.
	Insts []string

	// Regs is the list of registers popped by the gadget,
	// in the order they are popped from the stack.
	Regs []string
}

func (o Gadget) String() string {
	return strings.Join(o.Insts, "; ")
}

// Step is one pointer-sized slot produced by an Engine.
//
// If Gadget is non-nil, the slot holds the gadget's address.
// Otherwise, the slot holds Value, which is popped into Reg.
// A nil Value means the slot is padding.
type Step struct {
	Gadget *Gadget
	Value  Value
	Reg    string
}

// Registers maps register names to the values they should hold.
type Registers map[string]Value

// Value is something that can be placed in a register or on the stack.
// It is either an Int or Bytes.
type Value interface {
	// String returns a human-readable representation of the value.
	String() string

	isValue()
}

// Int is an integer value.
type Int uint64

func (o Int) String() string {
	return "0x" + strconv.FormatUint(uint64(o), 16)
}

func (Int) isValue() {}

// Bytes is a byte string that is placed after the chain. Its value
// in the chain is its address. A trailing null byte is added when
// the chain is rendered.
type Bytes []byte

func (o Bytes) String() string {
	return strconv.Quote(string(o))
}

func (Bytes) isValue() {}

// ValueOf converts v to a Value. It accepts Value, unsigned and signed
// integers, string, and []byte. Negative integers are converted using
// two's complement.
func ValueOf(v interface{}) (Value, error) {
	switch t := v.(type) {
	case Value:
		return t, nil
	case int:
		return Int(uint64(t)), nil
	case int32:
		return Int(uint64(t)), nil
	case int64:
		return Int(uint64(t)), nil
	case uint:
		return Int(t), nil
	case uint32:
		return Int(t), nil
	case uint64:
		return Int(t), nil
	case uintptr:
		return Int(t), nil
	case string:
		return Bytes(t), nil
	case []byte:
		return Bytes(t), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}
