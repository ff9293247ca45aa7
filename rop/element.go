package rop

import "fmt"

// ElementKind identifies what an Element represents.
type ElementKind int

const (
	// GadgetElement is the address of a gadget.
	GadgetElement ElementKind = iota

	// ValueElement is a value popped into a register.
	ValueElement

	// ArgumentElement is a value popped into a register as
	// an argument to a call.
	ArgumentElement

	// PaddingElement is junk consumed by a pop whose register
	// was not requested.
	PaddingElement

	// RawElement is a literal value added by ROP.Raw.
	RawElement
)

func (o ElementKind) String() string {
	switch o {
	case GadgetElement:
		return "gadget"
	case ValueElement:
		return "value"
	case ArgumentElement:
		return "argument"
	case PaddingElement:
		return "padding"
	case RawElement:
		return "raw"
	default:
		return fmt.Sprintf("unknown (%d)", int(o))
	}
}

// Element is a single pointer-sized slot in a chain.
type Element struct {
	Kind ElementKind

	// Gadget is set for GadgetElement.
	Gadget Gadget

	// Value is set for ValueElement, ArgumentElement, and RawElement.
	Value Value

	// Reg is the register the slot is popped into, if any.
	Reg string

	// ArgIndex is the argument number for ArgumentElement.
	ArgIndex int
}

func (o Element) description() string {
	switch o.Kind {
	case GadgetElement:
		return o.Gadget.String()
	case ArgumentElement:
		return fmt.Sprintf("[arg%d] %s = %s", o.ArgIndex, o.Reg, o.Value)
	case PaddingElement:
		if o.Reg != "" {
			return fmt.Sprintf("<pad %s>", o.Reg)
		}
		return "<pad>"
	case ValueElement:
		if _, isBytes := o.Value.(Bytes); isBytes {
			return fmt.Sprintf("%s = %s", o.Reg, o.Value)
		}
		return ""
	default:
		if _, isBytes := o.Value.(Bytes); isBytes {
			return o.Value.String()
		}
		return ""
	}
}
