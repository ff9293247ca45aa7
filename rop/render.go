package rop

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/stephen-fox/ropkit/iokit"
	"gitlab.com/stephen-fox/ropkit/memory"
)

type slot struct {
	elem    Element
	pointer memory.Pointer
}

type appendedData struct {
	address uint64
	data    []byte
}

type chainLayout struct {
	slots    []slot
	appended []appendedData
}

// layout resolves every element to a pointer. Byte strings are placed
// after the chain, null-terminated and padded to the pointer size.
func (o *ROP) layout(base uint64) (chainLayout, error) {
	ptrSize := o.pm.PointerSize()
	chainLen := uint64(len(o.chain) * ptrSize)
	padding := o.newPadding()

	var result chainLayout
	var appendedLen uint64

	for i, elem := range o.chain {
		var address uint64

		switch {
		case elem.Kind == GadgetElement:
			address = elem.Gadget.Address
		case elem.Kind == PaddingElement:
			raw, err := padding.Pattern(ptrSize)
			if err != nil {
				return chainLayout{}, fmt.Errorf("failed to generate padding for element %d - %w", i, err)
			}

			pointer, err := o.pm.FromRaw(raw)
			if err != nil {
				return chainLayout{}, fmt.Errorf("failed to create padding for element %d - %w", i, err)
			}

			result.slots = append(result.slots, slot{elem: elem, pointer: pointer})
			continue
		default:
			switch v := elem.Value.(type) {
			case Int:
				address = uint64(v)
			case Bytes:
				address = base + chainLen + appendedLen

				data, err := iokit.NewPayloadBuilder().
					Bytes(v).
					Bytes([]byte{0}).
					Align(ptrSize, 0).
					Build()
				if err != nil {
					return chainLayout{}, fmt.Errorf("failed to encode element %d - %w", i, err)
				}

				result.appended = append(result.appended, appendedData{
					address: address,
					data:    data,
				})

				appendedLen += uint64(len(data))
			default:
				return chainLayout{}, fmt.Errorf("element %d has unsupported value type %T", i, elem.Value)
			}
		}

		pointer := o.pm.FromUint(address)
		if pointer.Uint() != address {
			return chainLayout{}, fmt.Errorf("element %d value 0x%x does not fit in a %d-byte pointer",
				i, address, ptrSize)
		}

		result.slots = append(result.slots, slot{elem: elem, pointer: pointer})
	}

	return result, nil
}

// ChainOrExit calls Chain. It calls DefaultExitFn if an error occurs.
func (o *ROP) ChainOrExit(base uint64) []byte {
	b, err := o.Chain(base)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to build rop chain - %w", err))
	}
	return b
}

// Chain returns the raw bytes of the chain. base is the address that
// the chain will be written to. It is only needed when the chain
// contains Bytes values, whose addresses are relative to base.
// Pass zero if the address is unknown.
//
// The chain is not modified.
func (o *ROP) Chain(base uint64) ([]byte, error) {
	l, err := o.layout(base)
	if err != nil {
		return nil, err
	}

	builder := iokit.NewPayloadBuilder().SetEndianness(o.arch.ByteOrder())

	for _, s := range l.slots {
		builder.Pointer(s.pointer)
	}

	for _, a := range l.appended {
		builder.Bytes(a.data)
	}

	return builder.Build()
}

// DumpOrExit calls Dump. It calls DefaultExitFn if an error occurs.
func (o *ROP) DumpOrExit(base uint64) string {
	str, err := o.Dump(base)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to dump rop chain - %w", err))
	}
	return str
}

// Dump returns a human-readable listing of the chain, one slot per
// line. Each line contains the slot's address, its value, and a
// description of the value when one is available:
//
//	0x0000:           0x401016 pop rax; ret
//	0x0008:               0x3b
//	0x0010:           0x401012 pop rdx; pop rsi; ret
//	0x0018:                0x0 [arg2] rdx = 0x0
//
// The chain is not modified.
func (o *ROP) Dump(base uint64) (string, error) {
	l, err := o.layout(base)
	if err != nil {
		return "", err
	}

	ptrSize := uint64(o.pm.PointerSize())
	var lines []string

	for i, s := range l.slots {
		line := fmt.Sprintf("0x%04x: %18s %s",
			base+uint64(i)*ptrSize, s.pointer.HexString(), s.elem.description())

		lines = append(lines, strings.TrimRight(line, " "))
	}

	for _, a := range l.appended {
		lines = append(lines, fmt.Sprintf("0x%04x: %18s",
			a.address, strconv.Quote(string(a.data))))
	}

	return strings.Join(lines, "\n"), nil
}
