package rop

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"gitlab.com/stephen-fox/ropkit/arch"
	"gitlab.com/stephen-fox/ropkit/iokit"
	"gitlab.com/stephen-fox/ropkit/memory"
	"gitlab.com/stephen-fox/ropkit/pattern"
)

// Config configures a new ROP.
type Config struct {
	// Arch is the target architecture. It is required.
	Arch arch.Arch

	// Engine finds gadgets and solves register assignments.
	// It is required.
	Engine Engine

	// OptPadding optionally returns the generator used to fill
	// padding slots. It is called once per rendering so that
	// rendering the same chain twice produces the same bytes.
	// By default, a cyclic pattern is used.
	OptPadding func() iokit.PatternGenerator

	// OptLogger, when non-nil, logs each element appended
	// to the chain.
	OptLogger *log.Logger
}

// NewOrExit calls New. It calls DefaultExitFn if an error occurs.
func NewOrExit(config Config) *ROP {
	r, err := New(config)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to create rop chain - %w", err))
	}
	return r
}

// New creates a new, empty ROP chain. The Engine's version is checked
// once here to determine which optional features are available.
func New(config Config) (*ROP, error) {
	err := config.Arch.Validate()
	if err != nil {
		return nil, err
	}

	if config.Engine == nil {
		return nil, errors.New("engine cannot be nil")
	}

	pm, err := memory.PointerMakerFor(config.Arch)
	if err != nil {
		return nil, err
	}

	newPadding := config.OptPadding
	if newPadding == nil {
		newPadding = func() iokit.PatternGenerator {
			return pattern.NewCyclic(config.Arch.PointerSize())
		}
	}

	r := &ROP{
		arch:       config.Arch,
		engine:     config.Engine,
		pm:         pm,
		caps:       NegotiateCapabilities(config.Engine.Version()),
		newPadding: newPadding,
		logger:     config.OptLogger,
	}

	r.setters = make(map[string]RegisterSetter)
	for _, name := range config.Arch.Registers() {
		name := name
		r.setters[name] = func(v Value) error {
			return r.Pop(Registers{name: v})
		}
	}

	return r, nil
}

// ROP is a return-oriented programming chain.
//
// Elements are appended by Pop, Reg, Raw, and SystemCall. The chain is
// turned into bytes by Chain, and into a human-readable listing by Dump.
//
// A ROP is not safe for concurrent use.
type ROP struct {
	arch       arch.Arch
	engine     Engine
	pm         memory.PointerMaker
	caps       Capabilities
	setters    map[string]RegisterSetter
	newPadding func() iokit.PatternGenerator
	logger     *log.Logger
	chain      []Element
}

// RegisterSetter sets a single register to a value.
type RegisterSetter func(v Value) error

// Arch returns the chain's architecture.
func (o *ROP) Arch() arch.Arch {
	return o.arch
}

// Capabilities returns the features negotiated with the Engine.
func (o *ROP) Capabilities() Capabilities {
	return o.caps
}

// Len returns the number of elements in the chain.
func (o *ROP) Len() int {
	return len(o.chain)
}

// Elements returns a copy of the chain's elements.
func (o *ROP) Elements() []Element {
	cp := make([]Element, len(o.chain))
	copy(cp, o.chain)
	return cp
}

// PopOrExit calls Pop. It calls DefaultExitFn if an error occurs.
func (o *ROP) PopOrExit(regs Registers) {
	err := o.Pop(regs)
	if err != nil {
		DefaultExitFn(err)
	}
}

// Pop appends the gadgets and values needed to set each register
// to its value, as solved by the Engine. Every register name must
// be valid for the chain's architecture. The chain is not modified
// if an error occurs.
//
//	err := chain.Pop(rop.Registers{"rax": rop.Int(0x3b), "rsi": rop.Int(0)})
func (o *ROP) Pop(regs Registers) error {
	names, err := o.checkRegisters(regs)
	if err != nil {
		return err
	}

	steps, err := o.engine.SetRegisters(regs)
	if err != nil {
		return fmt.Errorf("failed to set %s - %w", strings.Join(names, ", "), err)
	}

	o.append(stepsToElements(steps, nil)...)

	return nil
}

// Reg returns a function that sets the named register. It returns
// ErrUnrecognizedRegister if name is not a register on the chain's
// architecture.
//
//	setRDI, err := chain.Reg("rdi")
//	...
//	err = setRDI(rop.Int(1))
func (o *ROP) Reg(name string) (RegisterSetter, error) {
	setter, hasIt := o.setters[name]
	if !hasIt {
		return nil, fmt.Errorf("%q is not a valid %s register - %w",
			name, o.arch, ErrUnrecognizedRegister)
	}

	return setter, nil
}

// PopReg sets a single register. It is equivalent to calling Reg and
// then calling the returned function.
func (o *ROP) PopReg(name string, v Value) error {
	setter, err := o.Reg(name)
	if err != nil {
		return err
	}

	return setter(v)
}

// Raw appends values to the chain as-is. Use Int for addresses.
func (o *ROP) Raw(values ...Value) {
	elems := make([]Element, len(values))
	for i, v := range values {
		elems[i] = Element{
			Kind:  RawElement,
			Value: v,
		}
	}

	o.append(elems...)
}

func (o *ROP) append(elems ...Element) {
	for _, elem := range elems {
		if o.logger != nil {
			o.logger.Printf("rop: appending %s element %d: %s",
				elem.Kind, len(o.chain), elem.description())
		}

		o.chain = append(o.chain, elem)
	}
}

func (o *ROP) checkRegisters(regs Registers) ([]string, error) {
	if len(regs) == 0 {
		return nil, errors.New("no registers were specified")
	}

	names := make([]string, 0, len(regs))
	for name, v := range regs {
		if !o.arch.IsRegister(name) {
			return nil, fmt.Errorf("%q is not a valid %s register - %w",
				name, o.arch, ErrUnrecognizedRegister)
		}

		if v == nil {
			return nil, fmt.Errorf("value for register %q is nil", name)
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// stepsToElements converts Engine steps into chain elements. Steps that
// pop a register listed in argIndexes become ArgumentElements.
func stepsToElements(steps []Step, argIndexes map[string]int) []Element {
	elems := make([]Element, 0, len(steps))

	for _, step := range steps {
		switch {
		case step.Gadget != nil:
			elems = append(elems, Element{
				Kind:   GadgetElement,
				Gadget: *step.Gadget,
			})
		case step.Value == nil:
			elems = append(elems, Element{
				Kind: PaddingElement,
				Reg:  step.Reg,
			})
		default:
			i, isArg := argIndexes[step.Reg]
			if isArg {
				elems = append(elems, Element{
					Kind:     ArgumentElement,
					Value:    step.Value,
					Reg:      step.Reg,
					ArgIndex: i,
				})
			} else {
				elems = append(elems, Element{
					Kind:  ValueElement,
					Value: step.Value,
					Reg:   step.Reg,
				})
			}
		}
	}

	return elems
}
