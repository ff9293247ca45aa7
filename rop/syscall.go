package rop

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"gitlab.com/stephen-fox/ropkit/arch"
)

const (
	// MinStrictSyscallVersion is the oldest Engine version that can
	// reliably find "syscall; ret" gadgets.
	MinStrictSyscallVersion = "v0.2.0"
)

// Capabilities describes the optional features supported by an Engine.
type Capabilities struct {
	// EngineVersion is the canonical form of the Engine's version,
	// or the raw string if it is not a valid semantic version.
	EngineVersion string

	// StrictSyscallRet is true if the Engine can find
	// "syscall; ret" gadgets.
	StrictSyscallRet bool
}

// NegotiateCapabilities determines which features an Engine supports
// based on its version string. A missing "v" prefix is tolerated.
// Invalid versions support no optional features.
func NegotiateCapabilities(engineVersion string) Capabilities {
	v := strings.TrimSpace(engineVersion)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}

	if !semver.IsValid(v) {
		return Capabilities{
			EngineVersion: engineVersion,
		}
	}

	return Capabilities{
		EngineVersion:    semver.Canonical(v),
		StrictSyscallRet: semver.Compare(v, MinStrictSyscallVersion) >= 0,
	}
}

type syscallConfig struct {
	strictRet bool
}

// SyscallOption customizes SystemCall.
type SyscallOption func(*syscallConfig)

// WithSyscallRet makes SystemCall use a "syscall; ret" gadget rather
// than any syscall gadget. This allows the chain to continue after
// the system call returns.
func WithSyscallRet() SyscallOption {
	return func(c *syscallConfig) {
		c.strictRet = true
	}
}

// SystemCallOrExit calls SystemCall. It calls DefaultExitFn if an error
// occurs.
func (o *ROP) SystemCallOrExit(num uint64, args []Value, opts ...SyscallOption) {
	err := o.SystemCall(num, args, opts...)
	if err != nil {
		DefaultExitFn(err)
	}
}

// SystemCall appends a system call to the chain without resorting to
// sigreturn-oriented programming. The system call number is popped into
// the syscall number register, the arguments are popped into the
// argument registers, and then a syscall gadget is executed.
// Bytes arguments are placed after the chain and passed by address.
//
// Only amd64 is supported. ErrUnsupportedArchitecture is returned for
// other architectures before any gadget search is attempted.
//
// The chain is not modified if an error occurs.
func (o *ROP) SystemCall(num uint64, args []Value, opts ...SyscallOption) error {
	if o.arch != arch.AMD64 {
		return fmt.Errorf("system calls are only implemented for %s, not %s - %w",
			arch.AMD64, o.arch, ErrUnsupportedArchitecture)
	}

	var config syscallConfig
	for _, opt := range opts {
		opt(&config)
	}

	argRegs := o.arch.SyscallArgumentRegisters()
	if len(args) > len(argRegs) {
		return fmt.Errorf("system call %d has %d arguments, but only %d are supported - %w",
			num, len(args), len(argRegs), ErrTooManyArguments)
	}

	syscall, err := o.syscallGadget(config)
	if err != nil {
		return err
	}

	numReg := o.arch.SyscallNumberRegister()

	numSteps, err := o.engine.SetRegisters(Registers{numReg: Int(num)})
	if err != nil {
		return fmt.Errorf("failed to set system call number register %s - %w", numReg, err)
	}

	argIndexes := make(map[string]int, len(args))
	argValues := make(Registers, len(args))
	for i, v := range args {
		if v == nil {
			return fmt.Errorf("system call argument %d is nil", i)
		}

		argIndexes[argRegs[i]] = i
		argValues[argRegs[i]] = v
	}

	var elems []Element
	elems = append(elems, stepsToElements(numSteps, nil)...)

	if len(args) > 0 {
		argSteps, err := o.engine.SetRegisters(argValues)
		if err != nil {
			return fmt.Errorf("failed to set system call arguments - %w", err)
		}

		if popsRegister(argSteps, numReg) {
			// The argument gadgets clobber the system call number.
			// Solve everything at once so the engine can avoid it.
			all := make(Registers, len(argValues)+1)
			for reg, v := range argValues {
				all[reg] = v
			}
			all[numReg] = Int(num)

			allSteps, err := o.engine.SetRegisters(all)
			if err != nil {
				return fmt.Errorf("failed to set system call number and arguments - %w", err)
			}

			elems = stepsToElements(allSteps, argIndexes)
		} else {
			elems = append(elems, stepsToElements(argSteps, argIndexes)...)
		}
	}

	elems = append(elems, Element{
		Kind:   GadgetElement,
		Gadget: syscall,
	})

	o.append(elems...)

	return nil
}

func (o *ROP) syscallGadget(config syscallConfig) (Gadget, error) {
	if config.strictRet {
		if !o.caps.StrictSyscallRet {
			return Gadget{}, fmt.Errorf("\"syscall; ret\" gadgets require engine version %s or newer (engine is %q) - %w",
				MinStrictSyscallVersion, o.caps.EngineVersion, ErrUnsupportedToolkitVersion)
		}

		g, found := o.engine.FindGadget([]string{"syscall", "ret"})
		if !found {
			return Gadget{}, fmt.Errorf("failed to find a \"syscall; ret\" gadget - %w", ErrGadgetNotFound)
		}

		return g, nil
	}

	g, found := o.engine.Syscall()
	if !found {
		return Gadget{}, fmt.Errorf("failed to find a syscall gadget - %w", ErrGadgetNotFound)
	}

	return g, nil
}

func popsRegister(steps []Step, reg string) bool {
	for _, step := range steps {
		if step.Gadget == nil && step.Reg == reg {
			return true
		}
	}
	return false
}
