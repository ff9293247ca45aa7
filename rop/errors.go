package rop

import (
	"errors"
	"log"
)

var (
	// ErrUnrecognizedRegister means a register name is not valid
	// for the chain's architecture.
	ErrUnrecognizedRegister = errors.New("unrecognized register")

	// ErrUnsupportedArchitecture means an operation is not implemented
	// for the chain's architecture.
	ErrUnsupportedArchitecture = errors.New("unsupported architecture")

	// ErrUnsupportedToolkitVersion means the Engine's version is
	// too old for the requested operation.
	ErrUnsupportedToolkitVersion = errors.New("unsupported engine version")

	// ErrGadgetNotFound means no suitable gadget exists.
	ErrGadgetNotFound = errors.New("gadget not found")

	// ErrTooManyArguments means a call has more arguments than
	// the calling convention has registers for.
	ErrTooManyArguments = errors.New("too many arguments")
)

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)
