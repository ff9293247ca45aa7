// Package gadgets finds ROP gadgets in x86 machine code and solves
// register assignments using them. *Finder implements rop.Engine.
//
// Only gadgets that end in "ret", "syscall", or "int 0x80" are
// recorded. Register assignment uses "pop reg; ...; ret" gadgets.
package gadgets

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"gitlab.com/stephen-fox/ropkit/arch"
	"gitlab.com/stephen-fox/ropkit/asmkit"
	"gitlab.com/stephen-fox/ropkit/rop"
)

const (
	// Version is the rop.Engine version implemented by Finder.
	Version = "v0.3.0"

	// DefaultMaxGadgetBytes is the default number of bytes searched
	// before each gadget terminator.
	DefaultMaxGadgetBytes = 12

	// DefaultMaxGadgetInsts is the default maximum number of
	// instructions in a gadget, including the terminator.
	DefaultMaxGadgetInsts = 6
)

var _ rop.Engine = (*Finder)(nil)

// Config configures a Finder.
type Config struct {
	// Arch is the architecture of the code. It may be left empty when
	// loading an ELF, in which case it is read from the ELF header.
	Arch arch.Arch

	// OptMaxGadgetBytes overrides DefaultMaxGadgetBytes.
	OptMaxGadgetBytes int

	// OptMaxGadgetInsts overrides DefaultMaxGadgetInsts.
	OptMaxGadgetInsts int

	// OptLogger, when non-nil, logs search statistics.
	OptLogger *log.Logger
}

// Segment is a chunk of executable code loaded at Addr.
type Segment struct {
	Addr uint64
	Data []byte
}

// FromCodeOrExit calls FromCode. It calls DefaultExitFn if an error occurs.
func FromCodeOrExit(code []byte, addr uint64, config Config) *Finder {
	f, err := FromCode(code, addr, config)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to search code for gadgets - %w", err))
	}
	return f
}

// FromCode searches a single chunk of code loaded at addr.
func FromCode(code []byte, addr uint64, config Config) (*Finder, error) {
	return FromSegments([]Segment{{Addr: addr, Data: code}}, config)
}

// FromSegments searches each Segment for gadgets.
func FromSegments(segments []Segment, config Config) (*Finder, error) {
	err := config.Arch.Validate()
	if err != nil {
		return nil, err
	}

	disass, err := asmkit.NewDisassembler(asmkit.DisassemblerConfig{
		Syntax: asmkit.IntelSyntax,
		Arch:   config.Arch,
	})
	if err != nil {
		return nil, err
	}

	s := &scanner{
		arch:     config.Arch,
		disass:   disass,
		maxBytes: DefaultMaxGadgetBytes,
		maxInsts: DefaultMaxGadgetInsts,
		byText:   make(map[string]rop.Gadget),
	}

	if config.OptMaxGadgetBytes > 0 {
		s.maxBytes = config.OptMaxGadgetBytes
	}

	if config.OptMaxGadgetInsts > 0 {
		s.maxInsts = config.OptMaxGadgetInsts
	}

	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Addr < sorted[j].Addr
	})

	for _, seg := range sorted {
		s.scan(seg)
	}

	f := &Finder{
		arch:   config.Arch,
		byText: s.byText,
	}

	for _, g := range s.byText {
		f.all = append(f.all, g)
		if len(g.Regs) > 0 {
			f.pops = append(f.pops, g)
		}
	}

	byAddr := func(gadgets []rop.Gadget) {
		sort.Slice(gadgets, func(i, j int) bool {
			return gadgets[i].Address < gadgets[j].Address
		})
	}
	byAddr(f.all)
	byAddr(f.pops)

	if config.OptLogger != nil {
		config.OptLogger.Printf("gadgets: found %d unique gadgets (%d pop gadgets) in %d segments",
			len(f.all), len(f.pops), len(segments))
	}

	return f, nil
}

// Finder holds the gadgets found in a set of code segments.
// It is safe for concurrent use once created.
type Finder struct {
	arch   arch.Arch
	all    []rop.Gadget
	pops   []rop.Gadget
	byText map[string]rop.Gadget
}

// Arch returns the architecture of the searched code.
func (o *Finder) Arch() arch.Arch {
	return o.arch
}

// Version returns Version.
func (o *Finder) Version() string {
	return Version
}

// Gadgets returns every unique gadget, sorted by address.
func (o *Finder) Gadgets() []rop.Gadget {
	cp := make([]rop.Gadget, len(o.all))
	copy(cp, o.all)
	return cp
}

// FindGadget returns the gadget consisting of exactly the specified
// instructions. Instructions are compared in lowercase Intel syntax
// with surrounding whitespace removed.
func (o *Finder) FindGadget(insts []string) (rop.Gadget, bool) {
	normalized := make([]string, len(insts))
	for i, inst := range insts {
		normalized[i] = strings.ToLower(strings.TrimSpace(inst))
	}

	g, hasIt := o.byText[strings.Join(normalized, "; ")]
	return g, hasIt
}

// Syscall returns a gadget that enters the kernel. A lone "syscall"
// (or "int 0x80" on i386) is preferred over one followed by "ret".
func (o *Finder) Syscall() (rop.Gadget, bool) {
	inst := "syscall"
	if o.arch == arch.I386 {
		inst = "int 0x80"
	}

	g, found := o.FindGadget([]string{inst})
	if found {
		return g, true
	}

	return o.FindGadget([]string{inst, "ret"})
}

type scanner struct {
	arch     arch.Arch
	disass   *asmkit.Disassembler
	maxBytes int
	maxInsts int
	byText   map[string]rop.Gadget
}

func (o *scanner) scan(seg Segment) {
	for i := range seg.Data {
		termLen := o.terminatorLen(seg.Data[i:])
		if termLen == 0 {
			continue
		}

		end := i + termLen

		lo := i - o.maxBytes
		if lo < 0 {
			lo = 0
		}

		for start := lo; start <= i; start++ {
			g, ok := o.decodeGadget(seg.Data[start:end], seg.Addr+uint64(start))
			if !ok {
				continue
			}

			key := g.String()
			if _, hasIt := o.byText[key]; !hasIt {
				o.byText[key] = g
			}
		}
	}
}

// terminatorLen returns the length of the gadget terminator
// at the start of b, or zero if there is none.
func (o *scanner) terminatorLen(b []byte) int {
	switch {
	case b[0] == 0xc3:
		return 1
	case len(b) > 1 && b[0] == 0x0f && b[1] == 0x05 && o.arch == arch.AMD64:
		return 2
	case len(b) > 1 && b[0] == 0xcd && b[1] == 0x80:
		return 2
	default:
		return 0
	}
}

// decodeGadget decodes code, which must consist of whole instructions
// ending in a terminator with no other control flow before it.
// The only exception is a system call immediately followed by "ret".
func (o *scanner) decodeGadget(code []byte, addr uint64) (rop.Gadget, bool) {
	var insts []asmkit.Inst

	index := 0
	for index < len(code) {
		if len(insts) == o.maxInsts {
			return rop.Gadget{}, false
		}

		inst, err := o.disass.Decode(code[index:], addr+uint64(index))
		if err != nil {
			return rop.Gadget{}, false
		}

		// Truncated instructions decode as a lone prefix byte
		// with no opcode (e.g., "prefix(0x5)").
		if inst.Inst.Op == 0 {
			return rop.Gadget{}, false
		}

		insts = append(insts, inst)
		index += inst.Len
	}

	if index != len(code) {
		return rop.Gadget{}, false
	}

	last := insts[len(insts)-1]
	if !last.IsReturn() && !last.IsSyscall() {
		return rop.Gadget{}, false
	}

	for i, inst := range insts[:len(insts)-1] {
		if !isControlFlow(inst) {
			continue
		}

		isSyscallRet := inst.IsSyscall() && i == len(insts)-2 && last.IsReturn()
		if !isSyscallRet {
			return rop.Gadget{}, false
		}
	}

	g := rop.Gadget{
		Address: addr,
		Insts:   make([]string, len(insts)),
	}

	for i, inst := range insts {
		g.Insts[i] = inst.Dis
	}

	g.Regs = o.poppedRegisters(insts)

	return g, true
}

// poppedRegisters returns the registers popped by a "pop; ...; ret"
// gadget, or nil if the gadget does anything other than pop
// pointer-sized registers before returning.
func (o *scanner) poppedRegisters(insts []asmkit.Inst) []string {
	if len(insts) < 2 || !insts[len(insts)-1].IsReturn() {
		return nil
	}

	var regs []string
	for _, inst := range insts[:len(insts)-1] {
		reg, ok := inst.PoppedRegister()
		if !ok || !o.isPointerRegister(reg) {
			return nil
		}

		regs = append(regs, reg)
	}

	return regs
}

func (o *scanner) isPointerRegister(reg string) bool {
	_, hasIt := pointerRegisters[o.arch][reg]
	return hasIt
}

var pointerRegisters = map[arch.Arch]map[string]struct{}{
	arch.AMD64: toSet("rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"),
	arch.I386: toSet("eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp"),
}

func toSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func isControlFlow(inst asmkit.Inst) bool {
	op := inst.Inst.Op.String()

	for _, prefix := range []string{"J", "CALL", "LCALL", "LJMP", "RET", "LRET", "IRET",
		"LOOP", "INT", "SYS", "HLT", "UD"} {
		if strings.HasPrefix(op, prefix) {
			return true
		}
	}

	return false
}
