package gadgets

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"

	"gitlab.com/stephen-fox/ropkit/arch"
)

// FromELFFileOrExit calls FromELFFile. It calls DefaultExitFn if an
// error occurs.
func FromELFFileOrExit(filePath string, config Config) *Finder {
	f, err := FromELFFile(filePath, config)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to find gadgets in %q - %w", filePath, err))
	}
	return f
}

// FromELFFile opens the ELF at filePath and calls FromELF.
func FromELFFile(filePath string, config Config) (*Finder, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return FromELF(f, config)
}

// FromELF searches the executable segments of an ELF for gadgets.
// If config.Arch is empty, the architecture is read from the ELF
// header. Otherwise, it must match the header.
//
// Gadget addresses are the virtual addresses in the ELF. For
// position-independent executables and shared libraries, add
// the load address when building a chain.
func FromELF(r io.ReaderAt, config Config) (*Finder, error) {
	elfFile, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse elf - %w", err)
	}
	defer elfFile.Close()

	elfArch, err := arch.FromELFMachine(elfFile.Machine)
	if err != nil {
		return nil, err
	}

	if config.Arch == "" {
		config.Arch = elfArch
	} else if config.Arch != elfArch {
		return nil, fmt.Errorf("elf architecture is %s, but %s was specified",
			elfArch, config.Arch)
	}

	segments, err := executableSegments(elfFile)
	if err != nil {
		return nil, err
	}

	if len(segments) == 0 {
		return nil, errors.New("elf has no executable code")
	}

	return FromSegments(segments, config)
}

// executableSegments returns the executable PT_LOAD segments, or the
// executable sections if there are no program headers (e.g., for
// relocatable objects).
func executableSegments(elfFile *elf.File) ([]Segment, error) {
	var segments []Segment

	for _, prog := range elfFile.Progs {
		if prog.Type != elf.PT_LOAD || prog.Flags&elf.PF_X == 0 {
			continue
		}

		// Filesz comes from the file, so only read what is there.
		data, err := io.ReadAll(io.LimitReader(prog.Open(), int64(prog.Filesz)))
		if err != nil {
			return nil, fmt.Errorf("failed to read segment at 0x%x - %w", prog.Vaddr, err)
		}

		if uint64(len(data)) != prog.Filesz {
			return nil, fmt.Errorf("segment at 0x%x is truncated - read %d of %d bytes",
				prog.Vaddr, len(data), prog.Filesz)
		}

		segments = append(segments, Segment{
			Addr: prog.Vaddr,
			Data: data,
		})
	}

	if len(segments) > 0 {
		return segments, nil
	}

	for _, section := range elfFile.Sections {
		if section.Type != elf.SHT_PROGBITS || section.Flags&elf.SHF_EXECINSTR == 0 {
			continue
		}

		data, err := section.Data()
		if err != nil {
			return nil, fmt.Errorf("failed to read section %s - %w", section.Name, err)
		}

		segments = append(segments, Segment{
			Addr: section.Addr,
			Data: data,
		})
	}

	return segments, nil
}
