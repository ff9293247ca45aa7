package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/stephen-fox/ropkit/arch"
	"gitlab.com/stephen-fox/ropkit/asmkit"
	"gitlab.com/stephen-fox/ropkit/conv"
)

const (
	prettyFormat = "pretty"
	goFormat     = "go"
)

func newDasmCommand(global *globalFlags) *cobra.Command {
	var syntax string
	var format string
	var addr uint64

	cmd := &cobra.Command{
		Use:   "dasm",
		Short: "Disassemble hex-encoded x86 instructions read from stdin",
		Long: `Disassemble hex-encoded x86 instructions read from stdin.

The input may be plain hex ("31c040"), escaped ("\x31\xc0\x40"), or
the contents of a C or Go array ("{0x31, 0xc0, 0x40}"). C comments
are ignored.

EXAMPLES:
  The following example uses shellcode written by Charles Stevenson
  (core@bokeoa.com):
  http://shell-storm.org/shellcode/files/shellcode-55.php

    $ echo '\x31\xc0\x40\x89\xc3\xcd\x80' | ` + appName + ` dasm --arch i386
    0x0: xor eax, eax
    0x2: inc eax
    0x3: mov ebx, eax
    0x5: int 0x80`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := arch.AMD64
			if global.arch != "" {
				var err error
				a, err = arch.Parse(global.arch)
				if err != nil {
					return err
				}
			}

			disass, err := asmkit.NewDisassembler(asmkit.DisassemblerConfig{
				Syntax: asmkit.DisassemblySyntax(syntax),
				Arch:   a,
			})
			if err != nil {
				return err
			}

			code, err := conv.HexArrayToBytes(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read hex-encoded instructions from stdin - %w", err)
			}

			var writer instWriter
			switch format {
			case prettyFormat:
				writer = &disassWriter{w: cmd.OutOrStdout()}
			case goFormat:
				writer = &goByteSliceWriter{w: cmd.OutOrStdout()}
			default:
				return fmt.Errorf("unsupported output format: %q", format)
			}

			err = disass.All(code, addr, writer.Write)
			if err != nil {
				return fmt.Errorf("failed to decode %s instructions - %w", a, err)
			}

			return writer.Flush()
		},
	}

	cmd.Flags().StringVarP(&syntax, "syntax", "s", string(asmkit.IntelSyntax),
		"The assembly syntax ('intel', 'att', or 'go')")
	cmd.Flags().StringVarP(&format, "output", "o", prettyFormat,
		"The output format ('pretty' or 'go')")
	cmd.Flags().Uint64Var(&addr, "addr", 0,
		"The address of the first instruction")

	return cmd
}

type instWriter interface {
	Write(asmkit.Inst) error
	Flush() error
}

var _ instWriter = (*disassWriter)(nil)

type disassWriter struct {
	w io.Writer
}

func (o *disassWriter) Write(inst asmkit.Inst) error {
	_, err := fmt.Fprintf(o.w, "0x%x: %s\n", inst.Addr, inst.Dis)
	return err
}

func (o *disassWriter) Flush() error {
	return nil
}

var _ instWriter = (*goByteSliceWriter)(nil)

type goByteSliceWriter struct {
	isInit bool
	w      io.Writer
}

func (o *goByteSliceWriter) Write(inst asmkit.Inst) error {
	if !o.isInit {
		o.isInit = true

		_, err := io.WriteString(o.w, "[]byte{\n")
		if err != nil {
			return err
		}
	}

	hexBytes := make([]string, len(inst.Bin))
	for i, b := range inst.Bin {
		hexBytes[i] = fmt.Sprintf("0x%02x,", b)
	}

	_, err := fmt.Fprintf(o.w, "\t%s // %s\n", strings.Join(hexBytes, " "), inst.Dis)
	return err
}

func (o *goByteSliceWriter) Flush() error {
	if !o.isInit {
		return nil
	}

	_, err := io.WriteString(o.w, "}\n")
	return err
}
