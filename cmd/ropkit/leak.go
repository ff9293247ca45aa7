package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/stephen-fox/ropkit/arch"
	"gitlab.com/stephen-fox/ropkit/memory"
)

func newClassifyCommand(global *globalFlags) *cobra.Command {
	var offset string

	cmd := &cobra.Command{
		Use:   "classify ADDRESS...",
		Short: "Guess what kind of memory leaked addresses point to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if global.arch == "" {
				return fmt.Errorf("please specify an architecture with --arch")
			}

			a, err := arch.Parse(global.arch)
			if err != nil {
				return err
			}

			var optOffset *uint64
			if offset != "" {
				o, err := strconv.ParseUint(offset, 0, 64)
				if err != nil {
					return fmt.Errorf("failed to parse offset - %w", err)
				}

				optOffset = &o
			}

			for _, arg := range args {
				addr, err := strconv.ParseUint(arg, 0, 64)
				if err != nil {
					return fmt.Errorf("failed to parse address %q - %w", arg, err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "0x%x: %s\n",
					addr, strings.Join(classify(a, addr, optOffset), ", "))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&offset, "offset", "",
		"Also check whether addresses end in this known offset")

	return cmd
}

func classify(a arch.Arch, addr uint64, offset *uint64) []string {
	var kinds []string

	if memory.IsStackAddress(a, addr) {
		kinds = append(kinds, "stack")
	}

	if memory.IsLibcAddress(a, addr) {
		kinds = append(kinds, "libc")
	}

	if memory.IsPIEAddress(a, addr) {
		kinds = append(kinds, "pie")
	}

	if memory.IsBaseAddress(addr) {
		kinds = append(kinds, "base")
	}

	if offset != nil && memory.OffsetMatch(addr, offset) {
		kinds = append(kinds, fmt.Sprintf("offset 0x%x", *offset))
	}

	if len(kinds) == 0 {
		kinds = append(kinds, "unknown")
	}

	return kinds
}

func newHexCommand(global *globalFlags) *cobra.Command {
	var first bool
	var width int

	cmd := &cobra.Command{
		Use:   "hex",
		Short: "Extract integers from leaked data read from stdin",
		Long: `Extract integers from leaked data read from stdin.

By default, every "0x..." hex string is printed. If --bytes is
specified, the data is instead split into chunks of that many bytes,
each decoded using the byte order of --arch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin - %w", err)
			}

			out := cmd.OutOrStdout()

			if width > 0 {
				a := arch.AMD64
				if global.arch != "" {
					a, err = arch.Parse(global.arch)
					if err != nil {
						return err
					}
				}

				if first {
					v, err := memory.ExtractFirstBytes(a, data, width)
					if err != nil {
						return err
					}

					fmt.Fprintf(out, "0x%x\n", v)
					return nil
				}

				values, err := memory.ExtractAllBytes(a, data, width)
				if err != nil {
					return err
				}

				for v := range values {
					fmt.Fprintf(out, "0x%x\n", v)
				}

				return nil
			}

			if first {
				v := memory.ExtractFirstHex(data)
				if v == -1 {
					return fmt.Errorf("no hex strings found")
				}

				fmt.Fprintf(out, "0x%x\n", uint64(v))
				return nil
			}

			for _, v := range memory.ExtractAllHex(data) {
				fmt.Fprintf(out, "0x%x\n", v)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&first, "first", false,
		"Only print the first integer")
	cmd.Flags().IntVar(&width, "bytes", 0,
		"Decode raw chunks of this many bytes rather than hex strings")

	return cmd
}
