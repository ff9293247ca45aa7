package main

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/stephen-fox/ropkit/arch"
	"gitlab.com/stephen-fox/ropkit/memory"
	"gitlab.com/stephen-fox/ropkit/pattern"
)

const (
	defaultPatternLimit = 8192
)

func newPatternCommand(global *globalFlags) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Create and search cyclic patterns",
	}

	cmd.PersistentFlags().IntVarP(&n, "size", "n", 0,
		"Length of each unique subsequence. Defaults to the pointer size of --arch")

	newCyclic := func() (*pattern.Cyclic, arch.Arch, error) {
		a := arch.AMD64
		if global.arch != "" {
			var err error
			a, err = arch.Parse(global.arch)
			if err != nil {
				return nil, "", err
			}
		}

		size := n
		if size <= 0 {
			size = a.PointerSize()
		}

		return pattern.NewCyclic(size), a, nil
	}

	create := &cobra.Command{
		Use:   "create NUM-BYTES",
		Short: "Print a cyclic pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numBytes, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("failed to parse number of bytes - %w", err)
			}

			cyclic, _, err := newCyclic()
			if err != nil {
				return err
			}

			p, err := cyclic.Pattern(numBytes)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", p)
			return err
		},
	}

	var limit int

	find := &cobra.Command{
		Use:   "find FRAGMENT",
		Short: "Find the offset of a fragment in the cyclic pattern",
		Long: `Find the offset of a fragment in the cyclic pattern.

A fragment starting with "0x" is treated as an integer read from a
register or the stack (e.g., 0x6161616c) and is converted to bytes
using the byte order of --arch. Anything else is searched as-is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cyclic, a, err := newCyclic()
			if err != nil {
				return err
			}

			fragment, err := parseFragment(a, args[0])
			if err != nil {
				return err
			}

			offset, err := cyclic.Find(fragment, limit)
			if err != nil {
				return err
			}

			if offset < 0 {
				return fmt.Errorf("fragment %q was not found in the first %d bytes of the pattern",
					fragment, limit)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), offset)
			return err
		},
	}

	find.Flags().IntVar(&limit, "limit", defaultPatternLimit,
		"Number of pattern bytes to search")

	cmd.AddCommand(create, find)

	return cmd
}

func parseFragment(a arch.Arch, str string) ([]byte, error) {
	if !strings.HasPrefix(str, "0x") {
		return []byte(str), nil
	}

	digits := strings.TrimPrefix(str, "0x")
	if len(digits)%2 != 0 {
		digits = "0" + digits
	}

	raw, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("failed to hex decode fragment - %w", err)
	}

	if len(raw) > 8 {
		return nil, fmt.Errorf("fragment %q is longer than 8 bytes", str)
	}

	v, err := memory.Unpack(raw, binary.BigEndian)
	if err != nil {
		return nil, err
	}

	return memory.Pack(v, len(raw), a.ByteOrder()), nil
}
