package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/stephen-fox/ropkit/arch"
	"gitlab.com/stephen-fox/ropkit/gadgets"
	"gitlab.com/stephen-fox/ropkit/rop"
)

type chainFlags struct {
	base       uint64
	raw        bool
	syscallRet bool
}

func newGadgetsCommand(global *globalFlags) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "gadgets ELF-FILE",
		Short: "List the gadgets in an ELF executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			finder, err := loadFinder(global, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, g := range finder.Gadgets() {
				str := g.String()
				if filter != "" && !strings.Contains(str, filter) {
					continue
				}

				fmt.Fprintf(out, "0x%x: %s\n", g.Address, str)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "",
		"Only list gadgets containing this string")

	return cmd
}

func newPopCommand(global *globalFlags) *cobra.Command {
	var flags chainFlags

	cmd := &cobra.Command{
		Use:   "pop ELF-FILE REG=VALUE...",
		Short: "Build a chain that sets registers",
		Long: `Build a chain that sets registers to the specified values.

Values are parsed as integers when possible (e.g., 0x3b, 59, -1).
Anything else is treated as a string placed after the chain.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			regs := make(rop.Registers, len(args)-1)
			for _, arg := range args[1:] {
				name, value, hasIt := strings.Cut(arg, "=")
				if !hasIt {
					return fmt.Errorf("register assignment %q is not in the form REG=VALUE", arg)
				}

				regs[strings.ToLower(name)] = parseValue(value)
			}

			chain, err := newChain(global, args[0])
			if err != nil {
				return err
			}

			err = chain.Pop(regs)
			if err != nil {
				return err
			}

			return writeChain(cmd, chain, flags)
		},
	}

	addChainFlags(cmd, &flags)

	return cmd
}

func newSyscallCommand(global *globalFlags) *cobra.Command {
	var flags chainFlags

	cmd := &cobra.Command{
		Use:   "syscall ELF-FILE NUMBER [ARG...]",
		Short: "Build a chain that performs a system call",
		Long: `Build a chain that performs a system call (amd64 only).

Arguments are parsed as integers when possible. Anything else is
treated as a string placed after the chain and passed by address.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			num, err := strconv.ParseUint(args[1], 0, 64)
			if err != nil {
				return fmt.Errorf("failed to parse system call number - %w", err)
			}

			var callArgs []rop.Value
			for _, arg := range args[2:] {
				callArgs = append(callArgs, parseValue(arg))
			}

			chain, err := newChain(global, args[0])
			if err != nil {
				return err
			}

			var opts []rop.SyscallOption
			if flags.syscallRet {
				opts = append(opts, rop.WithSyscallRet())
			}

			err = chain.SystemCall(num, callArgs, opts...)
			if err != nil {
				return err
			}

			return writeChain(cmd, chain, flags)
		},
	}

	addChainFlags(cmd, &flags)

	cmd.Flags().BoolVar(&flags.syscallRet, "syscall-ret", false,
		"Use a 'syscall; ret' gadget so the chain can continue")

	return cmd
}

func addChainFlags(cmd *cobra.Command, flags *chainFlags) {
	cmd.Flags().Uint64Var(&flags.base, "base", 0,
		"The address the chain will be written to")
	cmd.Flags().BoolVar(&flags.raw, "raw", false,
		"Write the chain's raw bytes rather than a listing")
}

func loadFinder(global *globalFlags, elfPath string) (*gadgets.Finder, error) {
	config := gadgets.Config{
		OptLogger: global.logger(),
	}

	if global.arch != "" {
		a, err := arch.Parse(global.arch)
		if err != nil {
			return nil, err
		}

		config.Arch = a
	}

	return gadgets.FromELFFile(elfPath, config)
}

func newChain(global *globalFlags, elfPath string) (*rop.ROP, error) {
	finder, err := loadFinder(global, elfPath)
	if err != nil {
		return nil, err
	}

	return rop.New(rop.Config{
		Arch:      finder.Arch(),
		Engine:    finder,
		OptLogger: global.logger(),
	})
}

func writeChain(cmd *cobra.Command, chain *rop.ROP, flags chainFlags) error {
	if flags.raw {
		raw, err := chain.Chain(flags.base)
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(raw)
		return err
	}

	dump, err := chain.Dump(flags.base)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), dump)
	return err
}

// parseValue parses str as an integer if possible. Otherwise, str is
// used as a byte string.
func parseValue(str string) rop.Value {
	u, err := strconv.ParseUint(str, 0, 64)
	if err == nil {
		return rop.Int(u)
	}

	i, err := strconv.ParseInt(str, 0, 64)
	if err == nil {
		return rop.Int(uint64(i))
	}

	return rop.Bytes(str)
}
