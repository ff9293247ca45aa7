package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName = "ropkit"
)

func main() {
	log.SetFlags(0)

	err := newRootCommand().Execute()
	if err != nil {
		log.Fatalln("fatal:", err)
	}
}

type globalFlags struct {
	arch    string
	verbose bool
}

func newRootCommand() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   appName,
		Short: "Build ROP chains and classify leaked addresses",
		Long: appName + ` builds return-oriented programming chains from x86 ELF
executables and provides helpers for working with memory leaks.

EXAMPLES:
  List the gadgets in an executable:
    $ ` + appName + ` gadgets ./vuln

  Build an execve("/bin/sh", NULL, NULL) chain:
    $ ` + appName + ` syscall ./vuln 0x3b /bin/sh 0 0

  Classify leaked addresses:
    $ ` + appName + ` classify --arch amd64 0x7ffd1e2f3a40 0x55d0c0de1000`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(os.Stdout)

	root.PersistentFlags().StringVar(&flags.arch, "arch", "",
		"Target architecture ('amd64' or 'i386'). Defaults to the ELF's architecture")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"Log additional information to stderr")

	root.AddCommand(
		newGadgetsCommand(&flags),
		newPopCommand(&flags),
		newSyscallCommand(&flags),
		newClassifyCommand(&flags),
		newHexCommand(&flags),
		newDasmCommand(&flags),
		newPatternCommand(&flags),
	)

	return root
}

func (o globalFlags) logger() *log.Logger {
	if !o.verbose {
		return nil
	}
	return log.New(os.Stderr, "", 0)
}
