package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [flags] program.bin ...",
	Short: "Disassemble bytecode programs.",
	Long: `Decode bytecode programs, printing one line per instruction: its index, byte
offset, mnemonic and operand.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(disassemble(os.Stdout, args, GetFlag(cmd, "validate")))
	},
}

func disassemble(w io.Writer, names []string, validate bool) int {
	for i, name := range names {
		prog, err := loadProgram(name, !validate)
		if err != nil {
			return reportLoadError(err)
		}
		if len(names) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "# %s\n", name)
		}
		if err := prog.Disassemble(w); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitError
		}
	}
	return exitOK
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().Bool("validate", false, "also reject programs with invalid jump targets")
}
