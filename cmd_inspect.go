package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jcorbin/stackvm/vm"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] snapshot",
	Short: "Inspect a machine snapshot.",
	Long: `Decode a snapshot written by "run --snapshot" and print the machine state it
captured.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(inspect(os.Stdout, args[0], GetFlag(cmd, "disasm")))
	},
}

func inspect(w io.Writer, name string, disasm bool) int {
	data, err := os.ReadFile(name)
	if err != nil {
		log.Error(err)
		return exitError
	}

	var snap vm.Snapshot
	if err := snap.UnmarshalBinary(data); err != nil {
		log.WithField("file", name).Error(err)
		return exitMalformed
	}
	m, err := snap.Restore()
	if err != nil {
		log.WithField("file", name).Error(err)
		return exitMalformed
	}

	if err := m.Dump(w); err != nil {
		log.Error(err)
		return exitError
	}
	if disasm {
		fmt.Fprintf(w, "# Program\n")
		if err := m.Program().Disassemble(w); err != nil {
			log.Error(err)
			return exitError
		}
	}
	return exitOK
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("disasm", false, "also disassemble the whole program")
}
