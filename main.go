package main

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is filled when building with -ldflags, but *not* when installing via
// "go install".
var Version string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stackvm",
	Short: "A bytecode stack machine.",
	Long: `Run, disassemble, and check stackvm bytecode programs, and inspect the
machine snapshots that runs leave behind.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if !GetFlag(cmd, "version") {
			cmd.Help() //nolint:errcheck
			return
		}
		fmt.Print("stackvm ")
		if Version != "" {
			fmt.Printf("%s", Version)
		} else if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Printf("%s", info.Main.Version)
		} else {
			fmt.Printf("(unknown version)")
		}
		fmt.Println()
	},
}

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the command line given by args. Subcommands exit the process
// themselves once they run, so any error that gets back here is a bad flag
// or argument.
func execute(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return exitUsage
	}
	return exitOK
}

func init() {
	rootCmd.Flags().Bool("version", false, "print the version and exit")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("config", "",
		"configuration file (default: the nearest stackvm.toml in or above the working directory)")
}
