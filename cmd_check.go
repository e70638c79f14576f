package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] program.bin ...",
	Short: "Check that bytecode programs are well formed.",
	Long: `Decode, and validate the jump targets of, any number of bytecode programs
concurrently, reporting on each one. Exits non-zero if any program fails.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		lazyJumps := cfg.Run.LazyJumps || GetFlag(cmd, "lazy-jumps")
		results, err := checkFiles(context.Background(), args, lazyJumps)
		if err != nil {
			log.Error(err)
			os.Exit(exitError)
		}
		os.Exit(reportChecks(os.Stdout, results))
	},
}

type checkResult struct {
	name string
	size int
	err  error
}

// checkFiles loads every named program concurrently; a failure to load one
// file does not stop the others.
func checkFiles(ctx context.Context, names []string, lazyJumps bool) ([]checkResult, error) {
	results := make([]checkResult, len(names))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		i, name := i, name
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i].name = name
			prog, err := loadProgram(name, lazyJumps)
			results[i].size = prog.Len()
			results[i].err = err
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// reportChecks writes a line per result, returning exitMalformed if any
// failed.
func reportChecks(w io.Writer, results []checkResult) int {
	code := exitOK
	for _, res := range results {
		if res.err != nil {
			fmt.Fprintf(w, "FAIL %v\n", res.err)
			code = exitMalformed
		} else {
			fmt.Fprintf(w, "ok   %s (%v instructions)\n", res.name, res.size)
		}
	}
	return code
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("lazy-jumps", false, "skip validating jump targets")
}
