package main

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jcorbin/stackvm/internal/config"
	"github.com/jcorbin/stackvm/internal/logio"
	"github.com/jcorbin/stackvm/internal/panicerr"
	"github.com/jcorbin/stackvm/vm"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] program.bin",
	Short: "Run a bytecode program.",
	Long: `Run a bytecode program until it halts or faults. The process exits with the
program's own exit code when it halts, or with a distinct code for each kind
of fault.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		rc := runConfig{
			vm:        cfg.VM,
			lazyJumps: cfg.Run.LazyJumps || GetFlag(cmd, "lazy-jumps"),
			prompt:    cfg.Run.Prompt,
			trace:     GetFlag(cmd, "trace"),
			echo:      GetFlag(cmd, "echo"),
			dump:      GetFlag(cmd, "dump"),
			snapshot:  GetString(cmd, "snapshot"),
			inputs:    GetStringArray(cmd, "input"),
			stdin:     os.Stdin,
			stdout:    os.Stdout,
			stderr:    os.Stderr,
		}
		if cmd.Flags().Changed("timeout") {
			timeout, err := cmd.Flags().GetDuration("timeout")
			if err != nil {
				log.Error(err)
				os.Exit(exitUsage)
			}
			rc.timeout = timeout
		}
		if cmd.Flags().Changed("mem-size") {
			rc.vm.MemSize = GetInt(cmd, "mem-size")
		}
		if cmd.Flags().Changed("stack-limit") {
			rc.vm.StackLimit = GetInt(cmd, "stack-limit")
		}
		if cmd.Flags().Changed("call-depth") {
			rc.vm.CallDepth = GetInt(cmd, "call-depth")
		}
		if cmd.Flags().Changed("step-limit") {
			rc.vm.StepLimit = GetUint64(cmd, "step-limit")
		}
		if err := rc.vm.Validate(); err != nil {
			log.Error(err)
			os.Exit(exitUsage)
		}
		rc.interactive = len(rc.inputs) == 0 && term.IsTerminal(int(os.Stdin.Fd()))
		if rc.trace {
			log.SetLevel(log.TraceLevel)
		}
		os.Exit(rc.run(context.Background(), args[0]))
	},
}

// runConfig collects everything that the run command needs, so that runs may
// be driven without a command line.
type runConfig struct {
	vm        config.VM
	lazyJumps bool
	prompt    string

	trace    bool
	echo     bool
	dump     bool
	snapshot string
	timeout  time.Duration

	// inputs names files read by the read instruction in turn, "-" being
	// stdin; stdin alone is read when there are none
	inputs      []string
	interactive bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// run loads and runs the named program, returning the process exit code.
func (rc runConfig) run(ctx context.Context, name string) int {
	prog, err := loadProgram(name, rc.lazyJumps)
	if err != nil {
		return reportLoadError(err)
	}
	logger := log.WithField("file", name)

	opts := []vm.Option{
		vm.WithConfig(rc.vm),
		vm.WithOutput(rc.stdout),
	}

	if len(rc.inputs) == 0 {
		opts = append(opts, vm.WithInput(rc.stdin))
	}
	for _, input := range rc.inputs {
		if input == "-" {
			opts = append(opts, vm.WithInput(rc.stdin))
			continue
		}
		f, err := os.Open(input)
		if err != nil {
			logger.WithError(err).Error("cannot open input")
			return exitError
		}
		defer f.Close()
		opts = append(opts, vm.WithInput(f))
	}

	if rc.interactive && rc.prompt != "" {
		opts = append(opts, vm.WithPrompt(rc.stderr, rc.prompt))
	}
	if rc.trace {
		opts = append(opts, vm.WithLogf(logger.Tracef))
	}
	if rc.echo {
		opts = append(opts, vm.WithTee(&logio.Writer{Logf: logger.Infof, Prefix: "out: "}))
	}

	if rc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}

	m := vm.New(prog, opts...)
	err = m.Run(ctx)

	if rc.dump {
		if derr := m.Dump(rc.stderr); derr != nil {
			logger.WithError(derr).Warn("cannot write dump")
		}
	}
	if rc.snapshot != "" {
		if serr := writeSnapshot(rc.snapshot, m); serr != nil {
			logger.WithError(serr).Error("cannot write snapshot")
			if err == nil {
				return exitError
			}
		} else {
			logger.Debugf("wrote snapshot to %s", rc.snapshot)
		}
	}

	var fault *vm.Fault
	switch {
	case err == nil:
		logger.WithField("steps", m.Steps()).Debugf("halted with exit code %v", m.ExitCode())
		return haltExitCode(m.ExitCode())

	case errors.As(err, &fault):
		logger.WithFields(log.Fields{
			"ip":    fault.IP,
			"op":    fault.Op.String(),
			"fault": fault.Kind.String(),
			"steps": m.Steps(),
		}).Error(fault)
		return faultExitCode(fault.Kind)

	default:
		if perr, ok := panicerr.As(err); ok && !perr.Goexit() {
			logger.Debugf("panic stack: %s", perr.Stack)
		}
		logger.WithError(err).Error("run failed")
		return exitError
	}
}

func writeSnapshot(name string, m *vm.VM) error {
	data, err := m.Snapshot().MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0644)
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("trace", false, "log every instruction executed")
	runCmd.Flags().Bool("echo", false, "echo program output into the log")
	runCmd.Flags().Bool("dump", false, "dump the machine state to stderr after the run")
	runCmd.Flags().String("snapshot", "", "write a snapshot of the final machine state to this file")
	runCmd.Flags().StringArray("input", nil, "read input from this file (repeatable, - for stdin)")
	runCmd.Flags().Bool("lazy-jumps", false, "skip validating jump targets before running")
	runCmd.Flags().Duration("timeout", 0, "stop the run after this long")
	runCmd.Flags().Int("mem-size", config.DefaultMemSize, "number of addressable memory cells")
	runCmd.Flags().Int("stack-limit", config.DefaultStackLimit, "maximum evaluation stack depth")
	runCmd.Flags().Int("call-depth", config.DefaultCallDepth, "maximum call stack depth")
	runCmd.Flags().Uint64("step-limit", 0, "maximum number of instructions to execute (0 for unlimited)")
}
