package main

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jcorbin/stackvm/internal/config"
	"github.com/jcorbin/stackvm/program"
	"github.com/jcorbin/stackvm/vm"
)

// Process exit codes. A halted program exits with its own code, masked to a
// byte, which may overlap with these.
const (
	exitOK         = 0
	exitError      = 1
	exitUsage      = 2
	exitMalformed  = 3
	exitJumpTarget = 4
	exitFaultBase  = 10
)

// faultExitCode returns a distinct exit code for each fault kind, starting at
// exitFaultBase.
func faultExitCode(kind vm.FaultKind) int {
	return exitFaultBase + int(kind) - 1
}

// haltExitCode masks a program's exit code into the range of a process exit
// status.
func haltExitCode(code int64) int {
	return int(uint64(code) & 0xff)
}

// loadError pairs a program loading failure with its exit code.
type loadError struct {
	name string
	code int
	err  error
}

func (le *loadError) Error() string { return fmt.Sprintf("%v: %v", le.name, le.err) }
func (le *loadError) Unwrap() error { return le.err }

// fields returns structured logging fields that locate the failure.
func (le *loadError) fields() log.Fields {
	fields := log.Fields{"file": le.name}
	var de *program.DecodeError
	var jte *program.JumpTargetError
	if errors.As(le.err, &de) {
		fields["offset"] = de.Offset
	} else if errors.As(le.err, &jte) {
		fields["index"] = jte.Index
		fields["op"] = jte.Op.String()
	}
	return fields
}

// loadProgram reads and decodes a program file, validating its jump targets
// unless lazyJumps is set.
func loadProgram(name string, lazyJumps bool) (*program.Program, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, &loadError{name, exitError, err}
	}
	log.WithField("file", name).Debugf("read %v bytes", len(data))

	prog, err := program.Decode(data)
	if err != nil {
		return nil, &loadError{name, exitMalformed, err}
	}
	if !lazyJumps {
		if err := program.Validate(prog); err != nil {
			return nil, &loadError{name, exitJumpTarget, err}
		}
	}
	return prog, nil
}

// reportLoadError logs a loadProgram error, returning its exit code.
func reportLoadError(err error) int {
	var le *loadError
	if errors.As(err, &le) {
		log.WithFields(le.fields()).Error(le.err)
		return le.code
	}
	log.Error(err)
	return exitError
}

// loadConfig loads the file named by --config, or the nearest stackvm.toml.
func loadConfig(cmd *cobra.Command) *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if path := GetString(cmd, "config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(exitUsage)
	}
	if cfg.Path != "" {
		log.Debugf("using configuration from %s", cfg.Path)
	}
	return cfg
}

// GetFlag gets an expected flag, exiting on error.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(exitUsage)
	}
	return r
}

// GetString gets an expected string, exiting on error.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(exitUsage)
	}
	return r
}

// GetStringArray gets an expected string array, exiting on error.
func GetStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(exitUsage)
	}
	return r
}

// GetInt gets an expected int, exiting on error.
func GetInt(cmd *cobra.Command, flag string) int {
	r, err := cmd.Flags().GetInt(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(exitUsage)
	}
	return r
}

// GetUint64 gets an expected uint64, exiting on error.
func GetUint64(cmd *cobra.Command, flag string) uint64 {
	r, err := cmd.Flags().GetUint64(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(exitUsage)
	}
	return r
}
