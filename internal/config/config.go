// Package config handles stackvm.toml configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file searched for by FindAndLoad.
const FileName = "stackvm.toml"

// Engine limit defaults, used whenever a limit is left unset (zero).
const (
	DefaultMemSize    = 4096
	DefaultStackLimit = 1024
	DefaultCallDepth  = 256
	DefaultPrompt     = "? "
)

// Config represents a stackvm.toml file.
type Config struct {
	VM  VM  `toml:"vm"`
	Run Run `toml:"run"`

	// Path is the file that the configuration was loaded from, empty when
	// no file was found.
	Path string `toml:"-"`
}

// VM configures execution engine limits.
type VM struct {
	MemSize    int    `toml:"mem-size"`
	StackLimit int    `toml:"stack-limit"`
	CallDepth  int    `toml:"call-depth"`
	StepLimit  uint64 `toml:"step-limit"`
}

// Run configures the run command.
type Run struct {
	LazyJumps bool   `toml:"lazy-jumps"`
	Prompt    string `toml:"prompt"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.VM.setDefaults()
	c.Run.Prompt = DefaultPrompt
	return &c
}

// Load parses the given configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undec[0].String())
	}
	if err := c.VM.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path

	// Defaults
	c.VM.setDefaults()
	if !md.IsDefined("run", "prompt") {
		c.Run.Prompt = DefaultPrompt
	}

	return &c, nil
}

// FindAndLoad walks up from startDir to find a stackvm.toml file, then loads
// and returns it. Returns Default() if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate rejects negative limits.
func (v VM) Validate() error {
	var errs []error
	if v.MemSize < 0 {
		errs = append(errs, fmt.Errorf("invalid mem-size %v", v.MemSize))
	}
	if v.StackLimit < 0 {
		errs = append(errs, fmt.Errorf("invalid stack-limit %v", v.StackLimit))
	}
	if v.CallDepth < 0 {
		errs = append(errs, fmt.Errorf("invalid call-depth %v", v.CallDepth))
	}
	return errors.Join(errs...)
}

func (v *VM) setDefaults() {
	if v.MemSize == 0 {
		v.MemSize = DefaultMemSize
	}
	if v.StackLimit == 0 {
		v.StackLimit = DefaultStackLimit
	}
	if v.CallDepth == 0 {
		v.CallDepth = DefaultCallDepth
	}
}
