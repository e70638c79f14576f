package vm

import (
	"io"

	"github.com/jcorbin/stackvm/internal/config"
	"github.com/jcorbin/stackvm/internal/flushio"
)

// Option configures a VM under New.
type Option interface{ apply(vm *VM) }

// Options combines any number of options into one, dropping nils.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, impl)
		}
	}
	if len(res) == 1 {
		return res[0]
	}
	return res
}

type options []Option

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		opt.apply(vm)
	}
}

var defaults = options{
	withConfig(config.VM{
		MemSize:    config.DefaultMemSize,
		StackLimit: config.DefaultStackLimit,
		CallDepth:  config.DefaultCallDepth,
	}),
	WithOutput(nil),
}

func (vm *VM) apply(opts ...Option) {
	defaults.apply(vm)
	Options(opts...).apply(vm)
}

// WithInput queues another input stream for the read instruction; streams
// are consumed in the order given. A stream with a Name() string method is
// named in InvalidInput fault details.
func WithInput(r io.Reader) Option { return inputOption{r} }

// WithOutput sets where print and printc write; nil discards output.
func WithOutput(w io.Writer) Option { return outputOption{w} }

// WithTee adds another writer that receives a copy of all output.
func WithTee(w io.Writer) Option { return teeOption{w} }

// WithPrompt writes prompt to w before every read instruction.
func WithPrompt(w io.Writer, prompt string) Option { return promptOption{w, prompt} }

// WithMemSize sets the number of addressable memory cells.
func WithMemSize(n int) Option { return withConfig(config.VM{MemSize: n}).keepSteps() }

// WithStackLimit sets the maximum evaluation stack depth.
func WithStackLimit(n int) Option { return withConfig(config.VM{StackLimit: n}).keepSteps() }

// WithCallDepth sets the maximum call stack depth.
func WithCallDepth(n int) Option { return withConfig(config.VM{CallDepth: n}).keepSteps() }

// WithStepLimit faults the run with StepLimitExceeded once n instructions
// have executed; 0 means unlimited.
func WithStepLimit(n uint64) Option { return stepLimitOption(n) }

// WithConfig sets all engine limits; zero values keep the current limit,
// except for StepLimit where zero means unlimited.
func WithConfig(cfg config.VM) Option { return withConfig(cfg) }

// WithLogf enables per-instruction trace logging.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return logfnOption(logfn) }

type inputOption struct{ io.Reader }
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type stepLimitOption uint64
type logfnOption func(mess string, args ...interface{})

type promptOption struct {
	w      io.Writer
	prompt string
}

type configOption struct {
	cfg       config.VM
	keepLimit bool
}

func withConfig(cfg config.VM) configOption { return configOption{cfg: cfg} }

func (o configOption) keepSteps() configOption {
	o.keepLimit = true
	return o
}

func (o configOption) apply(vm *VM) {
	if o.keepLimit {
		o.cfg.StepLimit = vm.stepLimit
	}
	vm.setLimits(o.cfg)
}

func (i inputOption) apply(vm *VM) {
	if i.Reader != nil {
		vm.in.Queue = append(vm.in.Queue, i.Reader)
	}
}

func (o outputOption) apply(vm *VM) {
	if vm.outw != nil {
		vm.outw.Flush()
	}
	vm.outw = flushio.NewWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	if o.Writer != nil {
		vm.tees = append(vm.tees, flushio.NewWriteFlusher(o.Writer))
	}
}

func (o promptOption) apply(vm *VM) {
	vm.promptw = nil
	if o.w != nil && o.prompt != "" {
		vm.promptw = flushio.NewWriteFlusher(o.w)
	}
	vm.promptText = o.prompt
}

func (lim stepLimitOption) apply(vm *VM) { vm.stepLimit = uint64(lim) }

func (logfn logfnOption) apply(vm *VM) { vm.logfn = logfn }
