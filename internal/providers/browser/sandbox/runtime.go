package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// Runtime wraps a goja VM with execution limits. It is safe for
// concurrent use; executions are serialized.
type Runtime struct {
	mu     sync.Mutex
	vm     *goja.Runtime
	config Config

	console []LogEntry
}

// New creates a runtime.
func New(config Config) (*Runtime, error) {
	r := &Runtime{config: config}
	if err := r.reset(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runtime) reset() error {
	r.vm = goja.New()
	if r.config.MaxCallStack > 0 {
		r.vm.SetMaxCallStackSize(r.config.MaxCallStack)
	}
	r.console = nil
	return r.setupGlobals()
}

// Execute runs script and exports its completion value.
func (r *Runtime) Execute(ctx context.Context, script string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	r.console = nil
	stop := r.watch(ctx)
	val, err := r.vm.RunString(script)
	stop()

	res := &Result{Duration: time.Since(start), Console: append([]LogEntry(nil), r.console...)}
	if err != nil {
		return res, err
	}
	res.Value = exportValue(val)
	return res, nil
}

// Call invokes fn with args converted to JS values and exports the result.
func (r *Runtime) Call(ctx context.Context, fn goja.Value, args ...any) (any, error) {
	call, ok := goja.AssertFunction(fn)
	if !ok {
		return nil, fmt.Errorf("not a function: %s", fn)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = r.vm.ToValue(a)
	}
	stop := r.watch(ctx)
	val, err := call(goja.Undefined(), vals...)
	stop()
	if err != nil {
		return nil, err
	}
	return exportValue(val), nil
}

// Global returns a global binding.
func (r *Runtime) Global(name string) goja.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vm.Get(name)
}

// watch interrupts the VM when the timeout passes or ctx ends. The
// returned func stops watching and clears any pending interrupt.
func (r *Runtime) watch(ctx context.Context) func() {
	done := make(chan struct{})
	timeout := r.config.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	timer := time.NewTimer(timeout)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-timer.C:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()
	return func() {
		timer.Stop()
		close(done)
		<-exited
		r.vm.ClearInterrupt()
	}
}

// setupGlobals strips host access and installs console and timer stubs.
func (r *Runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "warn", "error", "info"} {
			if err := console.Set(level, r.consoleFunc(level)); err != nil {
				return err
			}
		}
		if err := r.vm.Set("console", console); err != nil {
			return err
		}
	}

	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		if err := r.vm.Set(name, noop); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		r.console = append(r.console, LogEntry{Level: level, Message: strings.Join(parts, " "), Time: time.Now()})
		return goja.Undefined()
	}
}

func exportValue(val goja.Value) any {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}
