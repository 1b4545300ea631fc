package testsupport

import (
	"context"
	"sync"

	"class360/internal/toolrunner"
)

// ToolCall records one external tool invocation made through the fake runner.
type ToolCall struct {
	Binary string
	Args   []string
}

// FakeRunner is a scripted toolrunner.Runner. Tests preload per-binary
// outputs and failures; every invocation is recorded for assertion.
type FakeRunner struct {
	mu       sync.Mutex
	calls    []ToolCall
	outputs  map[string]string
	failures map[string]error
}

var _ toolrunner.Runner = (*FakeRunner)(nil)

// NewFakeRunner constructs an empty scripted runner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		outputs:  make(map[string]string),
		failures: make(map[string]error),
	}
}

// StubOutput sets the stdout returned for a binary.
func (r *FakeRunner) StubOutput(binary, stdout string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[binary] = stdout
}

// StubFailure makes every invocation of binary return err.
func (r *FakeRunner) StubFailure(binary string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[binary] = err
}

// Run records the call and returns the scripted result.
func (r *FakeRunner) Run(_ context.Context, binary string, args []string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recorded := make([]string, len(args))
	copy(recorded, args)
	r.calls = append(r.calls, ToolCall{Binary: binary, Args: recorded})

	if err, ok := r.failures[binary]; ok {
		return "", err
	}
	return r.outputs[binary], nil
}

// Calls returns a snapshot of recorded invocations.
func (r *FakeRunner) Calls() []ToolCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ToolCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsFor returns recorded invocations of one binary.
func (r *FakeRunner) CallsFor(binary string) []ToolCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ToolCall
	for _, call := range r.calls {
		if call.Binary == binary {
			out = append(out, call)
		}
	}
	return out
}
