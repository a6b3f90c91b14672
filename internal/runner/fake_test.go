package runner_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/internal/runner"
	"github.com/petasbytes/go-assistant/tools"
)

// step is one scripted API response. The last step of a script repeats.
type step struct {
	run provider.Run
	err error
}

type fakeAPI struct {
	mu sync.Mutex

	create []step
	submit []step
	get    []step

	messages []provider.Message
	listErrs []error
	addErr   error

	threads   int
	creates   int
	gets      int
	lists     int
	added     []string
	submitted [][]provider.ToolOutput
	cancelled []string
}

var errNetwork = errors.New("connection reset by peer")

func pop(q *[]step) step {
	if len(*q) == 0 {
		return step{err: errors.New("fake: unscripted call")}
	}
	s := (*q)[0]
	if len(*q) > 1 {
		*q = (*q)[1:]
	}
	return s
}

func (f *fakeAPI) CreateThread(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads++
	return "thread_1", nil
}

func (f *fakeAPI) AddUserMessage(ctx context.Context, threadID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, text)
	return nil
}

func (f *fakeAPI) CreateRun(ctx context.Context, threadID, assistantID string) (provider.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	s := pop(&f.create)
	return s.run, s.err
}

func (f *fakeAPI) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []provider.ToolOutput) (provider.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, append([]provider.ToolOutput(nil), outputs...))
	s := pop(&f.submit)
	return s.run, s.err
}

func (f *fakeAPI) GetRun(ctx context.Context, threadID, runID string) (provider.Run, error) {
	if err := ctx.Err(); err != nil {
		return provider.Run{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	s := pop(&f.get)
	return s.run, s.err
}

func (f *fakeAPI) CancelRun(ctx context.Context, threadID, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, runID)
	return nil
}

func (f *fakeAPI) ListMessages(ctx context.Context, threadID string, limit int) ([]provider.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		return nil, err
	}
	if limit > 0 && len(f.messages) > limit {
		return f.messages[:limit], nil
	}
	return f.messages, nil
}

func (f *fakeAPI) History(ctx context.Context, threadID string) ([]provider.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]provider.Message, len(f.messages))
	for i, m := range f.messages {
		out[len(out)-1-i] = m
	}
	return out, nil
}

func queued(id string) provider.Run {
	return provider.Run{ID: id, ThreadID: "thread_1", Status: provider.RunStatusQueued}
}

func completed(id string) provider.Run {
	return provider.Run{ID: id, ThreadID: "thread_1", Status: provider.RunStatusCompleted}
}

func requiresAction(id string, calls ...provider.ToolCall) provider.Run {
	return provider.Run{ID: id, ThreadID: "thread_1", Status: provider.RunStatusRequiresAction, ToolCalls: calls}
}

func call(id, name, args string) provider.ToolCall {
	return provider.ToolCall{ID: id, Type: provider.ToolCallTypeFunction, Name: name, Arguments: args}
}

func fastOptions() runner.Options {
	return runner.Options{
		Poller: runner.PollerOptions{Interval: time.Millisecond, Timeout: 5 * time.Second, MaxAttempts: 3},
		Limits: runner.Limits{MaxRoundTrips: 4, MaxErrorBatches: 1},
	}
}

func rawFunction(name string, fn func(ctx context.Context, args tools.Arguments) (tools.FunctionResult, error)) tools.ToolDefinition {
	return tools.ToolDefinition{Name: name, Description: name, InputSchema: map[string]any{"type": "object"}, Function: fn}
}

func newRegistry(t *testing.T, defs ...tools.ToolDefinition) *tools.Registry {
	t.Helper()
	reg, err := tools.NewRegistry(defs...)
	require.NoError(t, err)
	return reg
}

func newOrchestrator(t *testing.T, api runner.RunAPI, opts runner.Options, defs ...tools.ToolDefinition) *runner.Orchestrator {
	t.Helper()
	return runner.NewOrchestrator(api, newRegistry(t, defs...), opts, zerolog.Nop())
}
