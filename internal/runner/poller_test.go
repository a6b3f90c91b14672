package runner_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/internal/runner"
)

func newPoller(api runner.RunAPI) *runner.Poller {
	return runner.NewPoller(api, fastOptions().Poller, zerolog.Nop())
}

func TestPoller_StartPending(t *testing.T) {
	api := &fakeAPI{
		create: []step{{run: queued("run_1")}},
		get:    []step{{run: requiresAction("run_1", call("call_1", "ok", "{}"))}},
	}
	p := newPoller(api)

	out, err := p.Start(context.Background(), "thread_1", "asst_1")
	require.NoError(t, err)
	assert.Equal(t, runner.Pending, out.Kind)
	assert.Equal(t, "run_1", out.RunID)
	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "call_1", out.ToolCalls[0].ID)

	_, err = p.Start(context.Background(), "thread_1", "asst_1")
	require.ErrorIs(t, err, runner.ErrTurnInProgress)
	assert.Equal(t, 1, api.creates)
}

func TestPoller_ContinueRequiresAwaitingRun(t *testing.T) {
	api := &fakeAPI{
		create: []step{{run: queued("run_1")}},
		get:    []step{{run: requiresAction("run_1", call("call_1", "ok", "{}"))}, {run: completed("run_1")}},
		submit: []step{{run: queued("run_1")}},
	}
	p := newPoller(api)
	outputs := []provider.ToolOutput{{ToolCallID: "call_1", Output: "fine"}}

	_, err := p.Continue(context.Background(), "thread_1", "run_1", outputs)
	require.ErrorIs(t, err, runner.ErrRunMismatch)

	_, err = p.Start(context.Background(), "thread_1", "asst_1")
	require.NoError(t, err)

	_, err = p.Continue(context.Background(), "thread_1", "run_2", outputs)
	require.ErrorIs(t, err, runner.ErrRunMismatch)
	assert.True(t, runner.IsFatal(err))

	_, err = p.Continue(context.Background(), "thread_1", "run_1", nil)
	require.ErrorIs(t, err, runner.ErrEmptyToolOutputs)
	assert.Empty(t, api.submitted)

	out, err := p.Continue(context.Background(), "thread_1", "run_1", outputs)
	require.NoError(t, err)
	assert.Equal(t, runner.Responded, out.Kind)
	assert.Equal(t, "run_1", out.RunID)
	assert.Equal(t, [][]provider.ToolOutput{outputs}, api.submitted)
}

func TestPoller_SubmitFailuresYieldCannedOutcome(t *testing.T) {
	api := &fakeAPI{
		create: []step{{run: queued("run_1")}},
		get:    []step{{run: requiresAction("run_1", call("call_1", "ok", "{}"))}},
		submit: []step{{err: errNetwork}},
	}
	p := newPoller(api)

	_, err := p.Start(context.Background(), "thread_1", "asst_1")
	require.NoError(t, err)

	out, err := p.Continue(context.Background(), "thread_1", "run_1", []provider.ToolOutput{{ToolCallID: "call_1", Output: "x"}})
	require.NoError(t, err)
	assert.Equal(t, runner.TransientErrorText, out.Text)
	assert.Len(t, api.submitted, 3)
	assert.Equal(t, []string{"run_1"}, api.cancelled)
}

func TestPoller_ListMessagesRetried(t *testing.T) {
	api := &fakeAPI{
		create:   []step{{run: queued("run_1")}},
		get:      []step{{run: completed("run_1")}},
		listErrs: []error{errNetwork},
		messages: []provider.Message{{Role: "assistant", Text: "hello"}},
	}
	p := newPoller(api)

	out, err := p.Start(context.Background(), "thread_1", "asst_1")
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Text)
	assert.Equal(t, 2, api.lists)
}

func TestPoller_RequiresActionWithoutCalls(t *testing.T) {
	api := &fakeAPI{
		create: []step{{run: queued("run_1")}},
		get:    []step{{run: requiresAction("run_1")}},
	}
	p := newPoller(api)

	_, err := p.Start(context.Background(), "thread_1", "asst_1")
	var pe *runner.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "without tool calls")
}
