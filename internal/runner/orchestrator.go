package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/petasbytes/go-assistant/internal/metrics"
	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/internal/telemetry"
	"github.com/petasbytes/go-assistant/tools"
)

// Limits are the per-turn ceilings. Zero disables a ceiling.
type Limits struct {
	MaxRoundTrips   int
	MaxErrorBatches int
}

// Budget counts the work done by one turn.
type Budget struct {
	RoundTrips   int
	ErrorBatches int
}

func (b Budget) roundTripsSpent(l Limits) bool {
	return l.MaxRoundTrips > 0 && b.RoundTrips >= l.MaxRoundTrips
}

func (b Budget) errorBatchesSpent(l Limits) bool {
	return l.MaxErrorBatches > 0 && b.ErrorBatches > l.MaxErrorBatches
}

// Options configures an Orchestrator.
type Options struct {
	Poller   PollerOptions
	Limits   Limits
	Parallel bool // dispatch the calls of one batch concurrently
}

// TurnResult is the terminal, displayable result of one user turn.
type TurnResult struct {
	Text         string
	RunID        string
	TurnID       string
	RoundTrips   int
	ErrorBatches int
	Reason       Reason
}

// Notifier receives interim notices. They are never turn results.
type Notifier func(notice string)

// Orchestrator composes a Poller and a Dispatcher into the turn state machine.
// It is safe for use by several sessions on distinct threads.
type Orchestrator struct {
	api        RunAPI
	poller     *Poller
	dispatcher *Dispatcher
	opts       Options
	logger     zerolog.Logger
}

func NewOrchestrator(api RunAPI, registry *tools.Registry, opts Options, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		api:        api,
		poller:     NewPoller(api, opts.Poller, logger),
		dispatcher: NewDispatcher(registry, logger),
		opts:       opts,
		logger:     logger,
	}
}

// Turn appends text to threadID and drives runs until a terminal result. Only
// fatal errors (see IsFatal) and context errors are returned.
func (o *Orchestrator) Turn(ctx context.Context, threadID, assistantID, text string, notify Notifier) (TurnResult, error) {
	turnID := uuid.NewString()
	ctx = telemetry.WithTurn(ctx, telemetry.Turn{ID: turnID, ThreadID: threadID})
	log := o.logger.With().Str("turn_id", turnID).Str("thread_id", threadID).Logger()
	start := time.Now()

	telemetry.EmitTurnStarted(ctx, text)
	metrics.RecordUserMessage(metrics.CountFeatures(text))

	res, err := o.drive(ctx, log, threadID, assistantID, text, notify)
	res.TurnID = turnID
	if err != nil {
		log.Error().Err(err).Str("run_id", res.RunID).Msg("turn aborted")
		return res, err
	}

	metrics.RecordTurn(string(res.Reason), time.Since(start), res.RoundTrips)
	telemetry.Emit(ctx, "turn_finished", map[string]any{
		"run_id":        res.RunID,
		"reason":        string(res.Reason),
		"round_trips":   res.RoundTrips,
		"error_batches": res.ErrorBatches,
		"duration_ms":   time.Since(start).Milliseconds(),
	})
	log.Info().Str("run_id", res.RunID).Str("reason", string(res.Reason)).Int("round_trips", res.RoundTrips).Msg("turn finished")
	return res, nil
}

func (o *Orchestrator) drive(ctx context.Context, log zerolog.Logger, threadID, assistantID, text string, notify Notifier) (TurnResult, error) {
	var budget Budget
	result := func(out Outcome) TurnResult {
		return TurnResult{Text: out.Text, RunID: out.RunID, RoundTrips: budget.RoundTrips, ErrorBatches: budget.ErrorBatches, Reason: out.Reason}
	}

	if err := o.api.AddUserMessage(ctx, threadID, text); err != nil {
		if ctx.Err() != nil {
			return TurnResult{}, ctx.Err()
		}
		log.Error().Err(err).Msg("add user message")
		return TurnResult{Text: TransientErrorText, Reason: ReasonTransient}, nil
	}

	out, err := o.poller.Start(ctx, threadID, assistantID)
	notified := false
	for {
		if err != nil {
			return result(out), err
		}
		budget.RoundTrips++
		if out.Kind == Responded {
			return result(out), nil
		}

		if budget.roundTripsSpent(o.opts.Limits) {
			return o.exhausted(ctx, log, threadID, out.RunID, budget, "round_trips"), nil
		}
		if err := o.checkRegistered(out.ToolCalls); err != nil {
			o.poller.Cancel(ctx, threadID, out.RunID)
			return result(out), err
		}
		if !notified && notify != nil {
			notify(WorkingNotice)
			notified = true
		}

		outputs, anyError, err := o.dispatch(ctx, out.ToolCalls)
		if err != nil {
			o.poller.Cancel(ctx, threadID, out.RunID)
			return result(out), err
		}
		if anyError {
			budget.ErrorBatches++
			if budget.errorBatchesSpent(o.opts.Limits) {
				return o.exhausted(ctx, log, threadID, out.RunID, budget, "error_batches"), nil
			}
		}
		log.Debug().Str("run_id", out.RunID).Int("outputs", len(outputs)).Bool("error_batch", anyError).Msg("submitting tool outputs")
		out, err = o.poller.Continue(ctx, threadID, out.RunID, outputs)
	}
}

func (o *Orchestrator) exhausted(ctx context.Context, log zerolog.Logger, threadID, runID string, b Budget, ceiling string) TurnResult {
	log.Warn().Str("run_id", runID).Str("ceiling", ceiling).Int("round_trips", b.RoundTrips).Int("error_batches", b.ErrorBatches).Msg("turn budget exhausted")
	o.poller.Cancel(ctx, threadID, runID)
	return TurnResult{
		Text:         BudgetExhaustedText,
		RunID:        runID,
		RoundTrips:   b.RoundTrips,
		ErrorBatches: b.ErrorBatches,
		Reason:       ReasonBudgetExhausted,
	}
}

// checkRegistered fails before any call of the batch runs.
func (o *Orchestrator) checkRegistered(calls []provider.ToolCall) error {
	for _, tc := range calls {
		if !o.dispatcher.Registered(tc.Name) {
			return fmt.Errorf("%w: %s (tool call %s)", ErrUnregisteredFunction, tc.Name, tc.ID)
		}
	}
	return nil
}

// dispatch executes a batch and returns outputs in the order of calls.
func (o *Orchestrator) dispatch(ctx context.Context, calls []provider.ToolCall) ([]provider.ToolOutput, bool, error) {
	results := make([]tools.FunctionResult, len(calls))
	if o.opts.Parallel && len(calls) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i, tc := range calls {
			g.Go(func() error {
				r, err := o.dispatcher.Execute(gctx, tc.Name, tc.Arguments)
				results[i] = r
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, false, err
		}
	} else {
		for i, tc := range calls {
			r, err := o.dispatcher.Execute(ctx, tc.Name, tc.Arguments)
			if err != nil {
				return nil, false, err
			}
			results[i] = r
		}
	}

	outputs := make([]provider.ToolOutput, len(calls))
	anyError := false
	for i, tc := range calls {
		outputs[i] = provider.ToolOutput{ToolCallID: tc.ID, Output: results[i].Value}
		anyError = anyError || results[i].IsError
	}
	return outputs, anyError, nil
}
