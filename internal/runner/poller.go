package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/petasbytes/go-assistant/internal/metrics"
	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/internal/telemetry"
)

// OutcomeKind distinguishes a finished run from one waiting on tool outputs.
type OutcomeKind int

const (
	Responded OutcomeKind = iota
	Pending
)

// Outcome is the synchronous result of one Start or Continue.
type Outcome struct {
	Kind      OutcomeKind
	RunID     string
	Text      string              // set when Responded
	Reason    Reason              // set when Responded
	ToolCalls []provider.ToolCall // set when Pending
}

// PollerOptions bounds one Start or Continue invocation.
type PollerOptions struct {
	Interval    time.Duration // delay between status fetches
	Timeout     time.Duration // ceiling on the polling phase
	MaxAttempts int           // failed API calls tolerated per invocation
}

// DefaultPollerOptions mirrors the config defaults.
func DefaultPollerOptions() PollerOptions {
	return PollerOptions{Interval: 200 * time.Millisecond, Timeout: 2 * time.Minute, MaxAttempts: 3}
}

// Poller turns the asynchronous run lifecycle into one outcome per call.
type Poller struct {
	api    RunAPI
	opts   PollerOptions
	logger zerolog.Logger

	mu      sync.Mutex
	pending map[string]string // thread id -> run awaiting tool outputs
}

func NewPoller(api RunAPI, opts PollerOptions, logger zerolog.Logger) *Poller {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &Poller{api: api, opts: opts, logger: logger, pending: make(map[string]string)}
}

// attempts is the failure budget shared by the steps of one invocation.
type attempts struct {
	max    int
	failed int
}

// Start creates a run on threadID and polls it to an outcome.
func (p *Poller) Start(ctx context.Context, threadID, assistantID string) (Outcome, error) {
	if runID, ok := p.awaiting(threadID); ok {
		return Outcome{}, fmt.Errorf("%w: run %s still awaits tool outputs", ErrTurnInProgress, runID)
	}
	att := &attempts{max: p.opts.MaxAttempts}
	lim := p.limiter()

	var run provider.Run
	err := p.retry(ctx, lim, att, "create", func(ctx context.Context) error {
		r, err := p.api.CreateRun(ctx, threadID, assistantID)
		run = r
		return err
	})
	if err != nil {
		return p.giveUp(ctx, threadID, "", err)
	}
	p.logger.Debug().Str("thread_id", threadID).Str("run_id", run.ID).Msg("run created")
	telemetry.Emit(ctx, "run_created", map[string]any{"run_id": run.ID})
	return p.await(ctx, lim, att, threadID, run)
}

// Continue submits outputs for the run awaiting them and polls it to an outcome.
func (p *Poller) Continue(ctx context.Context, threadID, runID string, outputs []provider.ToolOutput) (Outcome, error) {
	if len(outputs) == 0 {
		return Outcome{}, ErrEmptyToolOutputs
	}
	p.mu.Lock()
	want, ok := p.pending[threadID]
	if !ok || want != runID {
		p.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: thread %s awaits %q, got %q", ErrRunMismatch, threadID, want, runID)
	}
	delete(p.pending, threadID)
	p.mu.Unlock()

	att := &attempts{max: p.opts.MaxAttempts}
	lim := p.limiter()

	var run provider.Run
	err := p.retry(ctx, lim, att, "submit", func(ctx context.Context) error {
		r, err := p.api.SubmitToolOutputs(ctx, threadID, runID, outputs)
		run = r
		return err
	})
	if err != nil {
		return p.giveUp(ctx, threadID, runID, err)
	}
	if run.ID == "" {
		run.ID = runID
	}
	return p.await(ctx, lim, att, threadID, run)
}

// Cancel asks the service to stop runID. Failures are logged only.
func (p *Poller) Cancel(ctx context.Context, threadID, runID string) {
	p.mu.Lock()
	if p.pending[threadID] == runID {
		delete(p.pending, threadID)
	}
	p.mu.Unlock()
	if runID == "" {
		return
	}
	if err := p.api.CancelRun(context.WithoutCancel(ctx), threadID, runID); err != nil {
		p.logger.Warn().Err(err).Str("thread_id", threadID).Str("run_id", runID).Msg("cancel run")
		return
	}
	p.logger.Info().Str("thread_id", threadID).Str("run_id", runID).Msg("run cancelled")
}

func (p *Poller) awaiting(threadID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	runID, ok := p.pending[threadID]
	return runID, ok
}

// limiter paces status fetches and retries. Its initial token is spent so
// the first fetch waits a full interval.
func (p *Poller) limiter() *rate.Limiter {
	lim := rate.NewLimiter(rate.Every(p.opts.Interval), 1)
	lim.Allow()
	return lim
}

func (p *Poller) await(ctx context.Context, lim *rate.Limiter, att *attempts, threadID string, run provider.Run) (Outcome, error) {
	log := p.logger.With().Str("thread_id", threadID).Str("run_id", run.ID).Logger()

	pollCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	runID := run.ID
	last := run.Status
	for run.Status.Active() {
		if err := wait(pollCtx, lim); err != nil {
			return p.pollFailed(ctx, threadID, runID, err)
		}
		err := p.retry(pollCtx, lim, att, "get", func(ctx context.Context) error {
			r, err := p.api.GetRun(ctx, threadID, runID)
			if err == nil {
				run = r
			}
			return err
		})
		metrics.RecordPoll()
		if err != nil {
			return p.pollFailed(ctx, threadID, runID, err)
		}
		if run.Status != last {
			log.Debug().Str("from", string(last)).Str("to", string(run.Status)).Msg("run status")
			last = run.Status
		}
	}
	metrics.RecordRunStatus(string(run.Status))

	switch run.Status {
	case provider.RunStatusCompleted:
		text, err := p.latestText(ctx, lim, att, threadID)
		if err != nil {
			return p.giveUp(ctx, threadID, "", err)
		}
		return Outcome{Kind: Responded, RunID: runID, Text: text, Reason: ReasonCompleted}, nil

	case provider.RunStatusRequiresAction:
		if len(run.ToolCalls) == 0 {
			return Outcome{}, &ProtocolError{RunID: runID, Status: run.Status, Detail: "requires action without tool calls"}
		}
		for _, tc := range run.ToolCalls {
			if tc.Type != provider.ToolCallTypeFunction {
				return Outcome{}, &ProtocolError{RunID: runID, Status: run.Status, ToolCallType: tc.Type}
			}
		}
		p.mu.Lock()
		p.pending[threadID] = runID
		p.mu.Unlock()
		return Outcome{Kind: Pending, RunID: runID, ToolCalls: run.ToolCalls}, nil

	case provider.RunStatusFailed:
		log.Warn().Str("last_error", run.LastError).Msg("run failed")
		return Outcome{Kind: Responded, RunID: runID, Text: "Error: " + run.LastError, Reason: ReasonRunFailed}, nil

	default:
		return Outcome{}, &ProtocolError{RunID: runID, Status: run.Status}
	}
}

// latestText returns the text of the newest thread message.
func (p *Poller) latestText(ctx context.Context, lim *rate.Limiter, att *attempts, threadID string) (string, error) {
	var msgs []provider.Message
	err := p.retry(ctx, lim, att, "list_messages", func(ctx context.Context) error {
		m, err := p.api.ListMessages(ctx, threadID, 1)
		msgs = m
		return err
	})
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		return "", nil
	}
	return msgs[0].Text, nil
}

// pollFailed maps a polling error. Expiry of the polling timeout cancels the
// run and yields the canned outcome.
func (p *Poller) pollFailed(ctx context.Context, threadID, runID string, err error) (Outcome, error) {
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		p.logger.Warn().Str("thread_id", threadID).Str("run_id", runID).Dur("timeout", p.opts.Timeout).Msg("poll timeout")
		telemetry.Emit(ctx, "poll_timeout", map[string]any{"run_id": runID})
		p.Cancel(ctx, threadID, runID)
		return Outcome{Kind: Responded, RunID: runID, Text: TransientErrorText, Reason: ReasonTransient}, nil
	}
	return p.giveUp(ctx, threadID, runID, err)
}

// giveUp converts an exhausted attempt budget into the canned outcome and
// passes every other error through.
func (p *Poller) giveUp(ctx context.Context, threadID, runID string, err error) (Outcome, error) {
	if !errors.Is(err, errAttemptsExhausted) {
		return Outcome{}, err
	}
	p.logger.Error().Err(err).Str("thread_id", threadID).Str("run_id", runID).Msg("run api unavailable")
	p.Cancel(ctx, threadID, runID)
	return Outcome{Kind: Responded, RunID: runID, Text: TransientErrorText, Reason: ReasonTransient}, nil
}

// retry runs fn until it succeeds or the shared budget is spent. Context
// errors are returned as is.
func (p *Poller) retry(ctx context.Context, lim *rate.Limiter, att *attempts, step string, fn func(context.Context) error) error {
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		att.failed++
		metrics.RecordAttemptFailure(step)
		if att.failed >= att.max {
			return fmt.Errorf("%w: %s: %w", errAttemptsExhausted, step, err)
		}
		p.logger.Warn().Err(err).Str("step", step).Int("attempt", att.failed).Int("max_attempts", att.max).Msg("retrying")
		if err := wait(ctx, lim); err != nil {
			return err
		}
	}
}

// wait blocks for the next tick. When the tick would land past the deadline
// it blocks until the deadline instead.
func wait(ctx context.Context, lim *rate.Limiter) error {
	if err := lim.Wait(ctx); err != nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}
