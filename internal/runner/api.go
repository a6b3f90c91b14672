package runner

import (
	"context"

	"github.com/petasbytes/go-assistant/internal/provider"
)

// RunAPI is the slice of the assistant service the runner needs.
// *provider.Client implements it.
type RunAPI interface {
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, text string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (provider.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []provider.ToolOutput) (provider.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (provider.Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	ListMessages(ctx context.Context, threadID string, limit int) ([]provider.Message, error)
	History(ctx context.Context, threadID string) ([]provider.Message, error)
}

var _ RunAPI = (*provider.Client)(nil)

// User-visible texts produced by the runner itself.
const (
	TransientErrorText  = "Sorry, there was an error. Please try again."
	BudgetExhaustedText = "Sorry, I wasn't able to finish that request. Please try again."
	WorkingNotice       = "Just a sec 🔍"
)

// Reason is why a turn ended.
type Reason string

const (
	ReasonCompleted       Reason = "completed"
	ReasonRunFailed       Reason = "run_failed"
	ReasonTransient       Reason = "transient"
	ReasonBudgetExhausted Reason = "budget_exhausted"
)
