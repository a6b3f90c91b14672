// Package provider adapts the OpenAI Assistants API (threads, runs, messages)
// to the small set of calls the turn runner needs.
package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configures the OpenAI client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client implements the Assistant Run API on top of openai-go.
type Client struct {
	api openai.Client
}

// NewOpenAIClient builds a client. SDK-level retries are disabled; the runner
// owns the retry budget.
func NewOpenAIClient(opts Options) *Client {
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &Client{api: openai.NewClient(reqOpts...)}
}

// CreateThread creates an empty conversation thread and returns its id.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	th, err := c.api.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return th.ID, nil
}

// AddUserMessage appends a user message to the thread.
func (c *Client) AddUserMessage(ctx context.Context, threadID, text string) error {
	_, err := c.api.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role:    openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

// CreateRun starts a run of the assistant over the thread.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (Run, error) {
	r, err := c.api.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{AssistantID: assistantID})
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	return toRun(r), nil
}

// SubmitToolOutputs answers the tool calls of a run that requires action.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error) {
	params := openai.BetaThreadRunSubmitToolOutputsParams{
		ToolOutputs: make([]openai.BetaThreadRunSubmitToolOutputsParamsToolOutput, 0, len(outputs)),
	}
	for _, o := range outputs {
		params.ToolOutputs = append(params.ToolOutputs, openai.BetaThreadRunSubmitToolOutputsParamsToolOutput{
			ToolCallID: openai.String(o.ToolCallID),
			Output:     openai.String(o.Output),
		})
	}
	r, err := c.api.Beta.Threads.Runs.SubmitToolOutputs(ctx, threadID, runID, params)
	if err != nil {
		return Run{}, fmt.Errorf("submit tool outputs: %w", err)
	}
	return toRun(r), nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	r, err := c.api.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return toRun(r), nil
}

// CancelRun asks the service to cancel an in-flight run.
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) error {
	if _, err := c.api.Beta.Threads.Runs.Cancel(ctx, threadID, runID); err != nil {
		return fmt.Errorf("cancel run: %w", err)
	}
	return nil
}

// ListMessages returns up to limit messages, most recent first.
func (c *Client) ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error) {
	page, err := c.api.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
		Limit: openai.Int(int64(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]Message, 0, len(page.Data))
	for _, m := range page.Data {
		out = append(out, toMessage(m))
	}
	return out, nil
}

// History returns every message of the thread, oldest first.
func (c *Client) History(ctx context.Context, threadID string) ([]Message, error) {
	iter := c.api.Beta.Threads.Messages.ListAutoPaging(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderAsc,
	})
	var out []Message
	for iter.Next() {
		out = append(out, toMessage(iter.Current()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

// Assistant retrieves the assistant's name and model.
func (c *Client) Assistant(ctx context.Context, assistantID string) (AssistantInfo, error) {
	a, err := c.api.Beta.Assistants.Get(ctx, assistantID)
	if err != nil {
		return AssistantInfo{}, fmt.Errorf("get assistant: %w", err)
	}
	return AssistantInfo{ID: a.ID, Name: a.Name, Model: a.Model}, nil
}

// SyncFunctions replaces the assistant's tool list with the given functions.
func (c *Client) SyncFunctions(ctx context.Context, assistantID string, defs []FunctionDefinition) error {
	toolParams := make([]openai.AssistantToolUnionParam, 0, len(defs))
	for _, d := range defs {
		fn := openai.FunctionDefinitionParam{
			Name:       d.Name,
			Parameters: openai.FunctionParameters(d.Parameters),
		}
		if d.Description != "" {
			fn.Description = openai.String(d.Description)
		}
		toolParams = append(toolParams, openai.AssistantToolUnionParam{
			OfFunction: &openai.FunctionToolParam{Function: fn},
		})
	}
	if _, err := c.api.Beta.Assistants.Update(ctx, assistantID, openai.BetaAssistantUpdateParams{Tools: toolParams}); err != nil {
		return fmt.Errorf("update assistant tools: %w", err)
	}
	return nil
}

func toRun(r *openai.Run) Run {
	run := Run{
		ID:       r.ID,
		ThreadID: r.ThreadID,
		Status:   RunStatus(r.Status),
	}
	switch run.Status {
	case RunStatusRequiresAction:
		for _, tc := range r.RequiredAction.SubmitToolOutputs.ToolCalls {
			run.ToolCalls = append(run.ToolCalls, ToolCall{
				ID:        tc.ID,
				Type:      string(tc.Type),
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	case RunStatusFailed:
		run.LastError = r.LastError.Message
	}
	return run
}

func toMessage(m openai.Message) Message {
	msg := Message{ID: m.ID, Role: string(m.Role), RunID: m.RunID}
	for _, part := range m.Content {
		if part.Type == "text" {
			msg.Text = part.Text.Value
			break
		}
	}
	return msg
}
