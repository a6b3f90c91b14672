package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/petasbytes/go-assistant/internal/provider"
)

// Session binds one conversation thread and assistant to an Orchestrator.
// Create it once per conversation and Close it when the conversation ends.
type Session struct {
	api         RunAPI
	orch        *Orchestrator
	threadID    string
	assistantID string

	mu     sync.Mutex
	busy   bool
	closed bool
}

// NewSession creates a fresh remote thread.
func NewSession(ctx context.Context, api RunAPI, orch *Orchestrator, assistantID string) (*Session, error) {
	threadID, err := api.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return ResumeSession(api, orch, threadID, assistantID), nil
}

// ResumeSession binds an existing thread.
func ResumeSession(api RunAPI, orch *Orchestrator, threadID, assistantID string) *Session {
	return &Session{api: api, orch: orch, threadID: threadID, assistantID: assistantID}
}

func (s *Session) ThreadID() string    { return s.threadID }
func (s *Session) AssistantID() string { return s.assistantID }

// Turn runs one user turn. Only one turn may be in flight per session.
func (s *Session) Turn(ctx context.Context, text string, notify Notifier) (TurnResult, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return TurnResult{}, ErrSessionClosed
	case s.busy:
		s.mu.Unlock()
		return TurnResult{}, ErrTurnInProgress
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()
	return s.orch.Turn(ctx, s.threadID, s.assistantID, text, notify)
}

// History returns the whole thread, oldest first.
func (s *Session) History(ctx context.Context) ([]provider.Message, error) {
	return s.api.History(ctx, s.threadID)
}

// Close ends the session. Later turns fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
