package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Message is one displayed chat line.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text,omitempty"`
}

// Session is the persisted state of one conversation.
type Session struct {
	ThreadID    string    `json:"thread_id"`
	AssistantID string    `json:"assistant_id"`
	Messages    []Message `json:"messages,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Append records a displayed line. Empty text is skipped.
func (s *Session) Append(role, text string) {
	if text == "" {
		return
	}
	s.Messages = append(s.Messages, Message{Role: role, Text: text})
}

// LoadSession reads path. A missing file yields nil and no error.
func LoadSession(path string) (*Session, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", path, err)
	}
	return &s, nil
}

// SaveSession writes s to path, creating parent directories. The file is
// replaced atomically.
func SaveSession(path string, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	b, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
