package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/internal/runner"
	"github.com/petasbytes/go-assistant/memory"
)

const (
	printConvoCommand = "print convo"
	printedConvoText  = "Printed the conversation to the logs."
)

// chatSession is the part of runner.Session the REPL drives.
type chatSession interface {
	Turn(ctx context.Context, text string, notify runner.Notifier) (runner.TurnResult, error)
	History(ctx context.Context) ([]provider.Message, error)
}

func (a *app) chat(cmd *cobra.Command) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	a.serveMetrics(ctx)

	state, err := memory.LoadSession(a.cfg.SessionPath)
	if err != nil {
		a.logger.Warn().Err(err).Str("path", a.cfg.SessionPath).Msg("failed to load persisted session")
	}

	var model string
	if info, err := a.client.Assistant(ctx, a.cfg.AssistantID); err != nil {
		a.logger.Warn().Err(err).Str("assistant_id", a.cfg.AssistantID).Msg("retrieve assistant")
	} else {
		model = info.Model
		a.logger.Info().Str("assistant_id", info.ID).Str("name", info.Name).Str("model", info.Model).Msg("assistant retrieved")
	}

	orch := a.orchestrator()
	var sess *runner.Session
	if state != nil && state.ThreadID != "" && state.AssistantID == a.cfg.AssistantID {
		sess = runner.ResumeSession(a.client, orch, state.ThreadID, state.AssistantID)
		a.logger.Info().Str("thread_id", state.ThreadID).Msg("resumed thread")
	} else {
		sess, err = runner.NewSession(ctx, a.client, orch, a.cfg.AssistantID)
		if err != nil {
			return err
		}
		state = &memory.Session{ThreadID: sess.ThreadID(), AssistantID: sess.AssistantID()}
		if welcome := a.welcomeMessage(); welcome != "" {
			state.Append("assistant", welcome)
		}
		a.logger.Info().Str("thread_id", sess.ThreadID()).Msg("thread created")
	}
	defer sess.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, a.cfg.PageTitle)
	fmt.Fprintln(out, caption(model))
	fmt.Fprintln(out)

	r := &repl{
		sess:   sess,
		state:  state,
		path:   a.cfg.SessionPath,
		in:     cmd.InOrStdin(),
		out:    out,
		logger: a.logger,
	}
	return r.run(ctx)
}

func (a *app) welcomeMessage() string {
	if a.cfg.WelcomeMessagePath == "" {
		return ""
	}
	b, err := os.ReadFile(a.cfg.WelcomeMessagePath)
	if err != nil {
		a.logger.Warn().Err(err).Str("path", a.cfg.WelcomeMessagePath).Msg("read welcome message")
		return ""
	}
	return strings.TrimSpace(string(b))
}

// caption labels the model family of the assistant.
func caption(model string) string {
	c := "Powered by Kore.ai."
	switch {
	case strings.Contains(model, "gpt-3.5"):
		c += " (Model 3.5)"
	case strings.Contains(model, "gpt-4"):
		c += " (Model 4)"
	}
	return c
}

type repl struct {
	sess   chatSession
	state  *memory.Session
	path   string
	in     io.Reader
	out    io.Writer
	logger zerolog.Logger
}

func (r *repl) run(ctx context.Context) error {
	for _, m := range r.state.Messages {
		r.render(m.Role, m.Text)
	}

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	scanner := bufio.NewScanner(r.in)
	go func() {
		defer close(inputCh)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(r.out, "\u001b[94mYou\u001b[0m: ")
		var (
			user string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return nil
		case user, ok = <-inputCh:
			if !ok {
				if err := scanner.Err(); err != nil {
					r.logger.Warn().Err(err).Msg("stdin read error")
				}
				return nil
			}
		}
		user = strings.TrimSpace(user)
		if user == "" {
			continue
		}

		if user == printConvoCommand {
			if r.printConversation(ctx) {
				r.render("assistant", printedConvoText)
			}
			continue
		}

		res, err := r.sess.Turn(ctx, user, func(notice string) { r.render("assistant", notice) })
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if runner.IsFatal(err) {
				return err
			}
			r.logger.Error().Err(err).Msg("turn")
			continue
		}
		r.render("assistant", res.Text)

		r.state.Append("user", user)
		r.state.Append("assistant", res.Text)
		if err := memory.SaveSession(r.path, r.state); err != nil {
			r.logger.Warn().Err(err).Str("path", r.path).Msg("failed to save session")
		}
	}
}

func (r *repl) render(role, text string) {
	switch role {
	case "user":
		fmt.Fprintf(r.out, "\u001b[94mYou\u001b[0m: %s\n", text)
	default:
		fmt.Fprintf(r.out, "\u001b[93mAssistant\u001b[0m: %s\n", text)
	}
}

// printConversation dumps the remote thread to the logs.
func (r *repl) printConversation(ctx context.Context) bool {
	msgs, err := r.sess.History(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("fetch conversation")
		return false
	}
	for i, m := range msgs {
		r.logger.Info().Int("index", i).Str("role", m.Role).Str("message_id", m.ID).Str("run_id", m.RunID).Str("text", m.Text).Msg("conversation")
	}
	return true
}
