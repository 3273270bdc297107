package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dhcgn/llm-assist/console"
	"github.com/dhcgn/llm-assist/model"
	"github.com/dhcgn/llm-assist/progress"
	"github.com/dhcgn/llm-assist/stats"
)

type State int

const (
	StateIdle State = iota
	StateAwaitingChoice
	StateExecutingAction
	StateAwaitingFollowUp
	StateExit
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingChoice:
		return "awaiting_choice"
	case StateExecutingAction:
		return "executing_action"
	case StateAwaitingFollowUp:
		return "awaiting_follow_up"
	case StateExit:
		return "exit"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type FollowUpResult int

const (
	FollowUpDeclined FollowUpResult = iota
	FollowUpDone
	// FollowUpDelivered marks a follow-up that sent or saved the result.
	FollowUpDelivered
)

// Action is one entry of a tool's command set. Execute performs at most one
// remote operation and/or completion; FollowUp, when set, is offered after a
// successful non-empty outcome.
type Action struct {
	Name     string
	Aliases  []string
	Heading  string
	Execute  func(ctx context.Context, c *console.Console, input string) model.Outcome
	FollowUp func(ctx context.Context, c *console.Console, outcome model.Outcome) (FollowUpResult, error)
}

func (a Action) matches(command string) bool {
	if strings.EqualFold(command, a.Name) {
		return true
	}
	for _, alias := range a.Aliases {
		if strings.EqualFold(command, alias) {
			return true
		}
	}
	return false
}

type Options struct {
	Banner  string
	Menu    string
	Prompt  string
	Goodbye string
	// Invalid replaces the default line printed for unrecognized input.
	Invalid string
	// ExitCommands end the session. Matched case-insensitively.
	ExitCommands []string
	// Fallback handles any non-empty line that matches no action.
	Fallback *Action
	// Observe is called on every state change.
	Observe func(from, to State)
}

// Runner drives one interactive session. It is single-threaded.
type Runner struct {
	opts     Options
	actions  []Action
	console  *console.Console
	progress *progress.Indicator
	reporter *stats.Reporter
	logger   *slog.Logger
	state    State
}

func New(opts Options, actions []Action, c *console.Console, ind *progress.Indicator, logger *slog.Logger) (*Runner, error) {
	if c == nil {
		return nil, fmt.Errorf("console must not be nil")
	}
	if len(actions) == 0 && opts.Fallback == nil {
		return nil, fmt.Errorf("runner needs at least one action")
	}
	if len(opts.ExitCommands) == 0 {
		opts.ExitCommands = []string{"exit"}
	}
	if opts.Prompt == "" {
		opts.Prompt = "> "
	}
	return &Runner{
		opts:     opts,
		actions:  actions,
		console:  c,
		progress: ind,
		reporter: stats.NewReporter(logger),
		logger:   logger,
		state:    StateIdle,
	}, nil
}

func (r *Runner) State() State {
	return r.state
}

func (r *Runner) Summary() stats.Summary {
	return r.reporter.Snapshot()
}

// Run loops until an exit command, end of input or a configuration error.
// Other failures are printed and the loop continues.
func (r *Runner) Run(ctx context.Context) error {
	started := time.Now()
	defer func() {
		summary := r.reporter.Finish()
		r.progress.Summary(summary)
		if r.logger != nil {
			r.logger.Debug("session ended", "duration", time.Since(started), "state", r.state)
		}
	}()

	if r.opts.Banner != "" {
		r.console.Title(r.opts.Banner)
	}
	r.transition(StateAwaitingChoice)

	for {
		if err := ctx.Err(); err != nil {
			r.transition(StateExit)
			return err
		}

		if r.opts.Menu != "" {
			r.console.Println(r.opts.Menu)
		}
		line, err := r.console.Prompt(r.opts.Prompt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				r.transition(StateExit)
				return ctxErr
			}
			return r.stop(err)
		}

		if r.isExit(line) {
			r.exit()
			return nil
		}
		if line == "" {
			continue
		}

		action, ok := r.lookup(line)
		if !ok {
			r.reporter.Record(stats.Event{Type: stats.EventTypeRejected})
			if r.opts.Invalid != "" {
				r.console.Error("%s", r.opts.Invalid)
			} else {
				r.console.Error("Invalid choice %q. Please try again.", line)
			}
			if r.logger != nil {
				r.logger.Debug("rejected input", "input", line)
			}
			continue
		}

		if err := r.execute(ctx, action, line); err != nil {
			return err
		}
		if r.state == StateExit {
			r.exit()
			return nil
		}
	}
}

func (r *Runner) execute(ctx context.Context, action Action, line string) error {
	r.transition(StateExecutingAction)
	outcome := action.Execute(ctx, r.console, line)
	if !outcome.OK() {
		if errors.Is(outcome.Err, io.EOF) {
			r.transition(StateExit)
			return nil
		}
		if err := r.fail(action, outcome.Err); err != nil {
			return err
		}
		r.transition(StateAwaitingChoice)
		return nil
	}

	r.reporter.Record(stats.Event{Type: stats.EventTypeExecuted, Action: action.Name})
	if action.Heading != "" {
		r.console.Println(action.Heading)
	}
	if outcome.Text != "" {
		r.console.Println(outcome.Text)
	}

	if action.FollowUp == nil || outcome.Empty {
		r.transition(StateAwaitingChoice)
		return nil
	}

	r.transition(StateAwaitingFollowUp)
	result, err := action.FollowUp(ctx, r.console, outcome)
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.transition(StateExit)
			return nil
		}
		if err := r.fail(action, err); err != nil {
			return err
		}
		r.transition(StateAwaitingChoice)
		return nil
	}

	switch result {
	case FollowUpDone:
		r.reporter.Record(stats.Event{Type: stats.EventTypeFollowUp, Action: action.Name})
	case FollowUpDelivered:
		r.reporter.Record(stats.Event{Type: stats.EventTypeFollowUp, Action: action.Name})
		r.reporter.Record(stats.Event{Type: stats.EventTypeDelivered, Action: action.Name})
	}
	r.transition(StateAwaitingChoice)
	return nil
}

// fail reports err as one line. Configuration errors and cancellation are returned.
func (r *Runner) fail(action Action, err error) error {
	if model.IsKind(err, model.KindConfiguration) {
		r.transition(StateExit)
		return err
	}
	if errors.Is(err, context.Canceled) {
		r.transition(StateExit)
		return err
	}

	r.reporter.Record(stats.Event{Type: stats.EventTypeFailed, Action: action.Name, Err: err})
	if r.logger != nil {
		r.logger.Warn("action failed", "action", action.Name, "kind", model.KindOf(err), "err", err)
	}
	r.console.Error("Error: %v", err)
	return nil
}

func (r *Runner) stop(err error) error {
	if errors.Is(err, io.EOF) {
		r.exit()
		return nil
	}
	r.transition(StateExit)
	return fmt.Errorf("read input: %w", err)
}

func (r *Runner) exit() {
	r.transition(StateExit)
	if r.opts.Goodbye != "" {
		r.console.Println(r.opts.Goodbye)
	}
}

func (r *Runner) isExit(line string) bool {
	for _, cmd := range r.opts.ExitCommands {
		if strings.EqualFold(line, cmd) {
			return true
		}
	}
	return false
}

func (r *Runner) lookup(line string) (Action, bool) {
	for _, action := range r.actions {
		if action.matches(line) {
			return action, true
		}
	}
	if r.opts.Fallback != nil {
		return *r.opts.Fallback, true
	}
	return Action{}, false
}

func (r *Runner) transition(to State) {
	from := r.state
	r.state = to
	if from == to {
		return
	}
	if r.opts.Observe != nil {
		r.opts.Observe(from, to)
	}
	if r.logger != nil {
		r.logger.Debug("state change", "from", from, "to", to)
	}
}
