package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dhcgn/llm-assist/console"
	"github.com/dhcgn/llm-assist/llm"
	"github.com/dhcgn/llm-assist/mailbox"
	"github.com/dhcgn/llm-assist/model"
	"github.com/dhcgn/llm-assist/progress"
	"github.com/dhcgn/llm-assist/runner"
)

// Digest is the mail digest assistant: summarize recent mail or search by
// keyword, then optionally ask the model about the result.
func Digest(mail MailReader, completer Completer, ind *progress.Indicator, logger *slog.Logger) Tool {
	b := base{llm: completer, progress: ind, logger: logger}

	summary := runner.Action{
		Name:    "summary",
		Aliases: []string{"1"},
		Heading: "\nInbox Summary:",
		Execute: func(ctx context.Context, c *console.Console, _ string) model.Outcome {
			answer, err := c.Prompt("How many recent emails do you want to summarize? (e.g., 5, 10): ")
			if err != nil {
				return model.Failure(err)
			}
			n, err := strconv.Atoi(answer)
			if err != nil {
				return model.Failure(model.NewError(model.KindValidation, "fetch recent", fmt.Errorf("%w: %q is not a number", model.ErrNonPositiveCount, answer)))
			}
			msgs, err := mail.FetchRecent(ctx, n)
			return mailbox.DigestOutcome(msgs, err)
		},
		FollowUp: b.askAbout("Would you like to ask something about this summary?", llm.InboxQuestion),
	}

	keyword := runner.Action{
		Name:    "keyword",
		Aliases: []string{"2", "search"},
		Heading: "\nMatching Emails:",
		Execute: func(ctx context.Context, c *console.Console, _ string) model.Outcome {
			kw, err := c.Prompt("Enter a keyword (e.g., YouTube, job, Google) to search for emails: ")
			if err != nil {
				return model.Failure(err)
			}
			msgs, err := mail.SearchByKeyword(ctx, kw)
			return mailbox.SearchOutcome(kw, msgs, err)
		},
		FollowUp: b.askAbout("Would you like to ask something about these emails?", llm.EmailsQuestion),
	}

	return Tool{
		Options: runner.Options{
			Banner:       "Smart Email Assistant\n-----------------------------",
			Menu:         "\nWhat would you like to do?\n  summary  view inbox summary\n  keyword  search for a specific email\n  exit     exit the assistant",
			Prompt:       "Your choice (summary / keyword / exit): ",
			Goodbye:      "Goodbye! The assistant has exited.",
			Invalid:      "Invalid input. Please type only 'summary', 'keyword', or 'exit'.",
			ExitCommands: []string{"exit", "3"},
		},
		Actions: []runner.Action{summary, keyword},
	}
}

func (b base) askAbout(question string, compose func(content, question string) string) func(context.Context, *console.Console, model.Outcome) (runner.FollowUpResult, error) {
	return func(ctx context.Context, c *console.Console, outcome model.Outcome) (runner.FollowUpResult, error) {
		ok, err := c.Confirm("\n"+question, "y")
		if err != nil || !ok {
			return runner.FollowUpDeclined, err
		}
		q, err := c.Prompt("Your question (English or any language): ")
		if err != nil {
			return runner.FollowUpDeclined, err
		}

		answer, err := b.generate(ctx, "Thinking...", compose(outcome.Text, q))
		if err != nil {
			return runner.FollowUpDeclined, err
		}
		c.Printf("\nLLM Response:\n%s\n", answer)
		return runner.FollowUpDone, nil
	}
}
