package tools

import (
	"context"
	"log/slog"

	"github.com/dhcgn/llm-assist/console"
	"github.com/dhcgn/llm-assist/model"
	"github.com/dhcgn/llm-assist/progress"
	"github.com/dhcgn/llm-assist/runner"
	"github.com/dhcgn/llm-assist/smtp"
)

// Chat answers every line with a completion and offers to mail the reply.
func Chat(sender MailSender, completer Completer, ind *progress.Indicator, logger *slog.Logger) Tool {
	b := base{llm: completer, progress: ind, logger: logger}

	message := &runner.Action{
		Name:    "message",
		Heading: "Bot:",
		Execute: func(ctx context.Context, _ *console.Console, input string) model.Outcome {
			answer, err := b.generate(ctx, "Generating...", input)
			if err != nil {
				return model.Failure(err)
			}
			return reply(answer)
		},
		FollowUp: func(ctx context.Context, c *console.Console, outcome model.Outcome) (runner.FollowUpResult, error) {
			ok, err := c.Confirm("Do you want to send this reply via email?", "y")
			if err != nil || !ok {
				return runner.FollowUpDeclined, err
			}
			to, err := c.Prompt("Enter recipient's email address: ")
			if err != nil {
				return runner.FollowUpDeclined, err
			}
			if err := sender.Send(ctx, smtp.DefaultSubject, outcome.Text, to); err != nil {
				return runner.FollowUpDeclined, err
			}
			c.Success("Email sent successfully.")
			return runner.FollowUpDelivered, nil
		},
	}

	return Tool{
		Options: runner.Options{
			Banner:       "Welcome to the Email Chatbot!\nType your message. Type 'exit' to quit.",
			Prompt:       "You: ",
			Goodbye:      "Goodbye!",
			ExitCommands: []string{"exit", "quit"},
			Fallback:     message,
		},
	}
}
