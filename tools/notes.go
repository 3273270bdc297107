package tools

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dhcgn/llm-assist/console"
	"github.com/dhcgn/llm-assist/llm"
	"github.com/dhcgn/llm-assist/model"
	"github.com/dhcgn/llm-assist/progress"
	"github.com/dhcgn/llm-assist/runner"
)

// EmptyPageText is shown when a page holds no text to summarize.
const EmptyPageText = "The page has no text content."

// Notes generates documents or summarizes existing pages and offers to save
// the result as a new page.
func Notes(docs Documents, completer Completer, ind *progress.Indicator, logger *slog.Logger) Tool {
	b := base{llm: completer, progress: ind, logger: logger}

	// The topic of the last generated document is offered as the default title.
	var topic string

	generate := runner.Action{
		Name:    "1",
		Aliases: []string{"generate"},
		Heading: "\nGenerated Document:\n",
		Execute: func(ctx context.Context, c *console.Console, _ string) model.Outcome {
			var err error
			topic, err = c.Prompt("Enter topic to generate document: ")
			if err != nil {
				return model.Failure(err)
			}
			if topic == "" {
				return model.Failure(model.NewError(model.KindValidation, "generate document", model.ErrEmptyPrompt))
			}
			doc, err := b.generate(ctx, "Generating document...", llm.Documentation(topic))
			if err != nil {
				return model.Failure(err)
			}
			return reply(doc)
		},
		FollowUp: func(ctx context.Context, c *console.Console, outcome model.Outcome) (runner.FollowUpResult, error) {
			return saveToNotes(ctx, c, docs, "Save this document to Notion?", "Enter title for Notion page: ", topic, outcome.Text)
		},
	}

	summarize := runner.Action{
		Name:    "2",
		Aliases: []string{"summarize"},
		Heading: "\nSummary:",
		Execute: func(ctx context.Context, c *console.Console, _ string) model.Outcome {
			pageID, err := c.Prompt("Enter Notion Page ID to summarize: ")
			if err != nil {
				return model.Failure(err)
			}
			content, err := docs.FlattenPage(ctx, pageID)
			if err != nil {
				return model.Failure(err)
			}
			if strings.TrimSpace(content) == "" {
				return model.Sentinel(EmptyPageText)
			}
			summary, err := b.generate(ctx, "Generating summary...", llm.SummarizeNotes(content))
			if err != nil {
				return model.Failure(err)
			}
			return reply(summary)
		},
		FollowUp: func(ctx context.Context, c *console.Console, outcome model.Outcome) (runner.FollowUpResult, error) {
			return saveToNotes(ctx, c, docs, "Save this summary to Notion?", "Enter title for summary page: ", "", outcome.Text)
		},
	}

	return Tool{
		Options: runner.Options{
			Banner:       "Notion + LLM Document Assistant\n----------------------------------",
			Menu:         "\n1. Generate new document from topic\n2. Summarize existing Notion document\n3. Exit",
			Prompt:       "Choose an option (1/2/3): ",
			Goodbye:      "Exiting. Bye!",
			Invalid:      "Invalid option. Please choose 1, 2, or 3.",
			ExitCommands: []string{"3", "exit"},
		},
		Actions: []runner.Action{generate, summarize},
	}
}

func saveToNotes(ctx context.Context, c *console.Console, docs Documents, question, titleLabel, defaultTitle, content string) (runner.FollowUpResult, error) {
	ok, err := c.Confirm("\n"+question, "yes")
	if err != nil || !ok {
		return runner.FollowUpDeclined, err
	}
	title, err := c.Prompt(titleLabel)
	if err != nil {
		return runner.FollowUpDeclined, err
	}
	if title == "" {
		title = defaultTitle
	}
	parentID, err := c.Prompt("Enter Notion page ID where you want to save: ")
	if err != nil {
		return runner.FollowUpDeclined, err
	}
	if _, err := docs.CreatePage(ctx, parentID, title, content); err != nil {
		return runner.FollowUpDeclined, err
	}
	c.Success("Saved to Notion page titled '%s'", title)
	return runner.FollowUpDelivered, nil
}
