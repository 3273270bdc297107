// Package tools assembles the command sets of the three assistants on top of
// the runner, the mail and document clients and the completion client.
package tools

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dhcgn/llm-assist/model"
	"github.com/dhcgn/llm-assist/progress"
	"github.com/dhcgn/llm-assist/runner"
)

// EmptyReplyText is shown instead of a blank completion.
const EmptyReplyText = "The model returned an empty reply."

type MailReader interface {
	FetchRecent(ctx context.Context, n int) ([]model.Message, error)
	SearchByKeyword(ctx context.Context, keyword string) ([]model.Message, error)
}

type MailSender interface {
	Send(ctx context.Context, subject, body, recipient string) error
}

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Documents interface {
	CreatePage(ctx context.Context, parentID, title, content string) (string, error)
	FlattenPage(ctx context.Context, pageID string) (string, error)
}

// Tool is a runner configuration plus its command set.
type Tool struct {
	Options runner.Options
	Actions []runner.Action
}

type base struct {
	llm      Completer
	progress *progress.Indicator
	logger   *slog.Logger
}

func (b base) generate(ctx context.Context, label, prompt string) (string, error) {
	var answer string
	err := b.progress.Run(label, func() error {
		var err error
		answer, err = b.llm.Complete(ctx, prompt)
		return err
	})
	return answer, err
}

// reply turns a completion into an outcome. A blank completion has nothing to
// send or save, so it carries no follow-up.
func reply(answer string) model.Outcome {
	if strings.TrimSpace(answer) == "" {
		return model.Sentinel(EmptyReplyText)
	}
	return model.Success(answer)
}
