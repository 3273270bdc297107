package mailbox

import (
	"fmt"
	"strings"

	"github.com/dhcgn/llm-assist/model"
)

const (
	digestRule = 30
	matchRule  = 50
)

// EmptyInboxText is the digest shown for a mailbox without messages.
const EmptyInboxText = "No messages in the mailbox."

// NoMatchText is the sentinel shown when a keyword search finds nothing.
func NoMatchText(keyword string) string {
	return fmt.Sprintf("No email found matching the keyword: %s", keyword)
}

// FormatDigest renders one sender and subject entry per message, in the given order.
func FormatDigest(msgs []model.Message) string {
	var b strings.Builder
	for _, msg := range msgs {
		fmt.Fprintf(&b, "From: %s\nSubject: %s\n%s\n", msg.Sender, msg.Subject, strings.Repeat("-", digestRule))
	}
	return b.String()
}

// FormatMatches renders search results with their body preview, separated by blank lines.
func FormatMatches(msgs []model.Message) string {
	entries := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, fmt.Sprintf("From: %s\nSubject: %s\n\nContent:\n%s\n%s",
			msg.Sender, msg.Subject, msg.Body, strings.Repeat("-", matchRule)))
	}
	return strings.Join(entries, "\n\n")
}

// DigestOutcome converts a FetchRecent result into a tagged outcome.
func DigestOutcome(msgs []model.Message, err error) model.Outcome {
	if err != nil {
		return model.Failure(err)
	}
	if len(msgs) == 0 {
		return model.Sentinel(EmptyInboxText)
	}
	return model.Success(FormatDigest(msgs))
}

// SearchOutcome converts a SearchByKeyword result into a tagged outcome.
func SearchOutcome(keyword string, msgs []model.Message, err error) model.Outcome {
	if err != nil {
		return model.Failure(err)
	}
	if len(msgs) == 0 {
		return model.Sentinel(NoMatchText(strings.TrimSpace(keyword)))
	}
	return model.Success(FormatMatches(msgs))
}
