package llm

import "fmt"

// InboxQuestion asks about a digest of recent mail.
func InboxQuestion(digest, question string) string {
	return fmt.Sprintf("Inbox summary:\n%s\n\nQuestion:\n%s", digest, question)
}

// EmailsQuestion asks about the messages found by a keyword search.
func EmailsQuestion(emails, question string) string {
	return fmt.Sprintf("Here are the emails:\n%s\n\nNow answer this question:\n%s", emails, question)
}

func Documentation(topic string) string {
	return fmt.Sprintf("Write a detailed professional technical documentation about: %s", topic)
}

func SummarizeNotes(content string) string {
	return fmt.Sprintf("Summarize this Notion content:\n\n%s", content)
}
