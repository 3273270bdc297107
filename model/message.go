package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Message represents a single decoded email item.
type Message struct {
	SeqNum  uint32
	Sender  string
	Subject string
	Body    string
	Date    time.Time
}

// DefaultEllipsis marks text that was cut by a Truncation policy.
const DefaultEllipsis = "..."

// Truncation limits preview text to Limit runes. A zero Limit disables truncation.
// Marker is appended only when text was actually cut.
type Truncation struct {
	Limit  int
	Marker string
}

// Apply returns s cut to the policy limit.
func (t Truncation) Apply(s string) string {
	if t.Limit <= 0 || utf8.RuneCountInString(s) <= t.Limit {
		return s
	}

	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == t.Limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString(t.Marker)
	return b.String()
}
