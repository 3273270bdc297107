package filter

import (
	"strings"

	"github.com/dhcgn/llm-assist/model"
)

// Options captures the filtering configuration.
type Options struct {
	Keyword string
}

// Filter holds a normalized keyword for case-insensitive substring matching.
type Filter struct {
	keyword string
	needle  string
}

// New creates a new Filter from the provided options.
func New(opts Options) (*Filter, error) {
	keyword := strings.TrimSpace(opts.Keyword)
	if keyword == "" {
		return nil, model.NewError(model.KindValidation, "keyword filter", model.ErrEmptyKeyword)
	}

	return &Filter{
		keyword: keyword,
		needle:  strings.ToLower(keyword),
	}, nil
}

// Keyword returns the trimmed keyword as entered.
func (f *Filter) Keyword() string {
	return f.keyword
}

// Matches reports whether the keyword occurs in the subject or the sender.
func (f *Filter) Matches(msg model.Message) bool {
	return strings.Contains(strings.ToLower(msg.Subject), f.needle) ||
		strings.Contains(strings.ToLower(msg.Sender), f.needle)
}
