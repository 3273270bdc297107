package model

// Outcome is the tagged result of one interactive action. Text is only
// meaningful when Err is nil; Empty marks an expected empty-but-successful result.
type Outcome struct {
	Text  string
	Empty bool
	Err   error
}

// OK reports whether the action succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Success builds a successful outcome.
func Success(text string) Outcome {
	return Outcome{Text: text}
}

// Sentinel builds a successful outcome that carries no content beyond text.
func Sentinel(text string) Outcome {
	return Outcome{Text: text, Empty: true}
}

// Failure builds a failed outcome.
func Failure(err error) Outcome {
	return Outcome{Err: err}
}
