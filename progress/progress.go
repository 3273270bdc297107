package progress

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/dhcgn/llm-assist/stats"
)

// Indicator shows that a blocking call is in flight. On a terminal it
// animates a spinner; otherwise it prints the label once.
type Indicator struct {
	out      io.Writer
	animated bool
}

func New(out io.Writer, animated bool) *Indicator {
	return &Indicator{out: out, animated: animated}
}

// Run shows label while fn executes and returns fn's error.
func (i *Indicator) Run(label string, fn func() error) error {
	if i == nil {
		return fn()
	}
	if !i.animated {
		fmt.Fprintln(i.out, label)
		return fn()
	}

	spinner, err := pterm.DefaultSpinner.
		WithWriter(i.out).
		WithRemoveWhenDone(true).
		Start(label)
	if err != nil {
		fmt.Fprintln(i.out, label)
		return fn()
	}

	err = fn()
	_ = spinner.Stop()
	return err
}

// Summary prints the session statistics. Nothing is printed when not animated;
// the log carries the summary instead.
func (i *Indicator) Summary(summary stats.Summary) {
	if i == nil || !i.animated || summary.Executed+summary.Failed == 0 {
		return
	}

	pterm.Fprintln(i.out)
	pterm.DefaultSection.WithWriter(i.out).Println("Session")
	info := pterm.Info.WithWriter(i.out)
	info.Printfln("Actions: %d", summary.Executed)
	info.Printfln("Follow-ups: %d", summary.FollowUps)
	info.Printfln("Sent or saved: %d", summary.Delivered)
	for _, line := range stats.TopActions(summary.Actions, 3) {
		info.Println(line)
	}
	if summary.Failed > 0 {
		pterm.Error.WithWriter(i.out).Printfln("Failures: %d (last: %v)", summary.Failed, summary.LastError)
	}
}
