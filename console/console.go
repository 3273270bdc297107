package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console reads line answers and writes the conversation. It is not safe for concurrent use.
type Console struct {
	reader *bufio.Reader
	out    io.Writer

	errColor     *color.Color
	successColor *color.Color
	titleColor   *color.Color
}

// New wraps in and out. Colored output is only written when colored is set.
func New(in io.Reader, out io.Writer, colored bool) *Console {
	c := &Console{
		reader:       bufio.NewReader(in),
		out:          out,
		errColor:     color.New(color.FgRed),
		successColor: color.New(color.FgGreen),
		titleColor:   color.New(color.Bold, color.FgCyan),
	}
	for _, col := range []*color.Color{c.errColor, c.successColor, c.titleColor} {
		if colored {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// Prompt prints label and returns the next trimmed line. It returns io.EOF
// once input is exhausted and no partial line is pending.
func (c *Console) Prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks question and reports whether the answer equals yes, ignoring case.
func (c *Console) Confirm(question, yes string) (bool, error) {
	no := "no"
	if len(yes) == 1 {
		no = "n"
	}
	answer, err := c.Prompt(fmt.Sprintf("%s (%s/%s): ", question, yes, no))
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, yes), nil
}

func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

func (c *Console) Printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

func (c *Console) Title(s string) {
	c.titleColor.Fprintln(c.out, s)
}

func (c *Console) Success(format string, a ...any) {
	c.successColor.Fprintf(c.out, format+"\n", a...)
}

// Error prints a single failure line.
func (c *Console) Error(format string, a ...any) {
	c.errColor.Fprintf(c.out, format+"\n", a...)
}
