package console

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("  summary \nlast"), &out, false)

	got, err := c.Prompt("> ")
	if err != nil || got != "summary" {
		t.Fatalf("Prompt = %q, %v", got, err)
	}
	got, err = c.Prompt("> ")
	if err != nil || got != "last" {
		t.Fatalf("Prompt without trailing newline = %q, %v", got, err)
	}
	if _, err := c.Prompt("> "); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if out.String() != "> > > " {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		yes   string
		want  bool
	}{
		{input: "y\n", yes: "y", want: true},
		{input: "Y\n", yes: "y", want: true},
		{input: "yes\n", yes: "y", want: false},
		{input: "YES\n", yes: "yes", want: true},
		{input: "y\n", yes: "yes", want: false},
		{input: "\n", yes: "yes", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.yes+"/"+strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			c := New(strings.NewReader(tt.input), &out, false)
			got, err := c.Confirm("Save?", tt.yes)
			if err != nil {
				t.Fatalf("Confirm: %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.HasPrefix(out.String(), "Save? ("+tt.yes+"/") {
				t.Errorf("unexpected question %q", out.String())
			}
		})
	}
}

func TestPlainOutput(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out, false)
	c.Error("Error: %s", "boom")
	c.Success("Sent to %s", "a@example.com")
	c.Title("Menu")

	want := "Error: boom\nSent to a@example.com\nMenu\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}
