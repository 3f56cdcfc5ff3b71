package svchost

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Console writes operator-facing messages for interactive sessions
type Console struct {
	out io.Writer
	in  io.Reader

	red    *color.Color
	yellow *color.Color
	green  *color.Color
}

// NewConsole returns a console writing to out and reading keys from in
func NewConsole(out io.Writer, in io.Reader) *Console {
	return &Console{
		out:    out,
		in:     in,
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		green:  color.New(color.FgGreen),
	}
}

// StdConsole returns a console on the process standard streams
func StdConsole() *Console {
	return NewConsole(os.Stdout, os.Stdin)
}

// Println writes an uncolored line
func (c *Console) Println(a ...any) {
	_, _ = fmt.Fprintln(c.out, a...)
}

// Fatal writes a line in red
func (c *Console) Fatal(format string, a ...any) {
	_, _ = c.red.Fprintf(c.out, format+"\n", a...)
}

// Warn writes a line in yellow
func (c *Console) Warn(format string, a ...any) {
	_, _ = c.yellow.Fprintf(c.out, format+"\n", a...)
}

// Progress writes a line in green
func (c *Console) Progress(format string, a ...any) {
	_, _ = c.green.Fprintf(c.out, format+"\n", a...)
}

// WaitForKey prints prompt and blocks until a single key is pressed.
// When the input is not a terminal it reads one byte instead.
func (c *Console) WaitForKey(prompt string) error {
	if prompt != "" {
		c.Println(prompt)
	}

	buf := make([]byte, 1)
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("svchost: raw terminal: %w", err)
		}
		defer func() { _ = term.Restore(int(f.Fd()), state) }()
	}

	if c.in == nil {
		return nil
	}
	if _, err := c.in.Read(buf); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("svchost: read key: %w", err)
	}
	return nil
}
