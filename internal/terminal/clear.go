// Package terminal provides small terminal helpers for the interactive
// commands: width detection, erasing echoed prompts, and hidden input.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"atomicgo.dev/cursor"
	"golang.org/x/term"
)

// DefaultWidth is assumed when stdout is not a terminal.
const DefaultWidth = 80

// Width returns the width of the terminal on stdout.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return DefaultWidth
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// linesFor returns how many terminal rows textLength characters occupied,
// plus the empty row the cursor moved to when Enter was pressed.
func linesFor(textLength, width int) int {
	if width <= 0 {
		width = DefaultWidth
	}
	rows := (textLength + width - 1) / width
	if rows < 1 {
		rows = 1
	}
	return rows + 1
}

// ClearPreviousLines erases a prompt and its echoed answer.
func ClearPreviousLines(textLength int) {
	n := linesFor(textLength, Width())
	for i := 0; i < n; i++ {
		cursor.StartOfLine()
		cursor.ClearLine()
		if i < n-1 {
			cursor.Up(1)
		}
	}
}

// ErrNoInput is returned when stdin closes before a line is read.
var ErrNoInput = errors.New("no input")

// Prompter reads answers from a reader, hiding secrets when it is a terminal.
type Prompter struct {
	in  *bufio.Reader
	fd  int
	tty bool
	out io.Writer
}

// NewPrompter reads from stdin and writes prompts to stdout.
func NewPrompter() *Prompter {
	fd := int(os.Stdin.Fd())
	return &Prompter{in: bufio.NewReader(os.Stdin), fd: fd, tty: term.IsTerminal(fd), out: os.Stdout}
}

// NewPrompterFrom reads from r without terminal handling. Used by tests and
// --password-stdin.
func NewPrompterFrom(r io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(r), fd: -1, out: out}
}

// Line prints label and returns the trimmed answer.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		if err == io.EOF {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// Secret prints label and reads an answer without echo when attached to a
// terminal. The trailing newline is stripped; surrounding spaces are kept.
func (p *Prompter) Secret(label string) (string, error) {
	if !p.tty {
		fmt.Fprint(p.out, label)
		s, err := p.in.ReadString('\n')
		if err != nil && (err != io.EOF || s == "") {
			if err == io.EOF {
				return "", ErrNoInput
			}
			return "", err
		}
		return strings.TrimRight(s, "\r\n"), nil
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
