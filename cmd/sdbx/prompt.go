package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// prompter asks the user for a secret.
type prompter interface {
	Secret(label string) (string, error)
}

// terminalPrompter reads without echo from a terminal, or one line per
// prompt when stdin is a pipe.
type terminalPrompter struct {
	mu  sync.Mutex
	in  *os.File
	out io.Writer
	r   *bufio.Reader
}

func newTerminalPrompter(in *os.File, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: in, out: out, r: bufio.NewReader(in)}
}

func (p *terminalPrompter) Secret(label string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprint(p.out, label)
	if term.IsTerminal(int(p.in.Fd())) {
		b, err := term.ReadPassword(int(p.in.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return string(b), nil
	}

	line, err := p.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// newPassword asks for a vault password twice.
func newPassword(p prompter, minLen int) (string, error) {
	pw, err := p.Secret("Vault password: ")
	if err != nil {
		return "", err
	}
	if len([]rune(pw)) < minLen {
		return "", fmt.Errorf("password must be at least %d characters", minLen)
	}
	again, err := p.Secret("Repeat password: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}
