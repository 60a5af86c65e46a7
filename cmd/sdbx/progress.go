package main

import (
	"fmt"
	"io"
	"sync"

	sdbx "github.com/sdbx/client-go"
)

type progressLine struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	last  int
}

func newProgressLine(w io.Writer, label string) *progressLine {
	return &progressLine{w: w, label: label, last: -1}
}

func (p *progressLine) update(pr sdbx.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch pr.State {
	case sdbx.StateDone, sdbx.StateFailed:
		fmt.Fprintf(p.w, "\r%s %3d%% %-24s\n", p.label, pr.Percent, pr.Message)
		return
	}
	if pr.Percent == p.last {
		return
	}
	p.last = pr.Percent
	fmt.Fprintf(p.w, "\r%s %3d%% %-24s", p.label, pr.Percent, pr.Message)
}
