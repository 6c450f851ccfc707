package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Alignment costs at or below these bounds render as good or fair matches.
const (
	costGood = 10.0
	costFair = 40.0
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type palette struct {
	good *color.Color
	fair *color.Color
	bad  *color.Color
	head *color.Color
}

func newPalette(writer io.Writer) palette {
	p := palette{
		good: color.New(color.FgGreen),
		fair: color.New(color.FgYellow),
		bad:  color.New(color.FgRed),
		head: color.New(color.FgBlue, color.Bold),
	}
	enable := shouldColorize(writer)
	for _, c := range []*color.Color{p.good, p.fair, p.bad, p.head} {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) cost(cost *float64) string {
	if cost == nil {
		return p.bad.Sprint("-")
	}
	text := fmt.Sprintf("%.1f", *cost)
	switch {
	case *cost <= costGood:
		return p.good.Sprint(text)
	case *cost <= costFair:
		return p.fair.Sprint(text)
	default:
		return p.bad.Sprint(text)
	}
}

// confidence renders a release match code; codes above the search score
// range come from a cross-reference hit.
func (p palette) confidence(code *int) string {
	if code == nil {
		return p.bad.Sprint("unmatched")
	}
	if *code > 100 {
		return p.good.Sprintf("%d (cross-reference)", *code)
	}
	return p.fair.Sprintf("%d (search)", *code)
}

func (p palette) section(title string) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	return p.head.Sprint(line)
}

// progressPrinter renders sync checkpoints, rewriting one line on terminals
// and printing every tenth percent otherwise.
type progressPrinter struct {
	out         io.Writer
	interactive bool
	lastBucket  int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, interactive: shouldColorize(out), lastBucket: -1}
}

func (p *progressPrinter) update(percent float64, synced, total int) {
	if p.interactive {
		fmt.Fprintf(p.out, "\rSyncing %3.0f%% (%d/%d)", percent, synced, total)
		return
	}
	bucket := int(percent) / 10
	if bucket == p.lastBucket {
		return
	}
	p.lastBucket = bucket
	fmt.Fprintf(p.out, "Syncing %3.0f%% (%d/%d)\n", percent, synced, total)
}

func (p *progressPrinter) finish() {
	if p.interactive {
		fmt.Fprintln(p.out)
	}
}
