// Package output handles all altsweep CLI output formatting.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/vulnverified/altsweep/internal/engine"
)

// Progress writes stage progress updates to w and resolved candidates to out.
// It implements engine.ProgressReporter.
type Progress struct {
	w       io.Writer
	out     io.Writer
	verbose bool
	silent  bool
	mu      sync.Mutex
	start   time.Time

	target *color.Color
	value  *color.Color
	hop    *color.Color
	info   *color.Color
}

// NewProgress creates a progress reporter.
func NewProgress(w, out io.Writer, verbose, silent, noColor bool) *Progress {
	p := &Progress{
		w:       w,
		out:     out,
		verbose: verbose,
		silent:  silent,
		start:   time.Now(),
		target:  color.New(color.FgRed),
		value:   color.New(color.FgGreen),
		hop:     color.New(color.FgBlue),
		info:    color.New(color.FgYellow),
	}
	if noColor {
		for _, c := range []*color.Color{p.target, p.value, p.hop, p.info} {
			c.DisableColor()
		}
	}
	return p
}

// Stage prints a stage header like "[1/3] Generating permutations..."
func (p *Progress) Stage(num, total int, msg string) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "[%d/%d] %s\n", num, total, msg)
}

// Detail prints verbose detail (only in verbose mode).
func (p *Progress) Detail(msg string) {
	if !p.verbose || p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "  %s\n", msg)
}

// Warn prints a warning.
func (p *Progress) Warn(msg string) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "  ! %s\n", msg)
}

// Estimate prints how far resolution has got and the projected time left.
func (p *Progress) Estimate(s engine.Snapshot) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "  %d/%d candidates, ~%s remaining\n", s.Completed, s.Total, s.Remaining())
}

// Found prints one resolved candidate with whatever was learned about it.
func (p *Progress) Found(r engine.Resolution) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := p.target.Sprint(r.Target) + " : " + p.value.Sprint(r.Value)
	if r.Hop != "" {
		line += " -> " + p.hop.Sprint(r.Hop)
	}
	fmt.Fprintln(p.out, line)

	if len(r.OpenPorts) > 0 {
		fmt.Fprintf(p.out, "  ports: %s\n", p.info.Sprint(joinPorts(r.OpenPorts)))
	}
	if o := r.Ownership; o != nil {
		if desc := ownerLine(o); desc != "" {
			fmt.Fprintf(p.out, "  owner: %s\n", p.info.Sprint(desc))
		}
		if len(o.Emails) > 0 {
			fmt.Fprintf(p.out, "  contact: %s\n", p.info.Sprint(strings.Join(o.Emails, ", ")))
		}
	}
}

// Complete prints the final duration.
func (p *Progress) Complete() {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := time.Since(p.start)
	fmt.Fprintf(p.w, "\nCompleted in %.1fs\n", elapsed.Seconds())
}

func joinPorts(ports []int) string {
	s := make([]string, len(ports))
	for i, port := range ports {
		s[i] = strconv.Itoa(port)
	}
	return strings.Join(s, ", ")
}

// ownerLine renders "Description (AS123, 10.0.0.0/8, US, 2014-03-28)",
// leaving out whatever is empty.
func ownerLine(o *engine.Ownership) string {
	var extra []string
	if o.ASN != "" {
		extra = append(extra, "AS"+o.ASN)
	}
	for _, v := range []string{o.CIDR, o.Country, o.Date} {
		if v != "" {
			extra = append(extra, v)
		}
	}

	switch {
	case len(extra) == 0:
		return o.Description
	case o.Description == "":
		return strings.Join(extra, ", ")
	default:
		return o.Description + " (" + strings.Join(extra, ", ") + ")"
	}
}
