// Package progressbar prints a progress bar of experiment episodes to
// a terminal
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar is a progress bar that must be manually managed: Display
// must be called whenever the updated bar should be printed.
type ProgressBar struct {
	out       io.Writer
	width     int
	max       int
	current   int
	successes int
	bar       strings.Builder
	startTime time.Time
}

// New returns a new ProgressBar width characters wide which is full
// after max calls to Increment
func New(out io.Writer, width, max int) *ProgressBar {
	if max <= 0 {
		panic(fmt.Sprintf("new: max progress must be positive, got %v", max))
	}
	return &ProgressBar{
		out:       out,
		width:     width,
		max:       max,
		startTime: time.Now(),
	}
}

// Increment counts a finished episode, which was solved if success
func (p *ProgressBar) Increment(success bool) {
	if p.current < p.max {
		p.current++
		if success {
			p.successes++
		}
	}
}

// Current returns the number of episodes counted
func (p *ProgressBar) Current() int {
	return p.current
}

// String returns the bar without terminal control characters
func (p *ProgressBar) String() string {
	p.bar.Reset()
	p.bar.WriteString("|")

	filled := p.current * p.width / p.max
	p.bar.WriteString(strings.Repeat("█", filled))
	p.bar.WriteString(strings.Repeat(" ", p.width-filled))

	rate := 0.0
	if p.current > 0 {
		rate = float64(p.successes) / float64(p.current) * 100
	}
	fmt.Fprintf(&p.bar, "| %d/%d [%.2f%% | solved: %.1f%% | elapsed: %v]",
		p.current, p.max, float64(p.current)/float64(p.max)*100, rate,
		time.Since(p.startTime).Truncate(time.Second))
	return p.bar.String()
}

// Display prints the bar over the previous one
func (p *ProgressBar) Display() {
	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.String())
}

// Close moves the output past the bar
func (p *ProgressBar) Close() {
	fmt.Fprintln(p.out)
}
