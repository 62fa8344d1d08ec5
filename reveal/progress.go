// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reveal

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// LogSize is how many lines a Progress keeps.
const LogSize = 10

// Progress is the moderator-facing record of one room's latest reveal
// cycle: attempts per classifier call and a short rolling log.
type Progress struct {
	mu       sync.Mutex
	attempts map[string]int
	lines    []string
	now      func() time.Time
}

func newProgress(now func() time.Time) *Progress {
	return &Progress{attempts: make(map[string]int), now: now}
}

// Attempt implements retry.Observer.
func (p *Progress) Attempt(label string, attempt, maxAttempts int, err error) {
	var line string
	switch {
	case err == nil:
		line = fmt.Sprintf("%s: ok on %s attempt", label, humanize.Ordinal(attempt))
	case attempt >= maxAttempts:
		line = fmt.Sprintf("%s: gave up after %d attempts: %v", label, attempt, err)
	default:
		line = fmt.Sprintf("%s: %s of %d attempts failed: %v", label, humanize.Ordinal(attempt), maxAttempts, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts[label] = attempt
	p.appendLocked(line)
}

// Logf adds a free-form line.
func (p *Progress) Logf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appendLocked(fmt.Sprintf(format, args...))
}

func (p *Progress) appendLocked(line string) {
	p.lines = append(p.lines, p.now().Format("15:04:05")+" "+line)
	if len(p.lines) > LogSize {
		p.lines = append([]string(nil), p.lines[len(p.lines)-LogSize:]...)
	}
}

// Snapshot copies the counters and the log, oldest line first.
func (p *Progress) Snapshot() (map[string]int, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	attempts := make(map[string]int, len(p.attempts))
	for k, v := range p.attempts {
		attempts[k] = v
	}
	return attempts, append([]string{}, p.lines...)
}
