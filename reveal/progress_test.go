// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reveal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
}

func TestProgress_Attempt(t *testing.T) {
	p := newProgress(fixedClock)

	p.Attempt("Ana initial", 1, 3, errors.New("timeout"))
	p.Attempt("Ana initial", 2, 3, nil)
	p.Attempt("Bruno final", 3, 3, errors.New("bad json"))

	attempts, log := p.Snapshot()
	assert.Equal(t, map[string]int{"Ana initial": 2, "Bruno final": 3}, attempts)
	require.Len(t, log, 3)
	assert.Equal(t, "12:30:00 Ana initial: 1st of 3 attempts failed: timeout", log[0])
	assert.Equal(t, "12:30:00 Ana initial: ok on 2nd attempt", log[1])
	assert.Equal(t, "12:30:00 Bruno final: gave up after 3 attempts: bad json", log[2])
}

func TestProgress_RollingLog(t *testing.T) {
	p := newProgress(fixedClock)
	for i := 0; i < LogSize+5; i++ {
		p.Logf("line %d", i)
	}

	_, log := p.Snapshot()
	require.Len(t, log, LogSize)
	assert.True(t, strings.HasSuffix(log[0], "line 5"))
	assert.True(t, strings.HasSuffix(log[LogSize-1], fmt.Sprintf("line %d", LogSize+4)))
}

func TestProgress_SnapshotIsACopy(t *testing.T) {
	p := newProgress(fixedClock)
	p.Attempt("Ana final", 1, 3, nil)

	attempts, log := p.Snapshot()
	attempts["Ana final"] = 99
	log[0] = "changed"

	attempts, log = p.Snapshot()
	assert.Equal(t, 1, attempts["Ana final"])
	assert.NotEqual(t, "changed", log[0])
}
