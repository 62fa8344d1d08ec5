// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classifier

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limited paces calls to an inner classifier and caps how many run at once.
// One Limited is shared by every reveal in the process.
type Limited struct {
	inner    Classifier
	pace     *rate.Limiter
	inflight *semaphore.Weighted
}

// NewLimited spaces calls at least pause apart and allows at most
// maxInflight concurrent calls. A zero pause disables pacing.
func NewLimited(inner Classifier, pause time.Duration, maxInflight int) *Limited {
	limit := rate.Inf
	if pause > 0 {
		limit = rate.Every(pause)
	}
	if maxInflight < 1 {
		maxInflight = 1
	}
	return &Limited{
		inner:    inner,
		pace:     rate.NewLimiter(limit, 1),
		inflight: semaphore.NewWeighted(int64(maxInflight)),
	}
}

func (l *Limited) SourceName() string { return l.inner.SourceName() }

func (l *Limited) Classify(ctx context.Context, imageRef string, mode Mode) (Result, error) {
	if err := l.inflight.Acquire(ctx, 1); err != nil {
		return Result{}, &ClassificationError{Kind: KindTransport, Mode: mode, Err: err}
	}
	defer l.inflight.Release(1)

	if err := l.pace.Wait(ctx); err != nil {
		return Result{}, &ClassificationError{Kind: KindTransport, Mode: mode, Err: err}
	}

	return l.inner.Classify(ctx, imageRef, mode)
}
