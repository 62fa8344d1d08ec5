// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classifier

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/danielhkuo/cleanplate/metrics"
)

// Instrumented records a metric and a debug log line for every call.
type Instrumented struct {
	inner Classifier
}

func NewInstrumented(inner Classifier) *Instrumented {
	return &Instrumented{inner: inner}
}

func (c *Instrumented) SourceName() string { return c.inner.SourceName() }

func (c *Instrumented) Classify(ctx context.Context, imageRef string, mode Mode) (Result, error) {
	start := time.Now()
	res, err := c.inner.Classify(ctx, imageRef, mode)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		var ce *ClassificationError
		if errors.As(err, &ce) {
			outcome = string(ce.Kind)
		}
	}

	metrics.ClassifierCallDurationSeconds.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
	metrics.ClassifierCallsTotal.WithLabelValues(string(mode), outcome).Inc()

	zap.S().Debugw("photo classified",
		"source", c.inner.SourceName(),
		"mode", mode,
		"image_size", humanize.Bytes(uint64(len(imageRef))),
		"duration_ms", elapsed.Milliseconds(),
		"outcome", outcome,
		"items", len(res.Items),
	)

	return res, err
}
