// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Environment names accepted by Init
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Init builds a zap logger for the environment and installs it as the
// global logger, so packages log through zap.L() and zap.S().
// Anything other than "production" gets the development console encoder.
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)
	if env == EnvProduction {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("zap.New -> %w", err)
	}

	zap.ReplaceGlobals(l)
	return nil
}

// Sync flushes buffered log entries. Errors from syncing stderr are ignored.
func Sync() {
	_ = zap.L().Sync()
}
