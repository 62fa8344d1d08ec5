// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	tests := []struct {
		env        string
		debugLevel bool
	}{
		{EnvProduction, false},
		{EnvDevelopment, true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run("env="+tt.env, func(t *testing.T) {
			require.NoError(t, Init(tt.env))
			assert.Equal(t, tt.debugLevel, zap.L().Core().Enabled(zapcore.DebugLevel))
			Sync()
		})
	}
}
