package cli

import (
	"bytes"
	"testing"

	"github.com/specialistvlad/flowgridgo/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("defaults with positional path", func(t *testing.T) {
		cfg, exit, err := Parse([]string{"pipelines/"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "pipelines/", cfg.PipelinePath)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, app.ModePull, cfg.Mode)
		assert.Equal(t, 1, cfg.Iterations)
		assert.Zero(t, cfg.MaxThreads)
		assert.Empty(t, cfg.Vars)
	})

	t.Run("all flags", func(t *testing.T) {
		cfg, exit, err := Parse([]string{
			"-p", "main.hcl",
			"-log-format", "TEXT",
			"-log-level", "debug",
			"-healthcheck-port", "8080",
			"-max-threads", "6",
			"-mode", "push",
			"-rebalance",
			"-iterations", "3",
			"-var", "run=nightly",
			"-var", "expr=a=b",
		}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "main.hcl", cfg.PipelinePath)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 8080, cfg.HealthcheckPort)
		assert.Equal(t, 6, cfg.MaxThreads)
		assert.Equal(t, app.ModePush, cfg.Mode)
		assert.True(t, cfg.Rebalance)
		assert.Equal(t, 3, cfg.Iterations)
		assert.Equal(t, map[string]string{"run": "nightly", "expr": "a=b"}, cfg.Vars)
	})

	t.Run("long flag wins over shorthand and positional", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-pipeline", "a.hcl", "-p", "b.hcl", "c.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.PipelinePath)
	})

	t.Run("help and missing path exit cleanly", func(t *testing.T) {
		for _, args := range [][]string{{"-h"}, {}} {
			out := &bytes.Buffer{}
			cfg, exit, err := Parse(args, out)
			require.NoError(t, err)
			assert.True(t, exit)
			assert.Nil(t, cfg)
			assert.Contains(t, out.String(), "Usage:")
		}
	})

	errorCases := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"unknown flag", []string{"-nope"}, "flag provided but not defined"},
		{"bad log format", []string{"-log-format", "xml", "p.hcl"}, "invalid log-format"},
		{"bad log level", []string{"-log-level", "loud", "p.hcl"}, "invalid log-level"},
		{"bad mode", []string{"-mode", "sideways", "p.hcl"}, "invalid mode"},
		{"bad var", []string{"-var", "novalue", "p.hcl"}, "expected key=value"},
		{"negative threads", []string{"-max-threads", "-1", "p.hcl"}, "invalid max-threads"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, exit, err := Parse(tc.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.False(t, exit)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.errMsg)
		})
	}
}
