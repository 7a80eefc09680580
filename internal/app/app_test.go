package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/specialistvlad/flowgridgo/internal/handlers"
	"github.com/specialistvlad/flowgridgo/internal/scheduler"
	"github.com/specialistvlad/flowgridgo/internal/testutil"
	"github.com/specialistvlad/flowgridgo/modules/print"
	"github.com/specialistvlad/flowgridgo/modules/sleep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name   string
		in     Config
		errMsg string
		check  func(t *testing.T, cfg *Config)
	}{
		{
			name:   "missing path",
			in:     Config{},
			errMsg: "PipelinePath is a required",
		},
		{
			name: "defaults",
			in:   Config{PipelinePath: "p.hcl"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ModePull, cfg.Mode)
				assert.Equal(t, 1, cfg.Iterations)
			},
		},
		{
			name:   "bad mode",
			in:     Config{PipelinePath: "p.hcl", Mode: "sideways"},
			errMsg: "invalid mode",
		},
		{
			name:   "negative threads",
			in:     Config{PipelinePath: "p.hcl", MaxThreads: -1},
			errMsg: "invalid max-threads",
		},
		{
			name:   "port out of range",
			in:     Config{PipelinePath: "p.hcl", HealthcheckPort: 70000},
			errMsg: "invalid healthcheck-port",
		},
		{
			name:   "negative iterations",
			in:     Config{PipelinePath: "p.hcl", Iterations: -2},
			errMsg: "invalid iterations",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.in)
			if tc.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, cfg)
			}
		})
	}
}

func TestHTTPHandler(t *testing.T) {
	a, _ := SetupAppTest(t, &Config{PipelinePath: "unused"})
	h := a.httpHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())

	s := scheduler.New(context.Background(), scheduler.Config{Name: "health-test", MaxThreads: 3})
	defer s.Close()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `flowgrid_scheduler_available_threads{scheduler="health-test"} 3`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRun_HealthcheckServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	dir := testutil.WriteFiles(t, map[string]string{
		"main.hcl": `
stage "print" "hello" {
  arguments {
    message = "hi"
  }
}
`,
	})
	cfg, err := NewConfig(Config{PipelinePath: dir, HealthcheckPort: port})
	require.NoError(t, err)

	a, out := SetupAppTest(t, cfg)
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "hello: hi")
	assert.Contains(t, out.String(), "Health check server shut down gracefully.")
}

func TestRun_Errors(t *testing.T) {
	failing := &testutil.SimpleModule{
		Kind: "fail",
		Handler: &handlers.RegisteredHandler{
			Fn: func(context.Context, *handlers.Invocation) error { return errors.New("stage blew up") },
		},
	}

	testCases := []struct {
		name   string
		files  map[string]string
		mode   string
		errMsg string
	}{
		{
			name:   "unknown kind",
			files:  map[string]string{"main.hcl": `stage "teleport" "a" {}`},
			errMsg: "failed to build pipeline",
		},
		{
			name:   "unknown input",
			files:  map[string]string{"main.hcl": `stage "noop" "a" { inputs = ["ghost"] }`},
			errMsg: "unknown stage 'ghost'",
		},
		{
			name:   "request exceeds capacity",
			files:  map[string]string{"main.hcl": `stage "noop" "a" { threads = 16 }`},
			errMsg: "requests cpu=16",
		},
		{
			name: "failing stage in pull mode",
			files: map[string]string{"main.hcl": `
				stage "noop" "a" {}
				stage "fail" "b" { inputs = ["a"] }
			`},
			errMsg: "stage blew up",
		},
		{
			name: "failing stage in push mode",
			files: map[string]string{"main.hcl": `
				stage "noop" "a" {}
				stage "fail" "b" { inputs = ["a"] }
			`},
			mode:   ModePush,
			errMsg: "stage 'b': stage blew up",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := testutil.WriteFiles(t, tc.files)
			cfg, err := NewConfig(Config{PipelinePath: dir, MaxThreads: 2, Mode: tc.mode})
			require.NoError(t, err)

			a, _ := SetupAppTest(t, cfg, &testutil.NoOpModule{}, failing)
			err = a.Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}

	t.Run("missing pipeline", func(t *testing.T) {
		cfg, err := NewConfig(Config{PipelinePath: t.TempDir() + "/absent"})
		require.NoError(t, err)
		a, _ := SetupAppTest(t, cfg, &testutil.NoOpModule{})
		err = a.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load pipeline")
	})
}

func TestRun_EmptyPipeline(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.hcl": "# nothing yet\n"})
	cfg, err := NewConfig(Config{PipelinePath: dir})
	require.NoError(t, err)

	a, out := SetupAppTest(t, cfg, &print.Module{}, &sleep.Module{})
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "No stages found in pipeline")
}
