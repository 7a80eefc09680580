package app

import (
	"os"
	"testing"

	"github.com/specialistvlad/flowgridgo/internal/handlers"
	"github.com/specialistvlad/flowgridgo/internal/hcl"
	"github.com/specialistvlad/flowgridgo/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Logs and
// stage output go to the returned buffer.
func SetupAppTest(t *testing.T, appConfig *Config, modules ...handlers.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	appConfig.LogLevel = "debug"
	appConfig.LogFormat = "text"
	testApp := NewApp(logBuffer, appConfig, hcl.NewLoader(appConfig.Vars), modules...)

	t.Cleanup(func() {
		if os.Getenv("FLOWGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
