package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/vk/wellformed/internal/app"
	"github.com/vk/wellformed/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// Harness describes one end-to-end run.
type Harness struct {
	// Files are written below a temporary config directory, which becomes
	// the run's config path when non-empty.
	Files map[string]string
	// Env is the content of the run's env file. Tests that set it must not
	// run in parallel, since loading it changes the process environment.
	Env string
	// Input is the batch fed to the app's input stream.
	Input string
	// Config is copied and completed with the temporary paths.
	Config app.Config
}

// RunIntegrationTest runs h with a background context.
func RunIntegrationTest(t *testing.T, h Harness) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, h)
}

// RunIntegrationTestWithContext builds an App from h and runs it once with
// ctx. A panic while constructing the App is reported through Err.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, h Harness) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	appConfig := h.Config

	if len(h.Files) > 0 {
		configDir := filepath.Join(tmpDir, "config")
		for name, content := range h.Files {
			path := filepath.Join(configDir, name)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		}
		if appConfig.ConfigPath == "" {
			appConfig.ConfigPath = configDir
		}
	}

	// Always point at a file of our own so a stray ./.env never leaks in.
	if appConfig.EnvFile == "" {
		appConfig.EnvFile = filepath.Join(tmpDir, "test.env")
		require.NoError(t, os.WriteFile(appConfig.EnvFile, []byte(h.Env), 0644))
		unsetLoadedEnv(t, h.Env)
	}
	if appConfig.Overrides.LogLevel == nil {
		level := "debug"
		appConfig.Overrides.LogLevel = &level
	}

	out := &SafeBuffer{}
	logs := &SafeBuffer{}
	streams := app.Streams{In: strings.NewReader(h.Input), Out: out, Err: logs}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(streams, &appConfig, hcl.NewLoader())
	}()

	var runErr error
	if panicErr != nil {
		runErr = fmt.Errorf("application startup panicked | %v", panicErr)
	} else {
		runErr = testApp.Run(ctx)
	}

	if os.Getenv("WELLFORMED_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}

	return &HarnessResult{
		Output:    out.String(),
		LogOutput: logs.String(),
		Err:       runErr,
		App:       testApp,
	}
}

// unsetLoadedEnv removes, after the test, the variables the env file will
// introduce into the process environment.
func unsetLoadedEnv(t *testing.T, content string) {
	t.Helper()

	vars, err := godotenv.Unmarshal(content)
	require.NoError(t, err, "invalid env file content")
	for key := range vars {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		t.Cleanup(func() { os.Unsetenv(key) })
	}
}
