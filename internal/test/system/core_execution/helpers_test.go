package system

import (
	"os"
	"testing"

	"github.com/vk/wellformed/internal/app"
)

func writeInput(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write input file: %v", err)
	}
}

func inputConfig(path string) app.Config {
	return app.Config{InputPath: path}
}
