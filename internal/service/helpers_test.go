package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cadenroberts/ollamabot/internal/ollama"
)

func newBackendClient(url string) *ollama.Client {
	return ollama.New(url)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}
