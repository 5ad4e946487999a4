package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// stageBytes writes fetched object bytes to a local temp file so large
// documents never ride through workflow payloads.
func stageBytes(data []byte, prefix string) (string, error) {
	filename := fmt.Sprintf("%s-%s.staged", prefix, uuid.New().String())
	path := filepath.Join(os.TempDir(), filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write staging file: %w", err)
	}
	return path, nil
}

// loadStaged reads a staged file back.
func loadStaged(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staging file: %w", err)
	}
	return data, nil
}

// cleanupStaged removes a staging file.
func cleanupStaged(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
