package writerbackends

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"reelserve/logger"
)

// UploadToDirectServe writes content to the local serve tree, where the HTTP
// server exposes it under /stream/. accessInfo keys: baseDir, folder,
// filename (filename may contain subdirectories for segment trees).
func UploadToDirectServe(ctx context.Context, accessInfo map[string]string, reader io.Reader) error {
	baseDir := accessInfo["baseDir"]
	folder := accessInfo["folder"]
	filename := accessInfo["filename"]

	fullPath := filepath.Join(baseDir, folder, filename)

	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}

	logger.Debugf("saved artifact '%s' to '%s'", filename, fullPath)
	return nil
}
