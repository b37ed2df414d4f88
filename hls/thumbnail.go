package hls

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultThumbnailSeconds is the seek offset used when the upload does not
// pick one.
const DefaultThumbnailSeconds = 5

// thumbnailArgs builds the encoder arguments for a single-frame JPEG grab:
// seek to atSeconds, emit one frame at fixed quality.
func thumbnailArgs(source string, atSeconds int, outputPath string) []string {
	return []string{
		"-y",
		"-i", source,
		"-ss", fmt.Sprintf("%d", atSeconds),
		"-vframes", "1",
		"-q:v", "2",
		outputPath,
	}
}

// ExtractThumbnail grabs one frame of the source at atSeconds and writes it
// to outputPath, creating the parent directory as needed. Independent of
// Transcode; it only reads the source, so it is safe to run alongside an
// encode of the same file. Seeking past the end of the source fails with an
// *EncodingError and no output file.
func (p *Pipeline) ExtractThumbnail(ctx context.Context, source, outputPath string, atSeconds int) (string, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail dir: %w", err)
	}
	if err := p.run(ctx, "", thumbnailArgs(source, atSeconds, outputPath), "thumbnail"); err != nil {
		return "", err
	}
	return outputPath, nil
}
