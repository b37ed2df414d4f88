package hls

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// variantArgs builds the encoder argument vector for one rendition. The
// argument contract is fixed: players expect exactly this segment and
// playlist layout, so nothing here is configurable.
//
// Segment boundaries are keyframe-aligned: keyframe every 48 frames with
// scene-cut insertion disabled, 6 second segments, VOD playlist type.
func variantArgs(source string, r Rendition) []string {
	return []string{
		"-y",
		"-i", source,
		"-c:a", "aac",
		"-ar", "48000",
		"-b:a", "128k",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-g", "48",
		"-keyint_min", "48",
		"-sc_threshold", "0",
		"-b:v", r.Bitrate,
		"-maxrate", r.MaxRate,
		"-bufsize", r.BufSize,
		"-vf", fmt.Sprintf("scale=-2:%d", r.Height),
		"-hls_time", "6",
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", r.Name + "_%03d.ts",
		r.Name + ".m3u8",
	}
}

// encodeVariant produces one rendition's playlist and segments under
// outputDir. The command runs with outputDir as its working directory so the
// playlist references segments by bare filename. Returns the playlist
// filename on success.
func (p *Pipeline) encodeVariant(ctx context.Context, source, outputDir string, r Rendition) (string, error) {
	if err := p.run(ctx, outputDir, variantArgs(source, r), r.Name); err != nil {
		return "", err
	}
	return r.Name + ".m3u8", nil
}

// run executes the external encoder as a blocking child process, capturing
// stderr for diagnostics. A non-zero exit becomes an *EncodingError tagged
// with label. Cancelling ctx kills the child; partial output is left on disk
// for the cleanup job.
func (p *Pipeline) run(ctx context.Context, dir string, args []string, label string) error {
	cmd := exec.CommandContext(ctx, p.ffmpegPath(), args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &EncodingError{
				Rendition: label,
				ExitCode:  exitErr.ExitCode(),
				Output:    strings.TrimSpace(stderr.String()),
			}
		}
		return fmt.Errorf("failed to start encoder for %s: %w", label, err)
	}
	return nil
}
