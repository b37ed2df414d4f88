// Package hls turns a source video into an HTTP Live Streaming rendition set:
// one segmented playlist per ladder rendition plus a master playlist
// referencing the renditions that encoded successfully. The external encoder
// is treated as a black box invoked with a fixed argument contract and judged
// by exit code.
package hls

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"reelserve/config"
	"reelserve/logger"
)

// MasterPlaylist is the filename of the top-level playlist written per job.
const MasterPlaylist = "master.m3u8"

// Request describes one transcode invocation. Ladder may be nil to use
// DefaultLadder. SourcePath must reference a readable media file; OutputDir
// need not pre-exist.
type Request struct {
	SourcePath string
	OutputDir  string
	Ladder     []Rendition
}

// VariantResult records one rendition attempt, success or failure. Collected
// in ladder order regardless of outcome.
type VariantResult struct {
	Rendition   string
	Playlist    string
	Succeeded   bool
	ErrorDetail string
}

// Variant is one successfully produced rendition in a Manifest.
type Variant struct {
	Quality  string `json:"quality"`
	Playlist string `json:"playlist"`
}

// Manifest is what Transcode returns: the produced variants in ladder order
// and the master playlist filename, all relative to the output directory.
// Every listed playlist exists on disk when the manifest is returned. An
// empty Variants slice means no rendition encoded; callers must treat that
// as a failed job even though no error was raised.
type Manifest struct {
	Variants []Variant `json:"variants"`
	Master   string    `json:"master"`
}

// Empty reports whether no rendition was produced.
func (m *Manifest) Empty() bool {
	return len(m.Variants) == 0
}

// Pipeline runs transcode and thumbnail jobs against the external encoder.
// The zero value uses the configured encoder path; FFmpeg overrides it
// (tests point this at a stub).
type Pipeline struct {
	// FFmpeg is the encoder binary to invoke. Empty means config.GetFFmpegPath().
	FFmpeg string

	// OnProgress, when set, is called after each rendition attempt with the
	// number of attempts finished and the ladder size.
	OnProgress func(done, total int)
}

func (p *Pipeline) ffmpegPath() string {
	if p.FFmpeg != "" {
		return p.FFmpeg
	}
	return config.GetFFmpegPath()
}

// CheckTool logs a warning when the encoder binary cannot be resolved.
// Jobs submitted anyway will fail per-rendition with the exec error.
func (p *Pipeline) CheckTool() {
	if _, err := exec.LookPath(p.ffmpegPath()); err != nil {
		logger.Warnf("encoder binary %q not found in PATH; encode jobs will fail", p.ffmpegPath())
	}
}

// Transcode encodes every rendition of the ladder, strictly one at a time,
// then writes the master playlist. Renditions are independent: one failing
// (e.g. an upscale the source cannot support) does not stop the rest, it is
// just recorded and skipped in the master playlist. Only directory creation
// and the master playlist write are fatal. The per-rendition results are
// returned alongside the manifest so callers can surface encoder diagnostics
// when nothing was produced.
//
// Sequential on purpose: encoding is CPU-bound, and one encoder process per
// active job keeps peak load bounded. Concurrency across jobs is the
// caller's business.
func (p *Pipeline) Transcode(ctx context.Context, req Request) (*Manifest, []VariantResult, error) {
	ladder := req.Ladder
	if len(ladder) == 0 {
		ladder = DefaultLadder
	}

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output dir %s: %w", req.OutputDir, err)
	}

	results := make([]VariantResult, 0, len(ladder))
	for i, r := range ladder {
		logger.Infof("encoding %s rendition of %s", r.Name, req.SourcePath)
		playlist, err := p.encodeVariant(ctx, req.SourcePath, req.OutputDir, r)
		if err != nil {
			logger.Errorf("rendition %s failed: %v", r.Name, err)
			results = append(results, VariantResult{Rendition: r.Name, ErrorDetail: err.Error()})
		} else {
			results = append(results, VariantResult{Rendition: r.Name, Playlist: playlist, Succeeded: true})
		}
		if p.OnProgress != nil {
			p.OnProgress(i+1, len(ladder))
		}
	}

	manifest := &Manifest{Master: MasterPlaylist}
	for _, res := range results {
		if res.Succeeded {
			manifest.Variants = append(manifest.Variants, Variant{Quality: res.Rendition, Playlist: res.Playlist})
		}
	}

	if err := writeMasterPlaylist(req.OutputDir, ladder, results); err != nil {
		return nil, results, err
	}
	return manifest, results, nil
}

// writeMasterPlaylist writes the top-level playlist listing the successful
// renditions in ladder order. With zero successes it still writes the bare
// #EXTM3U header so the output directory is well-formed.
//
// RESOLUTION is emitted as 1920x<height> regardless of source aspect: the
// scale filter preserves the real width, but players treat RESOLUTION as a
// switching hint only, and existing players depend on this exact layout.
func writeMasterPlaylist(outputDir string, ladder []Rendition, results []VariantResult) error {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for i, res := range results {
		if !res.Succeeded {
			continue
		}
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=1920x%d\n", BandwidthFor(res.Rendition), ladder[i].Height)
		b.WriteString(res.Playlist + "\n")
	}

	path := filepath.Join(outputDir, MasterPlaylist)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write master playlist: %w", err)
	}
	return nil
}
