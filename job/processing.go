package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"reelserve/config"
	"reelserve/failures"
	"reelserve/hls"
	"reelserve/logger"
	"reelserve/success"
	writerbackends "reelserve/writerBackends"
)

// ThumbnailFile is the poster frame filename placed next to the playlists.
const ThumbnailFile = "thumbnail.jpg"

// ProcessJob runs one accepted upload end to end: transcode the source into
// the HLS rendition set, grab the poster frame if requested, publish the
// output tree to every configured destination, record the outcome, fire the
// completion callback, and clean up the job directory.
func ProcessJob(ctx context.Context, jobDir string) error {
	instr, err := ReadInstructions(jobDir)
	if err != nil {
		logger.Errorf("Failed to read instructions for %s: %v", jobDir, err)
		hash := filepath.Base(jobDir)
		return storeFailure(Instructions{Hash: hash}, err)
	}

	logger.Infof("Processing job in %s: %s", jobDir, instr.OriginalFile)

	outputDir := filepath.Join(jobDir, "output")
	sourcePath := filepath.Join(instr.FilePath, instr.OriginalFile)

	pipeline := &hls.Pipeline{
		OnProgress: func(done, total int) {
			setProgress(instr.Hash, done*100/total)
		},
	}

	manifest, results, err := pipeline.Transcode(ctx, hls.Request{
		SourcePath: sourcePath,
		OutputDir:  outputDir,
		Ladder:     instr.Job.Spec.Ladder,
	})
	if err != nil {
		logger.Errorf("Transcode failed for %s: %v", jobDir, err)
		return storeFailure(instr, err)
	}

	// An empty manifest means every rendition failed. No error was raised by
	// the pipeline, but there is nothing to play, so the job is a failure.
	if manifest.Empty() {
		err := fmt.Errorf("no rendition produced: %s", variantFailureDetail(results))
		logger.Errorf("Empty manifest for %s: %v", jobDir, err)
		return storeFailure(instr, err)
	}

	if instr.Job.Spec.Thumbnail != nil {
		at := instr.Job.Spec.Thumbnail.AtSeconds
		if at <= 0 {
			at = hls.DefaultThumbnailSeconds
		}
		thumbPath := filepath.Join(outputDir, ThumbnailFile)
		if _, err := pipeline.ExtractThumbnail(ctx, sourcePath, thumbPath, at); err != nil {
			// A missing poster frame doesn't make the stream unplayable.
			logger.Warnf("Thumbnail extraction failed for %s: %v", jobDir, err)
		}
	}

	fileCount, err := publishOutput(ctx, instr, outputDir)
	if err != nil {
		logger.Errorf("Failed to publish output for %s: %v", jobDir, err)
		return storeFailure(instr, err)
	}

	if err := success.StoreSuccess(instr.Hash, instr, *manifest, fileCount); err != nil {
		// Don't fail the job for bookkeeping errors.
		logger.Errorf("Failed to store success record for %s: %v", jobDir, err)
	}

	if err := sendCallback(instr, manifest); err != nil {
		logger.Errorf("Failed to send callback for %s: %v", jobDir, err)
	}

	if err := os.RemoveAll(jobDir); err != nil {
		logger.Errorf("Failed to cleanup job directory %s: %v", jobDir, err)
	}

	logger.Infof("Successfully processed job in %s", jobDir)
	return nil
}

// variantFailureDetail joins the per-rendition encoder diagnostics into one
// human-readable reason for the failure record.
func variantFailureDetail(results []hls.VariantResult) string {
	var parts []string
	for _, r := range results {
		if !r.Succeeded {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Rendition, r.ErrorDetail))
		}
	}
	if len(parts) == 0 {
		return "empty ladder"
	}
	return strings.Join(parts, "; ")
}

// publishOutput ships the output tree to every configured destination under
// <subDir>/<hash>/. Returns the total number of files published.
func publishOutput(ctx context.Context, instr Instructions, outputDir string) (int, error) {
	total := 0
	for _, writer := range instr.Job.Writers {
		accessInfo := make(map[string]string, len(writer.Credentials)+2)
		for k, v := range writer.Credentials {
			accessInfo[k] = v
		}
		accessInfo["folder"] = path.Join(instr.Job.Spec.SubDir, instr.Hash)
		if writer.Type == "directServe" {
			accessInfo["baseDir"] = config.GetServeBaseDir()
		}

		n, err := writerbackends.PublishDir(ctx, accessInfo, outputDir, writer.Type)
		if err != nil {
			return total, fmt.Errorf("failed to publish to %s: %w", writer.Type, err)
		}
		total += n
	}
	return total, nil
}

// storeFailure records a processing failure and returns the original error.
func storeFailure(instr Instructions, failure error) error {
	if instr.Hash == "" {
		logger.Errorf("Cannot store failure: missing hash")
		return failure
	}
	if storeErr := failures.StoreFailure(instr.Hash, failure, instr); storeErr != nil {
		logger.Errorf("Failed to store failure for hash %s: %v", instr.Hash, storeErr)
	}
	return failure
}

// sendCallback notifies the upstream catalog that the job completed.
func sendCallback(instr Instructions, manifest *hls.Manifest) error {
	if instr.Job.Spec.CompletionCallback == "" {
		return nil
	}

	payload := map[string]interface{}{
		"hash":      instr.Hash,
		"status":    StateCompleted.String(),
		"manifest":  manifest,
		"timestamp": time.Now().Unix(),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal callback payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, instr.Job.Spec.CompletionCallback, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Reelserve/1.0")
	for key, value := range instr.Job.Spec.CallbackHeaders {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned non-2xx status: %d", resp.StatusCode)
	}

	logger.Infof("Sent completion callback to %s", instr.Job.Spec.CompletionCallback)
	return nil
}
