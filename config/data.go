package config

import (
	"os"
	"path/filepath"
)

// GetDataDir returns the directory where Reelserve keeps its databases.
// Priority: REELSERVE_DATA_DIR environment variable > "./data" default.
// Checked at runtime so tests and operators can repoint it without a restart.
func GetDataDir() string {
	if dir := os.Getenv("REELSERVE_DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

// GetFailuresDBPath returns the full path to the failures database.
// The failures database tracks encode jobs that failed processing.
func GetFailuresDBPath() string {
	return filepath.Join(GetDataDir(), "failures.db")
}

// GetSuccessDBPath returns the full path to the success database.
// The success database tracks completed encode jobs and their manifests.
func GetSuccessDBPath() string {
	return filepath.Join(GetDataDir(), "success.db")
}

// GetCredentialsDBPath returns the full path to the storage-credentials database.
func GetCredentialsDBPath() string {
	return filepath.Join(GetDataDir(), "credentials.db")
}

// GetPendingQueueDBPath returns the full path to the durable pending-job queue.
func GetPendingQueueDBPath() string {
	return filepath.Join(GetDataDir(), "pending.db")
}

// GetServeBaseDir returns the base directory for direct stream serving.
// HLS output published through the directServe backend lands here and is
// served by the HTTP server under /stream/. Configurable via
// REELSERVE_SERVE_DIR for server administrators; not configurable by end
// users. Defaults to "./serve" relative to the executable.
func GetServeBaseDir() string {
	if dir := os.Getenv("REELSERVE_SERVE_DIR"); dir != "" {
		return dir
	}
	return "./serve"
}

// GetFFmpegPath returns the encoder binary to invoke. The encoder is treated
// as an external tool; only its location is configurable, never its argument
// contract. Defaults to "ffmpeg" resolved via PATH.
func GetFFmpegPath() string {
	if p := os.Getenv("REELSERVE_FFMPEG"); p != "" {
		return p
	}
	return "ffmpeg"
}

// GetJWTSecret returns the shared HMAC secret used to verify upload tokens.
func GetJWTSecret() []byte {
	return []byte(os.Getenv("REELSERVE_JWT_SECRET"))
}

// GetListenAddr returns the address the HTTP server binds to.
func GetListenAddr() string {
	if addr := os.Getenv("REELSERVE_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}
