package main

import (
	"context"
	"net/http"
	"time"

	"reelserve/config"
	"reelserve/credentials"
	"reelserve/failures"
	"reelserve/hls"
	"reelserve/job"
	"reelserve/logger"
	"reelserve/routes"
	"reelserve/success"
	"reelserve/taskqueue"
)

func main() {
	logger.Info("Starting Reelserve server initialization")

	logger.Debug("Initializing credentials database")
	if err := credentials.OpenDB(config.GetCredentialsDBPath()); err != nil {
		logger.Fatalf("Failed to initialize credentials store: %v", err)
	}
	defer credentials.CloseDB()

	logger.Debug("Initializing failures database")
	if err := failures.Init(config.GetFailuresDBPath()); err != nil {
		logger.Fatalf("Failed to initialize failure store: %v", err)
	}
	defer failures.Close()

	logger.Debug("Initializing success database")
	if err := success.Init(config.GetSuccessDBPath()); err != nil {
		logger.Fatalf("Failed to initialize success store: %v", err)
	}
	defer success.Close()

	logger.Debug("Initializing pending job queue")
	if err := taskqueue.OpenPendingQueueDB(); err != nil {
		logger.Fatalf("Failed to initialize pending queue: %v", err)
	}
	defer taskqueue.ClosePendingQueueDB()

	// Upload tokens cannot be verified without a secret.
	if len(config.GetJWTSecret()) == 0 {
		logger.Warn("REELSERVE_JWT_SECRET is not set; all uploads will be rejected")
	}

	(&hls.Pipeline{}).CheckTool()

	logger.Info("Scanning for pending jobs on startup")
	if err := job.ScanForPending(); err != nil {
		// Don't exit - continue with server startup
		logger.Errorf("Failed to scan for pending jobs: %v", err)
	} else {
		logger.Info("Pending jobs scan completed")
	}

	logger.Info("Starting cleanup routine (runs every 24 hours)")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanupRoutine(ctx)

	logger.Info("Starting encode worker")
	go job.ProcessPending()

	logger.Info("Registering HTTP routes")
	http.HandleFunc("/upload", routes.UploadHandler)
	http.HandleFunc("/health", routes.HealthHandler)
	http.HandleFunc("/version", routes.VersionHandler)
	http.HandleFunc("/status", routes.JobStatusHandler)
	http.HandleFunc("/cancel", routes.CancelJobHandler)
	http.HandleFunc("/register", routes.RegisterCredentialsHandler)
	http.HandleFunc("/failures", routes.FailureQueryHandler)
	http.HandleFunc("/failures/list", routes.FailureListHandler)
	http.HandleFunc("/success", routes.SuccessQueryHandler)
	http.HandleFunc("/success/list", routes.SuccessListHandler)
	// Direct-hosted HLS output: playlists and segments published by the
	// directServe backend.
	http.Handle("/stream/", http.StripPrefix("/stream/",
		http.FileServer(http.Dir(config.GetServeBaseDir()))))

	addr := config.GetListenAddr()
	logger.Infof("Reelserve server starting on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatalf("Server failed to start: %v", err)
	}
}

// cleanupRoutine periodically prunes old success and failure records.
func cleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup routine stopped due to context cancellation")
			return
		case <-ticker.C:
			// Keep a month of history for operator queries.
			maxAge := 30 * 24 * time.Hour

			if err := success.CleanupOldRecords(maxAge); err != nil {
				logger.Errorf("Failed to cleanup old success records: %v", err)
			}
			if err := failures.CleanupOldRecords(maxAge); err != nil {
				logger.Errorf("Failed to cleanup old failure records: %v", err)
			}
			logger.Info("Scheduled cleanup completed")
		}
	}
}
