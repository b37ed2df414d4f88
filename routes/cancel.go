package routes

import (
	"fmt"
	"net/http"
	"strings"

	"reelserve/job"
	"reelserve/logger"
)

// CancelJobHandler cancels a queued job by hash. Jobs already encoding run
// to completion.
func CancelJobHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hash := r.URL.Query().Get("hash")
	if hash == "" {
		http.Error(w, "Missing hash parameter", http.StatusBadRequest)
		return
	}

	logger.Infof("Attempting to cancel job: %s", hash)
	if err := job.Cancel(hash); err != nil {
		logger.Errorf("Failed to cancel job %s: %v", hash, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, fmt.Sprintf("Job not found: %v", err), http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Cannot cancel job: %v", err), http.StatusConflict)
		}
		return
	}

	logger.Infof("Job cancelled successfully: %s", hash)
	w.WriteHeader(http.StatusNoContent)
}
