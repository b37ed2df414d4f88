package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"reelserve/job"
	"reelserve/logger"
)

// JobStatusResponse is the job status payload polled by operator tooling.
type JobStatusResponse struct {
	Hash     string `json:"hash"`
	State    string `json:"state"`
	Progress int    `json:"progress"` // percent of the ladder attempted
}

// JobStatusHandler returns the status and progress of a job by hash.
func JobStatusHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("Job status request: method=%s, remoteAddr=%s", r.Method, r.RemoteAddr)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hash := r.URL.Query().Get("hash")
	if hash == "" {
		http.Error(w, "Missing hash parameter", http.StatusBadRequest)
		return
	}

	state, exists := job.GetState(hash)
	if !exists {
		http.Error(w, fmt.Sprintf("Job with hash %s not found", hash), http.StatusNotFound)
		return
	}

	response := JobStatusResponse{
		Hash:     hash,
		State:    state.String(),
		Progress: job.GetProgress(hash),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Errorf("Failed to encode status response: %v", err)
	}
}
