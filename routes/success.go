package routes

import (
	"encoding/json"
	"net/http"

	"reelserve/logger"
	"reelserve/success"
)

// SuccessQueryHandler returns the completion record for one job hash,
// including the manifest of produced variants the catalog persists.
func SuccessQueryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hash := r.URL.Query().Get("hash")
	if hash == "" {
		http.Error(w, "hash parameter required", http.StatusBadRequest)
		return
	}

	record, err := success.GetSuccess(hash)
	if err != nil {
		logger.Errorf("Failed to query success for hash %s: %v", hash, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if record == nil {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"hash":    hash,
			"status":  "not_found",
			"message": "No success record found for this hash",
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"hash":       record.Hash,
		"status":     "completed",
		"timestamp":  record.Timestamp,
		"manifest":   record.Manifest,
		"file_count": record.FileCount,
	})
}

// SuccessListHandler lists all success records (operator endpoint).
func SuccessListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := success.ListSuccessRecords()
	if err != nil {
		logger.Errorf("Failed to list success records: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success_records": records,
		"count":           len(records),
	})
}
