package routes

import (
	"encoding/json"
	"net/http"

	"reelserve/credentials"
	"reelserve/logger"
	"reelserve/utils"
)

// RegisterCredentialsHandler stores a posted credentials map and returns the
// generated access key. Upload tokens reference that key in storageKeys so
// raw credentials never travel inside a JWT.
func RegisterCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	keyString, err := utils.GenerateRandomHex(16)
	if err != nil {
		http.Error(w, "Failed to generate key", http.StatusInternalServerError)
		return
	}

	credsBody := make(map[string]string)
	if err := json.NewDecoder(r.Body).Decode(&credsBody); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := credentials.StoreCredentials(keyString, credsBody); err != nil {
		logger.Errorf("Failed to store credentials: %v", err)
		http.Error(w, "Failed to store credentials", http.StatusInternalServerError)
		return
	}

	response := map[string]string{
		"access_key": keyString,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
