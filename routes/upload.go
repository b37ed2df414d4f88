package routes

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"reelserve/config"
	"reelserve/hls"
	"reelserve/job"
	"reelserve/logger"
	"reelserve/models"
	"reelserve/utils"
)

// verifyJWT verifies the bearer token on the request and returns its claims.
func verifyJWT(r *http.Request) (*models.ReelserveJWT, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header required")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return nil, fmt.Errorf("invalid authorization header format")
	}

	claims, err := utils.VerifyToken(token, utils.VerifyConfig{
		SecretKey: config.GetJWTSecret(),
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// computeHash computes the SHA256 hash of the uploaded source.
func computeHash(reader io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, reader); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// createJobDir creates the temp job directory named after the hash.
func createJobDir(hash string) (string, error) {
	dir := filepath.Join(os.TempDir(), hash)
	return dir, os.MkdirAll(dir, 0755)
}

// uploadResponse is what the caller gets back: the job hash to poll with and
// the path the master playlist will have once the job completes.
type uploadResponse struct {
	Hash   string `json:"hash"`
	Master string `json:"master"`
}

// UploadHandler accepts a source video upload, verifies the job token,
// stages the file into a job directory, and queues the encode job. The
// response returns immediately; encoding happens in the worker.
func UploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, err := verifyJWT(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(256 << 20); err != nil {
		http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	hashSum, err := computeHash(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "Failed to rewind file", http.StatusInternalServerError)
		return
	}

	// Resolve publish destinations before touching disk so bad tokens fail fast.
	plan, err := job.BuildPlan(claims)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to resolve job: %v", err), http.StatusBadRequest)
		return
	}

	jobDir, err := createJobDir(hashSum)
	if err != nil {
		http.Error(w, "Failed to create job directory", http.StatusInternalServerError)
		return
	}

	if err := saveSource(jobDir, header.Filename, file); err != nil {
		logger.Errorf("Failed to save upload %s: %v", hashSum, err)
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	instr := job.Instructions{
		FilePath:     jobDir,
		OriginalFile: header.Filename,
		Hash:         hashSum,
		Job:          plan,
	}
	if err := job.WriteInstructions(jobDir, instr); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write instructions: %v", err), http.StatusInternalServerError)
		return
	}

	job.AddPending(jobDir)

	resp := uploadResponse{
		Hash:   hashSum,
		Master: path.Join("/stream", plan.Spec.SubDir, hashSum, hls.MasterPlaylist),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Errorf("Failed to encode upload response: %v", err)
	}
}

// saveSource streams the uploaded file into the job directory under its
// original name.
func saveSource(dir, filename string, src io.Reader) error {
	dst, err := os.Create(filepath.Join(dir, filepath.Base(filename)))
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}
