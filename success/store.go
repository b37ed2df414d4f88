// Package success persists completed encode jobs and the manifest of what
// they produced. The catalog service reads these records back when wiring
// stream URLs to a movie.
package success

import (
	"encoding/json"
	"fmt"
	"time"

	pebble "github.com/cockroachdb/pebble"

	"reelserve/hls"
)

// SuccessRecord represents one completed encode job.
type SuccessRecord struct {
	Hash      string       `json:"hash"`
	Timestamp time.Time    `json:"timestamp"`
	JobData   string       `json:"job_data"`   // JSON of the job instructions
	Manifest  hls.Manifest `json:"manifest"`   // produced variants + master playlist
	FileCount int          `json:"file_count"` // artifact files published
}

var db *pebble.DB

// Init initializes the success store.
func Init(dbPath string) error {
	var err error
	db, err = pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("failed to open success store: %w", err)
	}
	return nil
}

// Close closes the success store.
func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// StoreSuccess records a completed job under its hash.
func StoreSuccess(hash string, jobData interface{}, manifest hls.Manifest, fileCount int) error {
	if db == nil {
		return fmt.Errorf("success store not initialized")
	}

	jobJSON, jsonErr := json.Marshal(jobData)
	if jsonErr != nil {
		jobJSON = []byte(fmt.Sprintf("failed to marshal job data: %v", jsonErr))
	}

	record := SuccessRecord{
		Hash:      hash,
		Timestamp: time.Now(),
		JobData:   string(jobJSON),
		Manifest:  manifest,
		FileCount: fileCount,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal success record: %w", err)
	}
	return db.Set([]byte(hash), data, pebble.Sync)
}

// GetSuccess retrieves a success record by hash. Returns nil when the hash
// has no completed job.
func GetSuccess(hash string) (*SuccessRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("success store not initialized")
	}

	data, closer, err := db.Get([]byte(hash))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	defer closer.Close()

	var record SuccessRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal success record: %w", err)
	}
	return &record, nil
}

// DeleteSuccess removes a success record.
func DeleteSuccess(hash string) error {
	if db == nil {
		return fmt.Errorf("success store not initialized")
	}
	return db.Delete([]byte(hash), pebble.Sync)
}

// ListSuccessRecords returns all success records (for operator tooling).
func ListSuccessRecords() ([]SuccessRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("success store not initialized")
	}

	var records []SuccessRecord
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var record SuccessRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			continue // skip invalid records
		}
		records = append(records, record)
	}
	return records, nil
}

// CleanupOldRecords removes success records older than maxAge.
func CleanupOldRecords(maxAge time.Duration) error {
	if db == nil {
		return fmt.Errorf("success store not initialized")
	}

	cutoff := time.Now().Add(-maxAge)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()

	var keysToDelete [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var record SuccessRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			continue
		}
		if record.Timestamp.Before(cutoff) {
			key := make([]byte, len(iter.Key()))
			copy(key, iter.Key())
			keysToDelete = append(keysToDelete, key)
		}
	}

	for _, key := range keysToDelete {
		if err := db.Delete(key, pebble.Sync); err != nil {
			return fmt.Errorf("failed to delete old success record: %w", err)
		}
	}
	return nil
}

// CheckHealth performs a basic health check on the success database.
func CheckHealth() error {
	if db == nil {
		return fmt.Errorf("success database not initialized")
	}

	_, closer, err := db.Get([]byte("__health_check__"))
	if err != nil && err != pebble.ErrNotFound {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if closer != nil {
		closer.Close()
	}
	return nil
}
