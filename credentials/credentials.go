// Package credentials stores registered storage-backend credentials keyed by
// the random access key returned to the registrant. Upload tokens reference
// these keys instead of carrying raw credentials.
package credentials

import (
	"encoding/json"
	"fmt"

	"reelserve/logger"

	"github.com/cockroachdb/pebble"
)

var db *pebble.DB

// OpenDB opens the Pebble DB for credentials at the specified path.
func OpenDB(dbPath string) error {
	var err error
	db, err = pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		logger.Errorf("Failed to open credentials DB: %v", err)
		return err
	}
	return nil
}

// CloseDB closes the DB.
func CloseDB() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// GetCredentials returns the credentials map stored under key. A missing key
// returns pebble.ErrNotFound.
func GetCredentials(key string) (map[string]string, error) {
	if db == nil {
		return nil, fmt.Errorf("credentials store not initialized")
	}
	value, closer, err := db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	creds := make(map[string]string)
	if err := json.Unmarshal(value, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// StoreCredentials stores the credentials map under the given key.
func StoreCredentials(key string, creds map[string]string) error {
	if db == nil {
		return fmt.Errorf("credentials store not initialized")
	}
	encoded, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return db.Set([]byte(key), encoded, pebble.Sync)
}

// DeleteCredentials deletes the credentials for the given key.
func DeleteCredentials(key string) error {
	if db == nil {
		return fmt.Errorf("credentials store not initialized")
	}
	return db.Delete([]byte(key), pebble.Sync)
}
