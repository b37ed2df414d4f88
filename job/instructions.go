package job

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Instructions describes one accepted upload: where the source file lives and
// what to produce from it. Written to instructions.json inside the job
// directory so queued jobs survive a restart.
type Instructions struct {
	FilePath     string     `json:"file_path"`     // job directory holding the source
	OriginalFile string     `json:"original_file"` // original filename
	Hash         string     `json:"hash"`          // SHA256 of the source
	Job          EncodePlan `json:"job"`           // resolved encode plan
}

// WriteInstructions writes the job instructions to instructions.json in the given directory.
func WriteInstructions(dir string, instr Instructions) error {
	path := filepath.Join(dir, "instructions.json")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create instructions file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(instr); err != nil {
		return fmt.Errorf("failed to encode instructions: %w", err)
	}
	return nil
}

// ReadInstructions reads job instructions from instructions.json in the given directory.
func ReadInstructions(dir string) (Instructions, error) {
	path := filepath.Join(dir, "instructions.json")
	file, err := os.Open(path)
	if err != nil {
		return Instructions{}, fmt.Errorf("failed to open instructions file: %w", err)
	}
	defer file.Close()

	var instr Instructions
	if err := json.NewDecoder(file).Decode(&instr); err != nil {
		return Instructions{}, fmt.Errorf("failed to decode instructions: %w", err)
	}
	return instr, nil
}
