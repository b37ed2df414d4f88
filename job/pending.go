package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"reelserve/logger"
	"reelserve/taskqueue"
)

// State represents the current state of an encode job.
type State int

const (
	StateQueued State = iota
	StateEncoding
	StateCompleted
	StateFailed
	StateCancelled
)

// String returns the wire name used by the status endpoint and callbacks.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateEncoding:
		return "encoding"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var (
	pendingJobs []string                              // job directory paths awaiting processing
	activeJobs  = make(map[string]context.CancelFunc) // hash -> cancel function
	jobStates   = make(map[string]State)              // hash -> job state
	jobProgress = make(map[string]int)                // hash -> percent of ladder attempted
	mu          sync.RWMutex
)

// AddPending queues a job directory for processing and records it in the
// durable pending queue. A hash that is already queued or encoding is not
// queued again: the running attempt covers the re-upload, and a duplicate
// entry would be processed against a job dir the first pass already removed.
func AddPending(dir string) {
	hash := filepath.Base(dir)
	mu.Lock()
	if state, ok := jobStates[hash]; ok && (state == StateQueued || state == StateEncoding) {
		mu.Unlock()
		logger.Debugf("Job %s is already pending, not queueing again", hash)
		return
	}
	pendingJobs = append(pendingJobs, dir)
	jobStates[hash] = StateQueued
	jobProgress[hash] = 0
	mu.Unlock()

	if taskqueue.PendingQueue != nil {
		if err := taskqueue.AddToPendingQueue(hash, dir); err != nil {
			logger.Errorf("Failed to persist pending job %s: %v", hash, err)
		}
	}
}

// removePending drops a job directory from the in-memory list and the
// durable queue once it has been processed.
func removePending(dir string) {
	hash := filepath.Base(dir)
	mu.Lock()
	for i, p := range pendingJobs {
		if p == dir {
			pendingJobs = append(pendingJobs[:i], pendingJobs[i+1:]...)
			break
		}
	}
	mu.Unlock()

	if taskqueue.PendingQueue != nil {
		if err := taskqueue.DeleteFromPendingQueue(hash); err != nil {
			logger.Errorf("Failed to dequeue job %s: %v", hash, err)
		}
	}
}

// GetPending returns a copy of the pending jobs list.
func GetPending() []string {
	mu.RLock()
	defer mu.RUnlock()
	jobs := make([]string, len(pendingJobs))
	copy(jobs, pendingJobs)
	return jobs
}

// Cancel cancels a job by hash. Only queued jobs can be cancelled; once the
// encoder is running the job runs to completion (callers wanting a hard stop
// must kill the process tree themselves).
func Cancel(hash string) error {
	mu.Lock()
	defer mu.Unlock()

	state, exists := jobStates[hash]
	if !exists {
		return fmt.Errorf("job with hash %s not found", hash)
	}

	switch state {
	case StateCompleted:
		return fmt.Errorf("job with hash %s is already completed", hash)
	case StateFailed:
		return fmt.Errorf("job with hash %s has already failed", hash)
	case StateCancelled:
		return fmt.Errorf("job with hash %s is already cancelled", hash)
	case StateEncoding:
		return fmt.Errorf("job with hash %s is currently encoding and cannot be cancelled", hash)
	case StateQueued:
		if cancel, ok := activeJobs[hash]; ok {
			cancel()
			delete(activeJobs, hash)
		}
		jobStates[hash] = StateCancelled
		return nil
	default:
		return fmt.Errorf("job with hash %s is in unknown state", hash)
	}
}

// GetState returns the current state of a job.
func GetState(hash string) (State, bool) {
	mu.RLock()
	defer mu.RUnlock()
	state, exists := jobStates[hash]
	return state, exists
}

// GetProgress returns the percent of the ladder attempted so far.
func GetProgress(hash string) int {
	mu.RLock()
	defer mu.RUnlock()
	return jobProgress[hash]
}

func setState(hash string, s State) {
	mu.Lock()
	jobStates[hash] = s
	mu.Unlock()
}

func setProgress(hash string, percent int) {
	mu.Lock()
	jobProgress[hash] = percent
	mu.Unlock()
}

// ScanForPending rebuilds the pending list after a restart: every temp
// directory holding an instructions.json is a job that never finished. The
// durable queue is reconciled against what is actually on disk.
func ScanForPending() error {
	tempDir := os.TempDir()
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(tempDir, entry.Name())
		instrPath := filepath.Join(dirPath, "instructions.json")
		if _, err := os.Stat(instrPath); err == nil {
			AddPending(dirPath)
		}
	}

	if taskqueue.PendingQueue != nil {
		hashes, err := taskqueue.ListPendingQueue()
		if err != nil {
			return err
		}
		queued := make(map[string]bool)
		mu.RLock()
		for _, dir := range pendingJobs {
			queued[filepath.Base(dir)] = true
		}
		mu.RUnlock()
		for _, hash := range hashes {
			if !queued[hash] {
				// Job dir vanished while we were down; nothing left to run.
				if err := taskqueue.DeleteFromPendingQueue(hash); err != nil {
					logger.Errorf("Failed to drop stale queue entry %s: %v", hash, err)
				}
			}
		}
	}
	return nil
}

// processOne runs a single job directory through ProcessJob with state
// bookkeeping and a cancellable context.
func processOne(jobDir string) error {
	hash := filepath.Base(jobDir)

	mu.Lock()
	if jobStates[hash] == StateCancelled {
		mu.Unlock()
		// Drop the staged source and instructions, otherwise the startup
		// scan would resurrect the cancelled job after a restart.
		if err := os.RemoveAll(jobDir); err != nil {
			logger.Errorf("Failed to remove cancelled job dir %s: %v", jobDir, err)
		}
		return nil
	}
	jobStates[hash] = StateEncoding
	mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	mu.Lock()
	activeJobs[hash] = cancel
	mu.Unlock()

	defer func() {
		cancel()
		mu.Lock()
		delete(activeJobs, hash)
		mu.Unlock()
	}()

	err := ProcessJob(ctx, jobDir)

	mu.Lock()
	if err != nil {
		if ctx.Err() == context.Canceled {
			jobStates[hash] = StateCancelled
		} else {
			jobStates[hash] = StateFailed
		}
	} else {
		jobStates[hash] = StateCompleted
	}
	mu.Unlock()

	return err
}

// ProcessPending runs in a loop encoding pending jobs, one at a time. One
// encoder process per server instance is the throttle; operators run more
// instances for more throughput.
func ProcessPending() {
	for {
		jobs := GetPending()
		if len(jobs) == 0 {
			time.Sleep(1 * time.Second)
			continue
		}
		logger.Infof("Processing %d pending jobs", len(jobs))

		for _, jobDir := range jobs {
			if err := processOne(jobDir); err != nil {
				logger.Errorf("Failed to process job in %s: %v", jobDir, err)
			} else {
				logger.Infof("Processed job in %s", jobDir)
			}
			removePending(jobDir)
		}
	}
}
