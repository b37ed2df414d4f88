package taskqueue

import "reelserve/config"

// PendingQueue is the durable record of encode jobs that have been accepted
// but not yet completed. Keys are job hashes, values are the job directory
// paths. The job scanner replays it on startup.
var PendingQueue *DBQueue

// OpenPendingQueueDB opens the pending queue at the configured path.
func OpenPendingQueueDB() error {
	q, err := OpenQueue(config.GetPendingQueueDBPath())
	if err != nil {
		return err
	}
	PendingQueue = q
	return nil
}

// ClosePendingQueueDB closes the pending queue.
func ClosePendingQueueDB() error {
	if PendingQueue != nil {
		return PendingQueue.Close()
	}
	return nil
}

func AddToPendingQueue(hash string, jobDir string) error {
	return PendingQueue.Add(hash, []byte(jobDir))
}

func GetFromPendingQueue(hash string) (string, error) {
	dir, err := PendingQueue.Get(hash)
	return string(dir), err
}

func DeleteFromPendingQueue(hash string) error {
	return PendingQueue.Delete(hash)
}

// ListPendingQueue returns the hashes of all queued jobs.
func ListPendingQueue() ([]string, error) {
	return PendingQueue.Keys()
}
