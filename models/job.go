package models

// WriterJob is one resolved publish destination for a job's artifacts. Type
// selects the backend ("directServe", "s3", "gcs", "sftp"); Credentials holds
// whatever that backend's writer needs, resolved from the credentials store.
type WriterJob struct {
	Type        string            `json:"type"`
	Credentials map[string]string `json:"credentials"`
}
