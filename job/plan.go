package job

import (
	"fmt"

	"reelserve/credentials"
	"reelserve/models"
)

// EncodePlan is the fully resolved work order for one upload: the job spec
// from the token plus the publish destinations with their credentials
// resolved from the credentials store.
type EncodePlan struct {
	Spec    models.JobSpec     `json:"spec"`
	Writers []models.WriterJob `json:"writers"`
}

var knownBackends = map[string]bool{
	"s3":   true,
	"gcs":  true,
	"sftp": true,
}

// BuildPlan turns verified token claims into an EncodePlan. Each storage key
// is looked up in the credentials store; an unknown backend name or an
// unregistered key rejects the upload. When the token names no destination at
// all, the plan defaults to direct hosting so the job output isn't silently
// discarded with the temp dir.
func BuildPlan(claims *models.ReelserveJWT) (EncodePlan, error) {
	spec := claims.Job

	writers := make([]models.WriterJob, 0, len(spec.StorageKeys)+1)
	for backend, accessKey := range spec.StorageKeys {
		if !knownBackends[backend] {
			return EncodePlan{}, fmt.Errorf("unknown storage backend %q", backend)
		}
		creds, err := credentials.GetCredentials(accessKey)
		if err != nil {
			return EncodePlan{}, fmt.Errorf("unregistered storage key for backend %q: %w", backend, err)
		}
		// Without a base directory every artifact would target one remote file.
		if backend == "sftp" && creds["remoteDir"] == "" && creds["remotePath"] == "" {
			return EncodePlan{}, fmt.Errorf("sftp credentials for backend %q missing remoteDir", backend)
		}
		writers = append(writers, models.WriterJob{Type: backend, Credentials: creds})
	}

	if spec.DirectHost || len(writers) == 0 {
		writers = append(writers, models.WriterJob{Type: "directServe", Credentials: map[string]string{}})
	}

	return EncodePlan{Spec: spec, Writers: writers}, nil
}
