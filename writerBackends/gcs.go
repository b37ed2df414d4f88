package writerbackends

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"reelserve/logger"
)

// UploadToGCSWithJSON uploads content from an io.Reader to a Google Cloud
// Storage object, authenticating with a base64-encoded service account key
// from accessInfo (credentialsJSON, bucket, object).
func UploadToGCSWithJSON(ctx context.Context, accessInfo map[string]string, reader io.Reader) error {
	credentialsJSON, err := base64.StdEncoding.DecodeString(accessInfo["credentialsJSON"])
	if err != nil {
		// Registered keys may also be raw JSON.
		credentialsJSON = []byte(accessInfo["credentialsJSON"])
	}
	bucketName := accessInfo["bucket"]
	objectName := accessInfo["object"]

	client, err := storage.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return fmt.Errorf("storage.NewClient: %w", err)
	}
	defer client.Close()

	obj := client.Bucket(bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)

	if _, err = io.Copy(wc, reader); err != nil {
		return fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %w", err)
	}

	logger.Debugf("uploaded object '%s' to bucket '%s'", objectName, bucketName)
	return nil
}
