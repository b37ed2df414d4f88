// Package writerbackends publishes encode artifacts to their configured
// destinations. An HLS job produces a directory tree (master playlist,
// variant playlists, segments, optional thumbnail); PublishDir ships the
// whole tree to a backend preserving relative paths.
package writerbackends

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// WriteFile writes a single artifact from reader to the backend named by
// backendType. accessInfo carries the backend credentials plus "filename"
// and "folder" for the destination path.
func WriteFile(ctx context.Context, accessInfo map[string]string, reader io.Reader, backendType string) error {
	switch backendType {
	case "directServe":
		if err := UploadToDirectServe(ctx, accessInfo, reader); err != nil {
			return fmt.Errorf("failed to upload to direct serve: %w", err)
		}
	case "s3":
		if err := UploadToS3WithCreds(ctx, accessInfo, reader); err != nil {
			return fmt.Errorf("failed to upload to S3: %w", err)
		}
	case "gcs":
		if err := UploadToGCSWithJSON(ctx, accessInfo, reader); err != nil {
			return fmt.Errorf("failed to upload to GCS: %w", err)
		}
	case "sftp":
		if err := UploadToSFTPWithCreds(ctx, accessInfo, reader); err != nil {
			return fmt.Errorf("failed to upload to SFTP: %w", err)
		}
	default:
		return fmt.Errorf("unknown backend type: %s", backendType)
	}
	return nil
}

// PublishDir walks localDir and writes every regular file to the backend,
// keyed as <folder>/<relative path>. Returns the number of files published.
// Publishing stops at the first error; already-written files are left in
// place, re-running overwrites them.
func PublishDir(ctx context.Context, accessInfo map[string]string, localDir, backendType string) (int, error) {
	count := 0
	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("failed to open artifact %s: %w", p, err)
		}
		defer f.Close()

		info := perFileAccessInfo(accessInfo, filepath.ToSlash(rel))
		if err := WriteFile(ctx, info, f, backendType); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("publish %s to %s: %w", localDir, backendType, err)
	}
	return count, nil
}

// perFileAccessInfo copies the backend credentials and fills in the
// destination naming keys each backend reads.
func perFileAccessInfo(accessInfo map[string]string, rel string) map[string]string {
	info := make(map[string]string, len(accessInfo)+4)
	for k, v := range accessInfo {
		info[k] = v
	}
	folder := info["folder"]
	info["filename"] = rel
	// Object-store backends key on a single path, not folder+filename.
	info["key"] = path.Join(folder, rel)
	info["object"] = path.Join(folder, rel)
	// SFTP credentials register the remote base directory as remoteDir
	// (legacy registrations used remotePath for the same thing). The
	// per-artifact destination is derived under it; leaving remotePath as
	// registered would write every artifact to one file.
	base := info["remoteDir"]
	if base == "" {
		base = info["remotePath"]
	}
	if base != "" {
		info["remotePath"] = path.Join(base, folder, rel)
	}
	return info
}
