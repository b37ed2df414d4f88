package writerbackends

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileUnknownBackend(t *testing.T) {
	err := WriteFile(context.Background(), nil, strings.NewReader("x"), "ftp")
	if err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
	if !strings.Contains(err.Error(), "unknown backend type") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDirectServeWritesFile(t *testing.T) {
	baseDir := t.TempDir()
	accessInfo := map[string]string{
		"baseDir":  baseDir,
		"folder":   "movies/abc",
		"filename": "720p.m3u8",
	}

	err := UploadToDirectServe(context.Background(), accessInfo, strings.NewReader("#EXTM3U\n"))
	if err != nil {
		t.Fatalf("UploadToDirectServe failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(baseDir, "movies/abc/720p.m3u8"))
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if string(data) != "#EXTM3U\n" {
		t.Errorf("artifact content = %q", data)
	}
}

func TestPublishDirShipsWholeTree(t *testing.T) {
	srcDir := t.TempDir()
	files := map[string]string{
		"master.m3u8":   "#EXTM3U\n",
		"720p.m3u8":     "#EXTM3U\n",
		"720p_000.ts":   "segment",
		"thumbnail.jpg": "frame",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	baseDir := t.TempDir()
	accessInfo := map[string]string{
		"baseDir": baseDir,
		"folder":  "abc123",
	}

	count, err := PublishDir(context.Background(), accessInfo, srcDir, "directServe")
	if err != nil {
		t.Fatalf("PublishDir failed: %v", err)
	}
	if count != len(files) {
		t.Errorf("published %d files, want %d", count, len(files))
	}

	for name, content := range files {
		data, err := os.ReadFile(filepath.Join(baseDir, "abc123", name))
		if err != nil {
			t.Errorf("missing published artifact %s: %v", name, err)
			continue
		}
		if string(data) != content {
			t.Errorf("artifact %s content = %q", name, data)
		}
	}
}

func TestPublishDirHonorsContext(t *testing.T) {
	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "a.ts"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PublishDir(ctx, map[string]string{"baseDir": t.TempDir()}, srcDir, "directServe")
	if err == nil {
		t.Error("expected an error when the context is cancelled")
	}
}

func TestPerFileAccessInfoDistinctRemotePaths(t *testing.T) {
	creds := map[string]string{
		"host":      "media.example.com",
		"user":      "vod",
		"remoteDir": "/upload/video",
		"folder":    "abc123",
	}

	master := perFileAccessInfo(creds, "master.m3u8")
	segment := perFileAccessInfo(creds, "720p_000.ts")

	if master["remotePath"] == segment["remotePath"] {
		t.Fatalf("both artifacts target the same remote path %q", master["remotePath"])
	}
	if master["remotePath"] != "/upload/video/abc123/master.m3u8" {
		t.Errorf("master remotePath = %q", master["remotePath"])
	}
	if segment["remotePath"] != "/upload/video/abc123/720p_000.ts" {
		t.Errorf("segment remotePath = %q", segment["remotePath"])
	}
}

func TestPerFileAccessInfoRemotePathAsBase(t *testing.T) {
	// Legacy registrations carry the base directory under remotePath.
	creds := map[string]string{
		"remotePath": "/upload/video",
		"folder":     "abc123",
	}

	master := perFileAccessInfo(creds, "master.m3u8")
	segment := perFileAccessInfo(creds, "720p_000.ts")

	if master["remotePath"] == segment["remotePath"] {
		t.Fatalf("both artifacts target the same remote path %q", master["remotePath"])
	}
	if master["remotePath"] != "/upload/video/abc123/master.m3u8" {
		t.Errorf("master remotePath = %q", master["remotePath"])
	}
}

func TestPerFileAccessInfo(t *testing.T) {
	base := map[string]string{
		"folder":    "movies/abc",
		"remoteDir": "/var/www",
		"bucket":    "vod",
	}
	info := perFileAccessInfo(base, "720p_000.ts")

	if info["filename"] != "720p_000.ts" {
		t.Errorf("filename = %q", info["filename"])
	}
	if info["key"] != "movies/abc/720p_000.ts" {
		t.Errorf("key = %q", info["key"])
	}
	if info["object"] != "movies/abc/720p_000.ts" {
		t.Errorf("object = %q", info["object"])
	}
	if info["remotePath"] != "/var/www/movies/abc/720p_000.ts" {
		t.Errorf("remotePath = %q", info["remotePath"])
	}
	if info["bucket"] != "vod" {
		t.Error("credentials should be carried through")
	}
	if _, ok := base["filename"]; ok {
		t.Error("input map must not be mutated")
	}
}
