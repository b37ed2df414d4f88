package job

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelserve/failures"
	"reelserve/hls"
	"reelserve/models"
	"reelserve/success"
)

// writeStubEncoder drops a shell script standing in for the external encoder.
func writeStubEncoder(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg-stub")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write stub encoder: %v", err)
	}
	return path
}

const stubOK = `#!/bin/sh
out=""
for a in "$@"; do out="$a"; done
case "$out" in
*.m3u8)
	base="${out%.m3u8}"
	printf '#EXTM3U\n' > "$out"
	printf 'segment' > "${base}_000.ts"
	;;
*)
	printf 'frame' > "$out"
	;;
esac
exit 0
`

const stubFail = `#!/bin/sh
echo "moov atom not found" >&2
exit 1
`

// setupStores points the registries at per-test pebble databases.
func setupStores(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	if err := failures.Init(filepath.Join(dir, "failures.db")); err != nil {
		t.Fatalf("failed to init failures store: %v", err)
	}
	t.Cleanup(func() { failures.Close() })
	if err := success.Init(filepath.Join(dir, "success.db")); err != nil {
		t.Fatalf("failed to init success store: %v", err)
	}
	t.Cleanup(func() { success.Close() })
}

// makeJobDir builds a job directory with a source file and instructions.
func makeJobDir(t *testing.T, hash string, spec models.JobSpec) string {
	t.Helper()
	jobDir := filepath.Join(t.TempDir(), hash)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		t.Fatalf("failed to create job dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(jobDir, "source.mp4"), []byte("video"), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	instr := Instructions{
		FilePath:     jobDir,
		OriginalFile: "source.mp4",
		Hash:         hash,
		Job: EncodePlan{
			Spec:    spec,
			Writers: []models.WriterJob{{Type: "directServe"}},
		},
	}
	if err := WriteInstructions(jobDir, instr); err != nil {
		t.Fatalf("failed to write instructions: %v", err)
	}
	return jobDir
}

func TestProcessJobSuccess(t *testing.T) {
	setupStores(t)
	serveDir := t.TempDir()
	t.Setenv("REELSERVE_FFMPEG", writeStubEncoder(t, stubOK))
	t.Setenv("REELSERVE_SERVE_DIR", serveDir)

	hash := "abc123"
	jobDir := makeJobDir(t, hash, models.JobSpec{
		Ladder: []hls.Rendition{hls.DefaultLadder[3]}, // 360p only
	})

	if err := ProcessJob(context.Background(), jobDir); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}

	master := filepath.Join(serveDir, hash, "master.m3u8")
	if _, err := os.Stat(master); err != nil {
		t.Errorf("master playlist not published: %v", err)
	}
	if _, err := os.Stat(filepath.Join(serveDir, hash, "360p.m3u8")); err != nil {
		t.Errorf("variant playlist not published: %v", err)
	}

	rec, err := success.GetSuccess(hash)
	if err != nil {
		t.Fatalf("failed to read success record: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a success record")
	}
	if rec.FileCount < 2 {
		t.Errorf("expected at least 2 published files, got %d", rec.FileCount)
	}
	if len(rec.Manifest.Variants) != 1 || rec.Manifest.Variants[0].Quality != "360p" {
		t.Errorf("unexpected manifest in success record: %+v", rec.Manifest)
	}

	if _, err := os.Stat(jobDir); !os.IsNotExist(err) {
		t.Error("job directory should be removed after processing")
	}
}

func TestProcessJobPublishesUnderSubDir(t *testing.T) {
	setupStores(t)
	serveDir := t.TempDir()
	t.Setenv("REELSERVE_FFMPEG", writeStubEncoder(t, stubOK))
	t.Setenv("REELSERVE_SERVE_DIR", serveDir)

	hash := "def456"
	jobDir := makeJobDir(t, hash, models.JobSpec{
		SubDir: "tenant-a",
		Ladder: []hls.Rendition{hls.DefaultLadder[3]},
	})

	if err := ProcessJob(context.Background(), jobDir); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(serveDir, "tenant-a", hash, "master.m3u8")); err != nil {
		t.Errorf("output not published under subdir: %v", err)
	}
}

func TestProcessJobEmptyManifest(t *testing.T) {
	setupStores(t)
	t.Setenv("REELSERVE_FFMPEG", writeStubEncoder(t, stubFail))
	t.Setenv("REELSERVE_SERVE_DIR", t.TempDir())

	hash := "0badbeef"
	jobDir := makeJobDir(t, hash, models.JobSpec{
		Ladder: []hls.Rendition{hls.DefaultLadder[3]},
	})

	err := ProcessJob(context.Background(), jobDir)
	if err == nil {
		t.Fatal("expected an error when every rendition fails")
	}

	rec, getErr := failures.GetFailure(hash)
	if getErr != nil {
		t.Fatalf("failed to read failure record: %v", getErr)
	}
	if rec == nil {
		t.Fatal("expected a failure record")
	}
	wantDetail := "moov atom not found"
	if !containsAll(rec.Error, "no rendition produced", "360p", wantDetail) {
		t.Errorf("failure record missing encoder diagnostics: %q", rec.Error)
	}
}

func TestProcessJobExtractsThumbnail(t *testing.T) {
	setupStores(t)
	serveDir := t.TempDir()
	t.Setenv("REELSERVE_FFMPEG", writeStubEncoder(t, stubOK))
	t.Setenv("REELSERVE_SERVE_DIR", serveDir)

	hash := "cafe01"
	jobDir := makeJobDir(t, hash, models.JobSpec{
		Ladder:    []hls.Rendition{hls.DefaultLadder[3]},
		Thumbnail: &models.ThumbnailSpec{AtSeconds: 3},
	})

	if err := ProcessJob(context.Background(), jobDir); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(serveDir, hash, ThumbnailFile)); err != nil {
		t.Errorf("thumbnail not published: %v", err)
	}
}

func TestProcessJobSendsCallback(t *testing.T) {
	setupStores(t)
	t.Setenv("REELSERVE_FFMPEG", writeStubEncoder(t, stubOK))
	t.Setenv("REELSERVE_SERVE_DIR", t.TempDir())

	var gotBody []byte
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAuth = r.Header.Get("X-Callback-Token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hash := "feed02"
	jobDir := makeJobDir(t, hash, models.JobSpec{
		Ladder:             []hls.Rendition{hls.DefaultLadder[3]},
		CompletionCallback: srv.URL,
		CallbackHeaders:    map[string]string{"X-Callback-Token": "s3cret"},
	})

	if err := ProcessJob(context.Background(), jobDir); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}

	if gotAuth != "s3cret" {
		t.Errorf("callback header not forwarded, got %q", gotAuth)
	}
	var payload struct {
		Hash     string       `json:"hash"`
		Status   string       `json:"status"`
		Manifest hls.Manifest `json:"manifest"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("failed to decode callback payload: %v", err)
	}
	if payload.Hash != hash {
		t.Errorf("callback hash = %q, want %q", payload.Hash, hash)
	}
	if payload.Status != "completed" {
		t.Errorf("callback status = %q, want completed", payload.Status)
	}
	if payload.Manifest.Master != hls.MasterPlaylist {
		t.Errorf("callback manifest master = %q", payload.Manifest.Master)
	}
}

func TestProcessJobMissingInstructions(t *testing.T) {
	setupStores(t)
	jobDir := filepath.Join(t.TempDir(), "nohash")
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := ProcessJob(context.Background(), jobDir); err == nil {
		t.Error("expected an error for a job dir without instructions")
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
