package success

import (
	"path/filepath"
	"testing"
	"time"

	"reelserve/hls"
)

func setup(t *testing.T) {
	t.Helper()
	if err := Init(filepath.Join(t.TempDir(), "success.db")); err != nil {
		t.Fatalf("failed to init success store: %v", err)
	}
	t.Cleanup(func() { Close(); db = nil })
}

func sampleManifest() hls.Manifest {
	return hls.Manifest{
		Variants: []hls.Variant{
			{Quality: "720p", Playlist: "720p.m3u8"},
			{Quality: "360p", Playlist: "360p.m3u8"},
		},
		Master: hls.MasterPlaylist,
	}
}

func TestStoreAndGetSuccess(t *testing.T) {
	setup(t)

	jobData := map[string]string{"file": "movie.mp4"}
	if err := StoreSuccess("hash1", jobData, sampleManifest(), 9); err != nil {
		t.Fatalf("StoreSuccess failed: %v", err)
	}

	rec, err := GetSuccess("hash1")
	if err != nil {
		t.Fatalf("GetSuccess failed: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a success record")
	}
	if rec.Hash != "hash1" || rec.FileCount != 9 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if len(rec.Manifest.Variants) != 2 || rec.Manifest.Master != hls.MasterPlaylist {
		t.Errorf("manifest not round-tripped: %+v", rec.Manifest)
	}
}

func TestGetSuccessNotFound(t *testing.T) {
	setup(t)

	rec, err := GetSuccess("missing")
	if err != nil {
		t.Fatalf("GetSuccess failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for an unknown hash, got %+v", rec)
	}
}

func TestDeleteSuccess(t *testing.T) {
	setup(t)

	if err := StoreSuccess("hash2", nil, sampleManifest(), 1); err != nil {
		t.Fatal(err)
	}
	if err := DeleteSuccess("hash2"); err != nil {
		t.Fatalf("DeleteSuccess failed: %v", err)
	}
	rec, err := GetSuccess("hash2")
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Error("record should be gone after delete")
	}
}

func TestListSuccessRecords(t *testing.T) {
	setup(t)

	for _, h := range []string{"a", "b"} {
		if err := StoreSuccess(h, nil, sampleManifest(), 4); err != nil {
			t.Fatal(err)
		}
	}
	records, err := ListSuccessRecords()
	if err != nil {
		t.Fatalf("ListSuccessRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestCleanupKeepsFreshRecords(t *testing.T) {
	setup(t)

	if err := StoreSuccess("fresh", nil, sampleManifest(), 4); err != nil {
		t.Fatal(err)
	}
	if err := CleanupOldRecords(time.Hour); err != nil {
		t.Fatalf("CleanupOldRecords failed: %v", err)
	}
	rec, err := GetSuccess("fresh")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Error("fresh record should survive cleanup")
	}
}

func TestCheckHealth(t *testing.T) {
	setup(t)
	if err := CheckHealth(); err != nil {
		t.Errorf("CheckHealth failed on a healthy store: %v", err)
	}
}

func TestCheckHealthUninitialized(t *testing.T) {
	Close()
	db = nil
	if err := CheckHealth(); err == nil {
		t.Error("expected an error when the store is not initialized")
	}
}
