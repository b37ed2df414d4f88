package job

import (
	"path/filepath"
	"testing"

	"reelserve/credentials"
	"reelserve/models"
)

func TestBuildPlanDefaultsToDirectServe(t *testing.T) {
	claims := &models.ReelserveJWT{Job: models.JobSpec{}}
	plan, err := BuildPlan(claims)
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	if len(plan.Writers) != 1 || plan.Writers[0].Type != "directServe" {
		t.Errorf("tokens without destinations should default to direct hosting, got %+v", plan.Writers)
	}
}

func TestBuildPlanRejectsUnknownBackend(t *testing.T) {
	claims := &models.ReelserveJWT{Job: models.JobSpec{
		StorageKeys: map[string]string{"ftp": "whatever"},
	}}
	if _, err := BuildPlan(claims); err == nil {
		t.Error("expected an error for an unknown backend name")
	}
}

func TestBuildPlanResolvesRegisteredKey(t *testing.T) {
	if err := credentials.OpenDB(filepath.Join(t.TempDir(), "creds.db")); err != nil {
		t.Fatalf("failed to open credentials store: %v", err)
	}
	defer credentials.CloseDB()

	creds := map[string]string{
		"accessKey": "AKIA...",
		"secretKey": "secret",
		"region":    "us-east-1",
		"bucket":    "tenant-vod",
	}
	if err := credentials.StoreCredentials("key123", creds); err != nil {
		t.Fatalf("failed to store credentials: %v", err)
	}

	claims := &models.ReelserveJWT{Job: models.JobSpec{
		StorageKeys: map[string]string{"s3": "key123"},
	}}
	plan, err := BuildPlan(claims)
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	if len(plan.Writers) != 1 || plan.Writers[0].Type != "s3" {
		t.Fatalf("expected one s3 writer, got %+v", plan.Writers)
	}
	if plan.Writers[0].Credentials["bucket"] != "tenant-vod" {
		t.Errorf("credentials not resolved: %+v", plan.Writers[0].Credentials)
	}
}

func TestBuildPlanRejectsSFTPWithoutRemoteDir(t *testing.T) {
	if err := credentials.OpenDB(filepath.Join(t.TempDir(), "creds.db")); err != nil {
		t.Fatalf("failed to open credentials store: %v", err)
	}
	defer credentials.CloseDB()

	// No remoteDir: publishing would write every artifact to one file.
	creds := map[string]string{
		"host":     "media.example.com",
		"user":     "vod",
		"password": "hunter2",
	}
	if err := credentials.StoreCredentials("sftpkey", creds); err != nil {
		t.Fatal(err)
	}

	claims := &models.ReelserveJWT{Job: models.JobSpec{
		StorageKeys: map[string]string{"sftp": "sftpkey"},
	}}
	if _, err := BuildPlan(claims); err == nil {
		t.Error("expected an error for sftp credentials without remoteDir")
	}

	creds["remoteDir"] = "/upload/video"
	if err := credentials.StoreCredentials("sftpkey", creds); err != nil {
		t.Fatal(err)
	}
	plan, err := BuildPlan(claims)
	if err != nil {
		t.Fatalf("BuildPlan failed with remoteDir set: %v", err)
	}
	if len(plan.Writers) != 1 || plan.Writers[0].Type != "sftp" {
		t.Errorf("expected one sftp writer, got %+v", plan.Writers)
	}
}

func TestBuildPlanRejectsUnregisteredKey(t *testing.T) {
	if err := credentials.OpenDB(filepath.Join(t.TempDir(), "creds.db")); err != nil {
		t.Fatalf("failed to open credentials store: %v", err)
	}
	defer credentials.CloseDB()

	claims := &models.ReelserveJWT{Job: models.JobSpec{
		StorageKeys: map[string]string{"s3": "never-registered"},
	}}
	if _, err := BuildPlan(claims); err == nil {
		t.Error("expected an error for an unregistered storage key")
	}
}
