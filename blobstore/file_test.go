package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func uploadTemp(t *testing.T, store BlobStore, container, blob, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	ok, err := store.Upload(context.Background(), container, blob, path)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("upload of %s/%s reported false", container, blob)
	}
}

func TestFileBlobStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileBlobStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	uploadTemp(t, store, "incoming", "a.csv", "hello")

	// A fresh instance over the same baseDir sees the same blob.
	reopened, err := NewFileBlobStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	exists, err := reopened.Exists(ctx, "incoming", "a.csv")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("expected a.csv to exist in a fresh FileBlobStore over the same baseDir")
	}

	out := filepath.Join(t.TempDir(), "out")
	ok, err := reopened.Download(ctx, "incoming", "a.csv", out)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Download reported false for an existing blob")
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("downloaded content = %q, want %q", got, "hello")
	}
}

func TestFileBlobStore_UploadDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	uploadTemp(t, store, "incoming", "a.csv", "first")

	path := filepath.Join(t.TempDir(), "second")
	if err := os.WriteFile(path, []byte("second"), 0644); err != nil {
		t.Fatal(err)
	}
	ok, err := store.Upload(ctx, "incoming", "a.csv", path)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected Upload to report false for an existing blob")
	}
}

func TestFileBlobStore_LeaseAcquireExpireRelease(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileBlobStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	uploadTemp(t, store, "admin", "job.lock", "x")

	lease, err := store.LeaseBlob(ctx, "admin", "job.lock", 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if lease == nil {
		t.Fatal("expected a lease on an unleased, existing blob")
	}

	// A second acquire against a fresh instance over the same baseDir, while
	// the first lease is still live, is denied.
	reopened, err := NewFileBlobStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := reopened.LeaseBlob(ctx, "admin", "job.lock", 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if second != nil {
		t.Fatal("expected no lease while another owner holds it")
	}

	// After it expires, a new owner can acquire it without an explicit release.
	time.Sleep(30 * time.Millisecond)
	third, err := reopened.LeaseBlob(ctx, "admin", "job.lock", 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if third == nil {
		t.Fatal("expected the expired lease to become acquirable")
	}

	if err := third.Release(ctx); err != nil {
		t.Fatal(err)
	}
	// Release is idempotent.
	if err := third.Release(ctx); err != nil {
		t.Fatal(err)
	}

	fourth, err := store.LeaseBlob(ctx, "admin", "job.lock", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if fourth == nil {
		t.Fatal("expected the released lease to be acquirable again")
	}
}

func TestFileBlobStore_LeaseBlobMissingReturnsNoLease(t *testing.T) {
	store, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	lease, err := store.LeaseBlob(context.Background(), "admin", "missing.lock", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if lease != nil {
		t.Fatal("expected no lease for a blob that does not exist")
	}
}

func TestFileBlobStore_CleanUp(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	uploadTemp(t, store, "archive", "2022-01-01.csv", "a")
	uploadTemp(t, store, "archive", "2022-02-01.csv", "b")
	uploadTemp(t, store, "archive", "2022-03-01.csv", "c")

	deleted, err := store.CleanUp(ctx, "archive", "archive/2022-03-01.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(deleted) != 2 {
		t.Fatalf("deleted = %v, want 2 entries", deleted)
	}

	for _, blob := range []string{"2022-01-01.csv", "2022-02-01.csv"} {
		exists, err := store.Exists(ctx, "archive", blob)
		if err != nil {
			t.Fatal(err)
		}
		if exists {
			t.Errorf("%s should have been cleaned up", blob)
		}
	}
	exists, err := store.Exists(ctx, "archive", "2022-03-01.csv")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("2022-03-01.csv should not have been cleaned up")
	}
}
