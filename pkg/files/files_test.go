package files

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jkovarik/dispecink-backend/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	root := t.TempDir()
	store, err := NewStore(config.Files{
		StagingDir: filepath.Join(root, "staging"),
		PersistDir: filepath.Join(root, "persist"),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func multipartHeader(t *testing.T, fieldName, fileName, content string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File[fieldName][0]
}

func TestStagePersistRead(t *testing.T) {
	store := newTestStore(t)

	upload, err := store.Stage(multipartHeader(t, "file", "photo.jpg", "payload"))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if upload.DisplayName != "photo.jpg" {
		t.Fatalf("unexpected display name %q", upload.DisplayName)
	}
	if upload.Filename == "" || upload.Filename == "photo.jpg" {
		t.Fatalf("expected generated storage name, got %q", upload.Filename)
	}

	if err := store.Persist("course", "42", []*Upload{upload}); err != nil {
		t.Fatalf("persist: %v", err)
	}

	got, err := store.Read("course", "42", upload.Filename, upload.DisplayName)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestDiscardStaged(t *testing.T) {
	store := newTestStore(t)

	upload, err := store.Stage(multipartHeader(t, "file", "doc.pdf", "x"))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	store.DiscardStaged([]*Upload{upload})

	if _, err := os.Stat(filepath.Join(store.stagingDir, upload.Filename)); !os.IsNotExist(err) {
		t.Fatalf("staged file should be gone, stat err: %v", err)
	}
}

func TestRemoveGroupToleratesAbsence(t *testing.T) {
	store := newTestStore(t)

	if err := store.RemoveGroup("course", "999"); err != nil {
		t.Fatalf("removing an absent group must succeed, got %v", err)
	}

	upload, err := store.Stage(multipartHeader(t, "file", "a.txt", "x"))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := store.Persist("course", "7", []*Upload{upload}); err != nil {
		t.Fatalf("persist: %v", err)
	}

	if err := store.RemoveGroup("course", "7"); err != nil {
		t.Fatalf("remove group: %v", err)
	}
	if _, err := store.Read("course", "7", upload.Filename, upload.DisplayName); err == nil {
		t.Fatalf("expected read after removal to fail")
	}
}
