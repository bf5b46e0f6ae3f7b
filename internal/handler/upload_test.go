package handler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func TestPersistUploadSuccess(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`{"test":"data"}`)
	resp := PersistUpload("/upload", body, dir)
	if resp.Status != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.Status, resp.Body)
	}
	var envelope struct {
		Status   string `json:"status"`
		Filepath string `json:"filepath"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("expected status success, got %q", envelope.Status)
	}
	filename := filepath.Base(envelope.Filepath)
	written, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("read persisted upload: %v", err)
	}
	if string(written) != string(body) {
		t.Fatalf("persisted bytes mismatch: got %q want %q", written, body)
	}
}

func TestPersistUploadWrongTarget(t *testing.T) {
	resp := PersistUpload("/other", []byte(`{}`), t.TempDir())
	if resp.Status != 404 {
		t.Fatalf("expected 404 for non-/upload target, got %d", resp.Status)
	}
}

func TestPersistUploadInvalidJSON(t *testing.T) {
	resp := PersistUpload("/upload", []byte(`{not json`), t.TempDir())
	if resp.Status != 400 {
		t.Fatalf("expected 400 for invalid JSON, got %d", resp.Status)
	}
}

func TestPersistUploadConcurrentWritesDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	const n = 20
	var wg sync.WaitGroup
	names := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := PersistUpload("/upload", []byte(`{"i":`+strconv.Itoa(i)+`}`), dir)
			if resp.Status != 201 {
				t.Errorf("worker %d: expected 201, got %d", i, resp.Status)
				return
			}
			var envelope struct {
				Filepath string `json:"filepath"`
			}
			if err := json.Unmarshal(resp.Body, &envelope); err != nil {
				t.Errorf("worker %d: unmarshal: %v", i, err)
				return
			}
			names <- filepath.Base(envelope.Filepath)
		}(i)
	}
	wg.Wait()
	close(names)

	seen := make(map[string]bool)
	for name := range names {
		if seen[name] {
			t.Fatalf("duplicate upload filename %q", name)
		}
		seen[name] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct uploads, got %d", n, len(seen))
	}
}
