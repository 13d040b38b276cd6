package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDownload(t *testing.T) {
	payload := []byte("RIFF....WAVEfmt fake audio bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	client := NewClient(Config{Timeout: 5 * time.Second})
	dest := filepath.Join(t.TempDir(), "input.mp3")

	if err := client.Download(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("Download() unexpected error: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("downloaded %d bytes, want exact copy of %d bytes", len(got), len(payload))
	}
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Config{Timeout: 5 * time.Second})
	dest := filepath.Join(t.TempDir(), "input.mp3")

	if err := client.Download(context.Background(), srv.URL, dest); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("no file should be created for a failed download")
	}
}

func TestDownloadTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1024")
		w.Write([]byte("short"))
	}))
	defer srv.Close()

	client := NewClient(Config{Timeout: 5 * time.Second})
	dest := filepath.Join(t.TempDir(), "input.mp3")

	if err := client.Download(context.Background(), srv.URL, dest); err == nil {
		t.Fatal("expected error for truncated body")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("partial file should be removed after a failed transfer")
	}
}

func TestDownloadContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	client := NewClient(Config{Timeout: 10 * time.Second})
	dest := filepath.Join(t.TempDir(), "input.mp3")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := client.Download(ctx, srv.URL, dest); err == nil {
		t.Fatal("expected error when context deadline passes")
	}
}
