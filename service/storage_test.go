package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/AnTengye/jobtracker/config"
)

func TestLocalFileStore(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore failed: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "1_cv.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rc, err := store.Open(ctx, "1_cv.pdf")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "%PDF-1.4" {
		t.Errorf("Unexpected content %q", data)
	}

	if err := store.Delete(ctx, "1_cv.pdf"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Open(ctx, "1_cv.pdf"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "1_cv.pdf"); err != nil {
		t.Errorf("Deleting a missing file should succeed, got %v", err)
	}
}

func TestLocalFileStoreRejectsTraversal(t *testing.T) {
	store, _ := NewLocalFileStore(t.TempDir())

	for _, name := range []string{"../etc/passwd", "a/b.pdf", ".hidden", ""} {
		if _, err := store.Open(context.Background(), name); !errors.Is(err, ErrFileNotFound) {
			t.Errorf("Open(%q) expected ErrFileNotFound, got %v", name, err)
		}
	}
}

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"resume.pdf", "resume.pdf"},
		{"my resume.pdf", "my_resume.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\cv.pdf`, "cv.pdf"},
		{"résumé.pdf", "rsum.pdf"},
		{"..pdf", "pdf"},
	}

	for _, tt := range tests {
		if got := SecureFilename(tt.in); got != tt.want {
			t.Errorf("SecureFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCVObjectName(t *testing.T) {
	now := time.Unix(1700000000, 0)

	if got := CVObjectName(7, "my cv.pdf", now); got != "7_1700000000_my_cv.pdf" {
		t.Errorf("Unexpected object name %q", got)
	}

	got := CVObjectName(7, "..pdf", now)
	if !strings.HasPrefix(got, "7_1700000000_") || !strings.HasSuffix(got, ".pdf") || len(got) < 40 {
		t.Errorf("Expected uuid fallback name, got %q", got)
	}
}

func TestNewMinioFileStore(t *testing.T) {
	cfg := &config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "cvs",
	}

	store, err := NewMinioFileStore(cfg)
	if err != nil {
		t.Fatalf("NewMinioFileStore failed: %v", err)
	}
	if store.bucket != "cvs" {
		t.Errorf("Expected bucket cvs, got %s", store.bucket)
	}
}

func TestMinioFileStoreObjectURL(t *testing.T) {
	tests := []struct {
		name     string
		useSSL   bool
		endpoint string
		expected string
	}{
		{"http url", false, "localhost:9000", "http://localhost:9000/cvs/1_1_cv.pdf"},
		{"https url", true, "minio.example.com", "https://minio.example.com/cvs/1_1_cv.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MinioFileStore{
				bucket: "cvs",
				config: &config.MinioConfig{Endpoint: tt.endpoint, UseSSL: tt.useSSL},
			}
			if got := store.ObjectURL("1_1_cv.pdf"); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}
