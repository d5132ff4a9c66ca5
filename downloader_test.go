package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckDataFiles(t *testing.T) {
	tmpDir := t.TempDir()

	missing := CheckDataFiles(tmpDir)
	if len(missing) != 2 {
		t.Fatalf("Expected both files missing, got %v", missing)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, mliDataFile), []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	missing = CheckDataFiles(tmpDir)
	if len(missing) != 1 || missing[0] != divergenceFile {
		t.Errorf("Expected only %s missing, got %v", divergenceFile, missing)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, divergenceFile), []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if missing = CheckDataFiles(tmpDir); len(missing) != 0 {
		t.Errorf("Expected no missing files, got %v", missing)
	}
}

func TestDownloadDataFiles(t *testing.T) {
	payloads := map[string]string{
		"/" + mliDataFile:    `{"years": [2023]}`,
		"/" + divergenceFile: `{"headlines": []}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := payloads[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	defer server.Close()

	tmpDir := t.TempDir()

	if err := DownloadDataFiles(tmpDir, server.URL, RequiredDataFiles); err != nil {
		t.Fatalf("DownloadDataFiles failed: %v", err)
	}

	for _, name := range RequiredDataFiles {
		data, err := os.ReadFile(filepath.Join(tmpDir, name))
		if err != nil {
			t.Fatalf("Expected %s on disk: %v", name, err)
		}
		if string(data) != payloads["/"+name] {
			t.Errorf("File %s: expected %q, got %q", name, payloads["/"+name], string(data))
		}
	}
}

func TestDownloadDataFilesBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	tmpDir := t.TempDir()

	if err := DownloadDataFiles(tmpDir, server.URL, []string{mliDataFile}); err == nil {
		t.Fatal("Expected error for failing download, got nil")
	}

	// A failed download must not leave a partial file behind.
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty data dir after failure, got %v", entries)
	}
}

func TestDownloadDataFilesTrimsTrailingSlash(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	if err := DownloadDataFiles(t.TempDir(), server.URL+"/", []string{mliDataFile}); err != nil {
		t.Fatalf("DownloadDataFiles failed: %v", err)
	}
	if requestedPath != "/"+mliDataFile {
		t.Errorf("Expected request path /%s, got %s", mliDataFile, requestedPath)
	}
}
