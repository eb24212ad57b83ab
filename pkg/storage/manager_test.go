package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.SavedCount() != 0 {
		t.Error("Expected initial saved count to be 0")
	}
	if manager.IsSaved("note1_0.jpg") {
		t.Error("Expected IsSaved to return false for non-existent file")
	}

	testData := []byte("test image data")
	if err := manager.Save(bytes.NewReader(testData), "note1_0.jpg"); err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "note1_0.jpg")
	content, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}
	if _, err := os.Stat(expectedPath + tempSuffix); !os.IsNotExist(err) {
		t.Error("Expected temporary file to be renamed away")
	}

	if !manager.IsSaved("note1_0.jpg") {
		t.Error("Expected IsSaved to return true for saved file")
	}
	if manager.SavedCount() != 1 {
		t.Errorf("Expected saved count to be 1, got %d", manager.SavedCount())
	}

	// files written by someone else are picked up on the next scan
	if err := os.WriteFile(filepath.Join(tempDir, "note2.mp4"), []byte("video"), 0644); err != nil {
		t.Fatalf("Failed to create manual file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "partial.jpg.tmp"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	manager2, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create second manager: %v", err)
	}
	if manager2.SavedCount() != 2 {
		t.Errorf("Expected saved count to be 2 after scanning, got %d", manager2.SavedCount())
	}
	if !manager2.IsSaved("note2.mp4") {
		t.Error("Expected scanned video to be reported as saved")
	}
}

func TestManagerOverwrite(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := manager.Save(strings.NewReader("v1"), "notes.json"); err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	manager.SetOverwrite(true)
	if manager.IsSaved("notes.json") {
		t.Error("Expected IsSaved to be false when overwriting")
	}
	if err := manager.Save(strings.NewReader("v2"), "notes.json"); err != nil {
		t.Fatalf("Failed to overwrite file: %v", err)
	}

	content, _ := os.ReadFile(manager.Path("notes.json"))
	if string(content) != "v2" {
		t.Errorf("Expected overwritten content, got %q", content)
	}
}

func TestManagerRejectsPaths(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	for _, name := range []string{"", "../escape.jpg", "sub/dir.jpg"} {
		if err := manager.Save(strings.NewReader("x"), name); err == nil {
			t.Errorf("Expected error saving %q", name)
		}
	}
}

func TestManagerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if manager.OutputDir() != dir {
		t.Errorf("Expected output dir %s, got %s", dir, manager.OutputDir())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Error("Expected output directory to be created")
	}
}
