package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tempSuffix = ".tmp"

// Manager writes crawl output and media files into one directory and
// remembers which files already exist
type Manager struct {
	outputDir string
	saved     map[string]bool
	overwrite bool
	mu        sync.RWMutex
}

// NewManager creates the output directory if needed and indexes its files
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	m := &Manager{
		outputDir: outputDir,
		saved:     make(map[string]bool),
	}
	if err := m.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}
	return m, nil
}

// SetOverwrite makes IsSaved report false so existing files are replaced
func (m *Manager) SetOverwrite(overwrite bool) {
	m.mu.Lock()
	m.overwrite = overwrite
	m.mu.Unlock()
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, tempSuffix) {
			continue
		}
		m.saved[name] = true
	}
	return nil
}

// IsSaved reports whether a file with the given name is already in the output directory
func (m *Manager) IsSaved(name string) bool {
	m.mu.RLock()
	overwrite, known := m.overwrite, m.saved[name]
	m.mu.RUnlock()

	if overwrite {
		return false
	}
	if known {
		return true
	}

	if _, err := os.Stat(m.Path(name)); err == nil {
		m.mu.Lock()
		m.saved[name] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// Save writes r to name through a temporary file and an atomic rename
func (m *Manager) Save(r io.Reader, name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid file name %q", name)
	}
	filename := m.Path(name)
	tempFile := filename + tempSuffix

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[name] = true
	m.mu.Unlock()
	return nil
}

// Path returns the full path of name inside the output directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of files known to be in the output directory
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
