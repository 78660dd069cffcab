package staging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Manager stages a run's output files under <base>/.staging/<date> and
// moves them into <base>/<date> only once the whole run succeeded.
type Manager struct {
	baseDir     string
	stagingRoot string
}

// WriteFunc produces the content of one staged file.
type WriteFunc func(w io.Writer) error

func NewManager(baseDir string) *Manager {
	return &Manager{
		baseDir:     baseDir,
		stagingRoot: filepath.Join(baseDir, ".staging"),
	}
}

func (m *Manager) FinalDir(date string) string {
	return filepath.Join(m.baseDir, date)
}

func (m *Manager) StagingDir(date string) string {
	return filepath.Join(m.stagingRoot, date)
}

func (m *Manager) PrepareStaging(date string) error {
	return os.MkdirAll(m.StagingDir(date), 0750)
}

// WriteToStaging writes relPath inside the date's staging directory through
// a temp file and rename, so a partially written file is never visible.
func (m *Manager) WriteToStaging(date, relPath string, write WriteFunc) (int64, error) {
	destPath := filepath.Join(m.StagingDir(date), relPath)
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return 0, fmt.Errorf("creating directories: %w", err)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	cw := &countingWriter{w: f}
	err = write(cw)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("writing %s: %w", relPath, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}

	return cw.n, nil
}

// WriteJSON stages v as indented JSON.
func (m *Manager) WriteJSON(date, relPath string, v any) (int64, error) {
	return m.WriteToStaging(date, relPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// CommitStaging moves every staged file for date into the final directory,
// replacing files of the same name.
func (m *Manager) CommitStaging(date string) error {
	stagingDir := m.StagingDir(date)
	finalDir := m.FinalDir(date)

	return filepath.Walk(stagingDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(finalDir, relPath)
		if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
			return err
		}

		return os.Rename(path, destPath)
	})
}

func (m *Manager) CleanupStaging(date string) error {
	return os.RemoveAll(m.StagingDir(date))
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
