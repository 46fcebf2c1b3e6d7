// Package testutils holds filesystem helpers shared by the package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Chdir switches into dir for the duration of the test
func Chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// WriteFile writes content to path, creating parent directories
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// WriteFiles writes every path to content pair of files
func WriteFiles(t *testing.T, files map[string]string) {
	t.Helper()
	for path, content := range files {
		WriteFile(t, path, content)
	}
}

// ReadFile returns the content of path
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

// Project switches into a fresh temporary directory holding files and
// returns it. Paths in files are relative to the project.
func Project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	Chdir(t, dir)
	WriteFiles(t, files)
	return dir
}

// WaitForFile waits until path exists
func WaitForFile(t *testing.T, path string, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, timeout, 10*time.Millisecond, "file %s was not created within %v", path, timeout)
}

// WaitForFileChange waits until the modification time of path is after
// since
func WaitForFileChange(t *testing.T, path string, since time.Time, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		info, err := os.Stat(path)
		return err == nil && info.ModTime().After(since)
	}, timeout, 10*time.Millisecond, "file %s was not modified within %v", path, timeout)
}
