// =============================================================================
// dailyworker - File Manager Utility
// =============================================================================
//
// This module provides the file handling shared by the worker store and the
// declaration exporter:
//   - Directory management
//   - Home directory expansion for configured paths
//   - Atomic file replacement (write to a temp file, then rename)
//   - Export file naming, never reusing an existing file
//
// WRITE STRATEGY:
//   - Content is written to a temp file in the destination directory
//   - The temp file is synced and closed
//   - The temp file is renamed over the destination
//   - On any failure the temp file is removed and the destination is untouched
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempPattern is the pattern used for in-flight temp files. Directory scans
// skip files ending in ".tmp".
const TempPattern = ".write-*.tmp"

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all given directories if they don't exist.
//
// RETURNS:
//   - An error if any directory cannot be created.
func EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory and
// expands environment variables.
func ExpandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return os.ExpandEnv(path), nil
}

// IsTempFile reports whether name looks like an in-flight temp file created
// by WriteFileAtomic.
func IsTempFile(name string) bool {
	return strings.HasSuffix(name, ".tmp")
}

// =============================================================================
// ATOMIC WRITE
// =============================================================================

// WriteFileAtomic replaces path with data. The content is written to a temp
// file in the same directory and renamed over path, so readers see either the
// old or the new content in full.
//
// PARAMETERS:
//   - path: The destination file.
//   - data: The full new content.
//   - perm: The permission bits of the resulting file.
//
// RETURNS:
//   - An error if any step fails. The destination is untouched in that case.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tempFile, err := os.CreateTemp(dir, TempPattern)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	successful := false
	defer func() {
		if !successful {
			os.Remove(tempFile.Name())
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempFile.Name(), perm); err != nil {
		return fmt.Errorf("setting permissions on temp file: %w", err)
	}

	if err := os.Rename(tempFile.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	successful = true
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an export file name for the current time.
// See GenerateOutputFileNameAt.
func GenerateOutputFileName(format string, params map[string]string) string {
	return GenerateOutputFileNameAt(format, params, time.Now())
}

// GenerateOutputFileNameAt generates an export file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Date (YYYYMMDD)
//     {time}      - Time (HHMMSS)
//   - params: Additional placeholder values, keyed without braces.
//   - now: The time used for the time-based placeholders.
//
// EXAMPLE:
//
//	format: "bejelentes_{timestamp}.xml"
//	output: "bejelentes_20240115_143022.xml"
func GenerateOutputFileNameAt(format string, params map[string]string, now time.Time) string {
	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	if strings.Contains(result, "{uuid}") {
		result = strings.ReplaceAll(result, "{uuid}", uuid.New().String())
	}
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Ensure .xml extension.
	if !strings.HasSuffix(strings.ToLower(result), ".xml") {
		result += ".xml"
	}

	return result
}

// maxNameAttempts bounds the suffixes tried by AvailablePath.
const maxNameAttempts = 1000

// AvailablePath returns path if nothing exists there yet. Otherwise it
// inserts _2, _3, ... before the extension until the name is free.
//
// EXAMPLE:
//
//	path:   "out/20240115_143022.xml" (exists)
//	output: "out/20240115_143022_2.xml"
func AvailablePath(path string) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	candidate := path
	for i := 2; i <= maxNameAttempts+1; i++ {
		_, err := os.Lstat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
	return "", fmt.Errorf("no free file name for %s", path)
}
