package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer keeps titles usable as a single path element
var fileNameReplacer = strings.NewReplacer(
	"/", "\\",
	"\x00", "",
)

// SanitizeFileName turns an episode or show title into a file name.
// Slashes become backslashes so the title stays one path element.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	name = fileNameReplacer.Replace(name)
	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}

// Exists reports whether path exists; any stat error other than not-exist counts as present
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// RemoveIfExists deletes path and ignores a missing file
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ClearFolder removes every entry inside folderPath
func ClearFolder(folderPath string) error {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		entryPath := filepath.Join(folderPath, entry.Name())

		// Remove file or directory (including its contents if it's a directory)
		err = os.RemoveAll(entryPath)
		if err != nil {
			return err
		}
	}

	return nil
}

// WriteFileIfMissing writes content to path unless the file is already there.
// It reports whether the file was written.
func WriteFileIfMissing(path, content string) (bool, error) {
	if Exists(path) {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, err
	}
	return true, nil
}
