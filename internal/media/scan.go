// Package media enumerates, decodes and describes slideshow source files.
package media

import (
	"io/fs"
	"math/rand"
	"path/filepath"
	"strings"
)

// imageExtensions are file extensions treated as slideshow images.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".webp"}

// IsImageFile checks if a file path has an image extension.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ScanFolders walks the given folders recursively and returns every image
// file found. Missing folders and unreadable entries are skipped.
func ScanFolders(folders []string) []string {
	var paths []string
	for _, folder := range folders {
		filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if IsImageFile(path) {
				paths = append(paths, path)
			}
			return nil
		})
	}
	return paths
}

// Shuffle randomizes the order of paths in place.
func Shuffle(paths []string) {
	rand.Shuffle(len(paths), func(i, j int) {
		paths[i], paths[j] = paths[j], paths[i]
	})
}
