package mapping

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemScanner walks a checked-out repository's working tree,
// skipping VCS metadata and common vendor/dependency directories. No
// VCS-aware file-listing library appears anywhere in the retrieval pack,
// so this walks the filesystem directly rather than shelling out to `git
// ls-files`.
type FilesystemScanner struct{}

var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, ".idea": true, "dist": true, "build": true,
}

func (FilesystemScanner) Scan(_ context.Context, repoPath string) ([]TrackedFile, error) {
	var files []TrackedFile
	err := filepath.WalkDir(repoPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(repoPath, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if !hasWhitelistedExt(rel, DefaultExtensionWhitelist) {
			return nil
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if strings.Contains(string(body[:minInt(len(body), 8000)]), "\x00") {
			return nil
		}
		files = append(files, TrackedFile{Path: rel, Body: string(body)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
