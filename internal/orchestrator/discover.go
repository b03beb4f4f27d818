package orchestrator

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// recognizedExtensions are the file suffixes the orchestrator will hand
// to the Row Source. Anything else under the data root is ignored.
var recognizedExtensions = map[string]bool{
	".xlsx": true, ".xlsm": true, ".xlsb": true,
	".xls": true, ".csv": true, ".tsv": true,
}

// Folder is one leaf directory's worth of discovered work: its path
// parts relative to the data root (the canonical table-name source) and
// the recognized files within it, in sorted name order.
type Folder struct {
	PathParts []string
	Files     []string
}

// Discover walks dataRoot recursively and groups every recognized
// spreadsheet file by its immediate parent directory. The returned
// folders are sorted by their relative path, and each folder's files
// are sorted by name — the orchestrator's deterministic processing
// order.
func Discover(dataRoot string) ([]Folder, error) {
	grouped := make(map[string][]string)

	err := filepath.WalkDir(dataRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !recognizedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(dataRoot, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		dir := filepath.Dir(rel)
		if dir == "." {
			// A file directly under the data root has no leaf folder to
			// derive a table name from; it is skipped rather than guessed.
			return nil
		}

		grouped[dir] = append(grouped[dir], path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk data root %s: %w", dataRoot, err)
	}

	dirs := make([]string, 0, len(grouped))
	for dir := range grouped {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	folders := make([]Folder, 0, len(dirs))
	for _, dir := range dirs {
		files := grouped[dir]
		sort.Strings(files)
		folders = append(folders, Folder{
			PathParts: strings.Split(dir, string(filepath.Separator)),
			Files:     files,
		})
	}

	return folders, nil
}
