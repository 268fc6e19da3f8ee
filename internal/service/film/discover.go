package film

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/animus-labs/flowreel/internal/domain"
)

const clipExtension = ".mp4"

// DiscoverClips walks dir recursively and returns every .mp4 file, matched
// case-insensitively, sorted lexically.
func DiscoverClips(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), clipExtension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// exportedClips discovers clips per exported folder, flattened in export order.
func exportedClips(exported []domain.ExportedRun) ([]string, error) {
	var all []string
	for _, run := range exported {
		files, err := DiscoverClips(run.Path)
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}
	return all, nil
}
