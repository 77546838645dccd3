package connectors

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DatasetFile is a dataset discovered on disk.
type DatasetFile struct {
	Path     string
	Size     int64
	Modified time.Time
}

type DiscoveryOptions struct {
	Recursive  bool
	Extensions []string // defaults to csv and xlsx
	MinSize    int64
	MaxSize    int64
	// Exclude skips files whose base name matches any of these globs.
	Exclude []string
}

var defaultExtensions = []string{"csv", "xlsx"}

// DiscoverDatasets walks root and returns dataset files in lexical order.
func DiscoverDatasets(root string, options DiscoveryOptions) ([]DatasetFile, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}

	stat, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", root)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", root, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	exts := options.Extensions
	if len(exts) == 0 {
		exts = defaultExtensions
	}
	wanted := make(map[string]bool, len(exts))
	for _, e := range exts {
		wanted["."+strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	var files []DatasetFile
	walkFunc := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if d.IsDir() {
			if path != root && !options.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !wanted[strings.ToLower(filepath.Ext(path))] || excluded(d.Name(), options.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("error getting file info for %s: %w", path, err)
		}
		if options.MinSize > 0 && info.Size() < options.MinSize {
			return nil
		}
		if options.MaxSize > 0 && info.Size() > options.MaxSize {
			return nil
		}

		files = append(files, DatasetFile{
			Path:     path,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
		return nil
	}

	if err := filepath.WalkDir(root, walkFunc); err != nil {
		return nil, fmt.Errorf("directory walk error: %w", err)
	}
	return files, nil
}

func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}
