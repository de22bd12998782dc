// Package gallery turns user-selected paths into an ordered list of image
// references for a batch export.
package gallery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrPermission reports a source that exists but cannot be read.
	ErrPermission = errors.New("permission to access media denied")
	// ErrNoImages reports a selection with no supported images.
	ErrNoImages = errors.New("no supported images selected")
	// ErrBatchTooLarge reports a selection above the configured batch limit.
	ErrBatchTooLarge = errors.New("batch too large")
	// ErrUnsupportedFormat reports an explicitly selected file of an unsupported type.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Options controls which files are accepted.
type Options struct {
	// Supports reports whether a file extension is an accepted image format.
	Supports func(ext string) bool
	// MaxBatchSize caps the number of images; zero disables the cap.
	MaxBatchSize int
}

// Collect expands files and directories into absolute image paths. Files
// keep the order given; directory entries are added in name order and
// unsupported files inside directories are skipped.
func Collect(paths []string, opts Options) ([]string, error) {
	if opts.Supports == nil {
		return nil, errors.New("gallery: format filter is required")
	}

	seen := make(map[string]struct{}, len(paths))
	var images []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		images = append(images, path)
	}

	for _, raw := range paths {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		abs, err := filepath.Abs(raw)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", raw, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, accessError(abs, err)
		}

		if !info.IsDir() {
			if !opts.Supports(filepath.Ext(abs)) {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, abs)
			}
			if err := checkReadable(abs); err != nil {
				return nil, err
			}
			add(abs)
			continue
		}

		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, accessError(abs, err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if opts.Supports(filepath.Ext(entry.Name())) {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(abs, name)
			if err := checkReadable(path); err != nil {
				return nil, err
			}
			add(path)
		}
	}

	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if opts.MaxBatchSize > 0 && len(images) > opts.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d images selected, limit is %d", ErrBatchTooLarge, len(images), opts.MaxBatchSize)
	}
	return images, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return accessError(path, err)
	}
	return f.Close()
}

func accessError(path string, err error) error {
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %s", ErrPermission, path)
	}
	return fmt.Errorf("access %s: %w", path, err)
}
