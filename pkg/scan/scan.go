// Package scan lists the image and video assets under a directory tree.
package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Kind classifies an asset by its file extension.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

type Options struct {
	ImageExtensions []string
	VideoExtensions []string
}

func DefaultOptions() Options {
	return Options{
		ImageExtensions: []string{
			".png", ".jpg", ".jpeg", ".bmp", ".tiff",
		},
		VideoExtensions: []string{
			".mp4", ".mov", ".avi", ".mkv", ".3gp",
		},
	}
}

// Asset is a media file found during a walk.
type Asset struct {
	Path string
	Kind Kind
}

// Walk returns all media files under root, sorted by path.
// Extension matching is case-insensitive.
func Walk(root string, opts Options) ([]Asset, error) {
	imageExts := normalizeExts(opts.ImageExtensions)
	videoExts := normalizeExts(opts.VideoExtensions)

	var assets []Asset

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case imageExts[ext]:
			assets = append(assets, Asset{Path: path, Kind: KindImage})
		case videoExts[ext]:
			assets = append(assets, Asset{Path: path, Kind: KindVideo})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Path < assets[j].Path
	})
	return assets, nil
}

// Images returns the image paths under root, sorted.
func Images(root string, opts Options) ([]string, error) {
	return walkKind(root, opts, KindImage)
}

// Videos returns the video paths under root, sorted.
func Videos(root string, opts Options) ([]string, error) {
	return walkKind(root, opts, KindVideo)
}

func walkKind(root string, opts Options, kind Kind) ([]string, error) {
	assets, err := Walk(root, opts)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(assets))
	for _, a := range assets {
		if a.Kind == kind {
			paths = append(paths, a.Path)
		}
	}
	return paths, nil
}

func normalizeExts(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, ext := range exts {
		e := strings.TrimSpace(strings.ToLower(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = true
	}
	return m
}
