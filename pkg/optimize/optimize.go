// Package optimize downsizes an image collection in place under a new root.
package optimize

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/pprasanth/takeout-organizer-go/pkg/scan"
)

const (
	DefaultMaxWidth  = 2000
	DefaultMaxHeight = 2000
)

// Options configures an optimize run.
type Options struct {
	// MaxWidth and MaxHeight bound the output dimensions. Images already
	// inside the box are never upscaled.
	MaxWidth  int
	MaxHeight int

	DeleteOriginals bool

	Scan   scan.Options
	Logger *zap.Logger
}

// Run re-encodes every image under inputDir into outputDir, fitted to the
// configured bounding box at maximum quality, keeping the original
// filenames. Videos and sidecars are left alone.
func Run(inputDir, outputDir string, opts Options) error {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = DefaultMaxWidth
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = DefaultMaxHeight
	}
	if opts.Scan.ImageExtensions == nil && opts.Scan.VideoExtensions == nil {
		opts.Scan = scan.DefaultOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	images, err := scan.Images(inputDir, opts.Scan)
	if err != nil {
		return fmt.Errorf("scan images: %w", err)
	}

	for _, path := range images {
		img, err := imaging.Open(path)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}

		fitted := imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)

		dst := filepath.Join(outputDir, filepath.Base(path))
		if err := imaging.Save(fitted, dst, imaging.JPEGQuality(100)); err != nil {
			return fmt.Errorf("encode %s: %w", dst, err)
		}

		bounds := fitted.Bounds()
		logger.Info("optimized image",
			zap.String("source", path),
			zap.String("destination", dst),
			zap.Int("width", bounds.Dx()),
			zap.Int("height", bounds.Dy()),
		)

		if opts.DeleteOriginals {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %s: %w", path, err)
			}
		}
	}
	return nil
}
