// Package organize drives the per-asset pipeline: resolve sidecar, backfill
// embedded metadata, extract the final capture timestamp, and copy the asset
// to a flat, date-named destination.
package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pprasanth/takeout-organizer-go/pkg/copy"
	"github.com/pprasanth/takeout-organizer-go/pkg/metadata"
	"github.com/pprasanth/takeout-organizer-go/pkg/scan"
	"github.com/pprasanth/takeout-organizer-go/pkg/sidecar"
)

// Sentinel timestamps used when no capture time can be recovered.
const (
	SentinelImageTime = "1900:01:01 00:00:00"
	SentinelVideoTime = "1900-01-01T00:00:00.000000Z"
)

// Options configures an organize run. The zero value organizes with the
// default extension lists, sidecar convention and capture zone, keeps
// originals, and logs nowhere.
type Options struct {
	DeleteOriginals bool

	// CaptureZone is the zone sidecar timestamps are normalized to.
	// Defaults to sidecar.DefaultCaptureZone (UTC+05:30).
	CaptureZone *time.Location

	Scan     scan.Options
	Resolver sidecar.Resolver
	Video    *metadata.VideoCodec
	Logger   *zap.Logger
}

type Organizer struct {
	opts   Options
	video  *metadata.VideoCodec
	logger *zap.Logger
}

func New(opts Options) *Organizer {
	if opts.CaptureZone == nil {
		opts.CaptureZone = sidecar.DefaultCaptureZone
	}
	if opts.Scan.ImageExtensions == nil && opts.Scan.VideoExtensions == nil {
		opts.Scan = scan.DefaultOptions()
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	video := opts.Video
	if video == nil {
		video = &metadata.VideoCodec{Logger: logger}
	}

	return &Organizer{opts: opts, video: video, logger: logger}
}

// Run processes every image, then every video, under inputDir. Each asset
// fully completes before the next begins; fatal per-asset errors abort the
// whole run.
func (o *Organizer) Run(inputDir, outputDir string) error {
	images, err := scan.Images(inputDir, o.opts.Scan)
	if err != nil {
		return fmt.Errorf("scan images: %w", err)
	}
	for _, path := range images {
		if err := o.processImage(path, outputDir); err != nil {
			return err
		}
	}

	videos, err := scan.Videos(inputDir, o.opts.Scan)
	if err != nil {
		return fmt.Errorf("scan videos: %w", err)
	}
	for _, path := range videos {
		if err := o.processVideo(path, outputDir); err != nil {
			return err
		}
	}
	return nil
}

func (o *Organizer) processImage(path, outputDir string) error {
	scPath, hasSidecar := o.opts.Resolver.Locate(path)
	var meta *sidecar.Metadata
	if hasSidecar {
		m, err := sidecar.Load(scPath)
		if err != nil {
			return err
		}
		meta = m
		o.backfillImage(path, meta)
	}

	ts, err := metadata.ImageCreationTime(path)
	if err != nil {
		return err
	}
	if ts == "" && meta != nil {
		// Containers the backfill cannot rewrite still take their capture
		// time from the sidecar.
		if taken, ok := meta.TakenTime(o.opts.CaptureZone); ok {
			ts = taken.Format(metadata.ExifTimeLayout)
		}
	}
	if ts == "" {
		ts = SentinelImageTime
	}

	dst := filepath.Join(outputDir, imageOutputName(ts, filepath.Base(path)))
	if err := copy.File(path, dst, copy.Options{Overwrite: true}); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	o.logger.Info("organized image",
		zap.String("source", path),
		zap.String("destination", dst),
	)

	if o.opts.DeleteOriginals {
		o.removeIfExists(path)
		if hasSidecar {
			o.removeIfExists(scPath)
		}
	}
	return nil
}

func (o *Organizer) backfillImage(path string, meta *sidecar.Metadata) {
	taken, ok := meta.TakenTime(o.opts.CaptureZone)
	if !ok {
		o.logger.Info("sidecar has no capture time", zap.String("path", path))
		return
	}

	patch := metadata.ImagePatch{
		DateTime:    taken.Format(metadata.ExifTimeLayout),
		Description: meta.Title,
	}
	if lat, lon, ok := meta.Geo(); ok {
		patch.HasGPS = true
		patch.Latitude = lat
		patch.Longitude = lon
	}

	if err := metadata.WriteImage(path, patch); err != nil {
		o.logger.Warn("embedding image metadata failed",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

func (o *Organizer) processVideo(path, outputDir string) error {
	scPath, hasSidecar := o.opts.Resolver.Locate(path)

	// The asset's identity may change below when a non-MP4 container is
	// converted; current always names the file downstream steps act on.
	current := path
	converted := false
	if hasSidecar {
		meta, err := sidecar.Load(scPath)
		if err != nil {
			return err
		}
		if taken, ok := meta.TakenTime(o.opts.CaptureZone); ok {
			remux, err := o.video.Embed(path, taken)
			if err != nil {
				return err
			}
			current = remux.Path
			converted = remux.Converted
		} else {
			o.logger.Info("sidecar has no capture time", zap.String("path", path))
		}
	}

	ts := o.video.CreationTime(current)
	if ts == "" {
		ts = SentinelVideoTime
	}

	dst := filepath.Join(outputDir, videoOutputName(ts, filepath.Base(current)))
	if err := copy.File(current, dst, copy.Options{Overwrite: true}); err != nil {
		return fmt.Errorf("copy %s: %w", current, err)
	}
	if converted {
		// The converted MP4 was only an intermediate beside the source.
		o.removeIfExists(current)
	}

	o.retime(dst, ts)
	o.logger.Info("organized video",
		zap.String("source", path),
		zap.String("destination", dst),
	)

	if o.opts.DeleteOriginals {
		o.removeIfExists(path)
		if hasSidecar {
			o.removeIfExists(scPath)
		}
	}
	return nil
}

// retime resets the destination's access and modification time to the
// capture timestamp; the copy preserved the source's mtime, which for a
// freshly re-muxed video is meaningless.
func (o *Organizer) retime(dst, ts string) {
	clock := ts
	if len(clock) > 19 {
		clock = clock[:19]
	}

	t, err := time.Parse(metadata.VideoTimeLayout, clock)
	if err != nil {
		o.logger.Warn("cannot parse creation time for retiming",
			zap.String("path", dst),
			zap.String("value", ts),
		)
		return
	}
	if err := os.Chtimes(dst, t, t); err != nil {
		o.logger.Warn("resetting destination times failed",
			zap.String("path", dst),
			zap.Error(err),
		)
	}
}

func (o *Organizer) removeIfExists(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("removing file failed", zap.String("path", path), zap.Error(err))
	}
}

// imageOutputName derives the destination filename for an image from its
// EXIF timestamp: "YYYY:MM:DD HH:MM:SS" becomes "YYYY-MM-DD_HH-MM-SS".
func imageOutputName(ts, filename string) string {
	date := strings.NewReplacer(":", "-", " ", "_").Replace(ts)
	return date + "-" + filename
}

// videoOutputName derives the destination filename for a video from its
// ISO-8601 creation time, clipped to second precision.
func videoOutputName(ts, filename string) string {
	date := strings.NewReplacer(":", "-", "T", "_").Replace(ts)
	if len(date) > 19 {
		date = date[:19]
	}
	return date + "-" + filename
}
