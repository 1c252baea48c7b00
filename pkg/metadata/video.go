package metadata

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// VideoTimeLayout is the clock portion of a container creation_time value.
const VideoTimeLayout = "2006-01-02T15:04:05"

// embedTimeLayout renders the capture zone's offset, which the emitted
// creation_time value carries in addition to its literal Z suffix.
const embedTimeLayout = "2006-01-02T15:04:05-07:00"

// VideoCodec drives the external ffprobe/ffmpeg binaries to read and write
// container-level creation times. The zero value uses the binaries from
// PATH; tests point the fields at stand-ins.
type VideoCodec struct {
	FFprobe string
	FFmpeg  string
	Logger  *zap.Logger
}

// Remux is the outcome of embedding a creation time into a video. Path is
// the asset's identity afterwards; Converted reports that the container
// format changed to MP4 and Path is an intermediate file beside the source.
type Remux struct {
	Path      string
	Converted bool
}

// CreationTime returns the creation_time format tag of a video, or "" when
// the probe fails or the tag is absent. Probe failures are logged, never
// raised.
func (c *VideoCodec) CreationTime(path string) string {
	cmd := exec.Command(c.probeBin(),
		"-v", "error",
		"-show_entries", "format_tags=creation_time",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.log().Warn("probing creation time failed",
			zap.String("path", path),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err),
		)
		return ""
	}
	return strings.TrimSpace(stdout.String())
}

// Embed stream-copies the video into a temporary file while injecting a
// creation_time tag, then takes over the asset's identity with the result.
// The tag value is taken's wall clock with its zone offset rendered and a
// literal Z appended on top. Non-MP4 containers are converted to MP4 and the
// returned identity carries the new extension.
func (c *VideoCodec) Embed(path string, taken time.Time) (Remux, error) {
	creation := taken.Format(embedTimeLayout) + "Z"

	ext := filepath.Ext(path)
	temp := strings.TrimSuffix(path, ext) + "_temp.mp4"
	isMP4 := strings.EqualFold(ext, ".mp4")

	args := []string{
		"-y",
		"-i", path,
		"-map_metadata", "0",
		"-metadata", "creation_time=" + creation,
		"-movflags", "use_metadata_tags",
	}
	if isMP4 {
		args = append(args, "-c", "copy")
	}
	args = append(args, temp)

	cmd := exec.Command(c.encodeBin(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(temp)
		return Remux{}, fmt.Errorf("remux %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	target := path
	converted := false
	if !isMP4 {
		target = strings.TrimSuffix(path, ext) + ".mp4"
		converted = true
	}
	if err := os.Rename(temp, target); err != nil {
		return Remux{}, fmt.Errorf("replace %s: %w", target, err)
	}
	return Remux{Path: target, Converted: converted}, nil
}

func (c *VideoCodec) probeBin() string {
	if c.FFprobe != "" {
		return c.FFprobe
	}
	return "ffprobe"
}

func (c *VideoCodec) encodeBin() string {
	if c.FFmpeg != "" {
		return c.FFmpeg
	}
	return "ffmpeg"
}

func (c *VideoCodec) log() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}
