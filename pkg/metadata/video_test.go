package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeScript creates an executable shell script standing in for ffprobe or
// ffmpeg.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

// writeRemuxer fakes ffmpeg: it writes marker content to its last argument,
// the output file.
func writeRemuxer(t *testing.T, dir string) string {
	return writeScript(t, dir, "ffmpeg", `for arg in "$@"; do out="$arg"; done
printf remuxed > "$out"`)
}

func TestCreationTime(t *testing.T) {
	tmp := t.TempDir()
	probe := writeScript(t, tmp, "ffprobe", `echo "2023-11-15T03:43:20.000000Z"`)

	c := &VideoCodec{FFprobe: probe}
	got := c.CreationTime("whatever.mp4")
	if got != "2023-11-15T03:43:20.000000Z" {
		t.Fatalf("CreationTime() = %q", got)
	}
}

func TestCreationTime_ProbeFailureReturnsEmpty(t *testing.T) {
	tmp := t.TempDir()
	probe := writeScript(t, tmp, "ffprobe", `echo "boom" >&2
exit 1`)

	c := &VideoCodec{FFprobe: probe}
	if got := c.CreationTime("whatever.mp4"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestEmbed_MP4KeepsIdentity(t *testing.T) {
	tmp := t.TempDir()
	video := filepath.Join(tmp, "clip.mp4")
	if err := os.WriteFile(video, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &VideoCodec{FFmpeg: writeRemuxer(t, tmp)}
	taken := time.Date(2023, 11, 15, 3, 43, 20, 0, time.FixedZone("UTC+05:30", 19800))

	remux, err := c.Embed(video, taken)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if remux.Path != video || remux.Converted {
		t.Fatalf("unexpected remux result: %+v", remux)
	}

	got, err := os.ReadFile(video)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "remuxed" {
		t.Fatalf("original was not replaced: %q", got)
	}
	if _, err := os.Stat(filepath.Join(tmp, "clip_temp.mp4")); !os.IsNotExist(err) {
		t.Fatalf("temp file was left behind")
	}
}

func TestEmbed_ConvertsNonMP4(t *testing.T) {
	tmp := t.TempDir()
	video := filepath.Join(tmp, "clip.mov")
	if err := os.WriteFile(video, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &VideoCodec{FFmpeg: writeRemuxer(t, tmp)}

	remux, err := c.Embed(video, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if remux.Path != filepath.Join(tmp, "clip.mp4") || !remux.Converted {
		t.Fatalf("unexpected remux result: %+v", remux)
	}

	if _, err := os.Stat(video); err != nil {
		t.Fatalf("original source should remain until cleanup: %v", err)
	}
	got, err := os.ReadFile(remux.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "remuxed" {
		t.Fatalf("unexpected converted content: %q", got)
	}
}

func TestEmbed_PassesOffsetClockWithZSuffix(t *testing.T) {
	tmp := t.TempDir()
	argsFile := filepath.Join(tmp, "args.txt")
	ffmpeg := writeScript(t, tmp, "ffmpeg", fmt.Sprintf(`printf '%%s\n' "$@" > %q
for arg in "$@"; do out="$arg"; done
: > "$out"`, argsFile))

	video := filepath.Join(tmp, "clip.mp4")
	if err := os.WriteFile(video, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &VideoCodec{FFmpeg: ffmpeg}
	taken := time.Date(2023, 11, 15, 3, 43, 20, 0, time.FixedZone("UTC+05:30", 19800))

	if _, err := c.Embed(video, taken); err != nil {
		t.Fatalf("Embed: %v", err)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	// The value renders the capture-zone offset and then appends a Z.
	if !strings.Contains(string(args), "creation_time=2023-11-15T03:43:20+05:30Z") {
		t.Fatalf("unexpected ffmpeg arguments:\n%s", args)
	}
	if !strings.Contains(string(args), "copy") {
		t.Fatalf("expected stream copy for mp4 input:\n%s", args)
	}
}

func TestEmbed_FailurePropagates(t *testing.T) {
	tmp := t.TempDir()
	ffmpeg := writeScript(t, tmp, "ffmpeg", `echo "cannot remux" >&2
exit 1`)

	video := filepath.Join(tmp, "clip.mp4")
	if err := os.WriteFile(video, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &VideoCodec{FFmpeg: ffmpeg}
	if _, err := c.Embed(video, time.Unix(1700000000, 0)); err == nil {
		t.Fatalf("expected error, got nil")
	}

	got, err := os.ReadFile(video)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "original" {
		t.Fatalf("source was modified on failure: %q", got)
	}
}
