// Package sidecar locates and reads the supplemental metadata files that a
// takeout export writes next to each asset.
package sidecar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DefaultSuffix is the token the export tool appends to the asset
	// filename when naming its description file.
	DefaultSuffix = ".supplemental-metadata"

	// DefaultMaxBaseLen is the character count the export tool truncates
	// the combined name to, before adding the .json extension.
	DefaultMaxBaseLen = 46
)

// DefaultCaptureZone is the zone capture timestamps are normalized to.
var DefaultCaptureZone = time.FixedZone("UTC+05:30", 5*60*60+30*60)

// Metadata mirrors the sidecar JSON schema.
type Metadata struct {
	Title          string `json:"title"`
	PhotoTakenTime struct {
		Timestamp string `json:"timestamp"`
	} `json:"photoTakenTime"`
	GeoData struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"geoData"`
}

// Resolver computes sidecar paths by filename convention.
//
// Zero values fall back to the export tool's defaults, so Resolver{} is
// ready to use.
type Resolver struct {
	Suffix     string
	MaxBaseLen int
}

// Candidate returns the sidecar path the naming convention predicts for an
// asset, whether or not it exists.
func (r Resolver) Candidate(assetPath string) string {
	suffix := r.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	maxLen := r.MaxBaseLen
	if maxLen <= 0 {
		maxLen = DefaultMaxBaseLen
	}

	base := filepath.Base(assetPath) + suffix
	if runes := []rune(base); len(runes) > maxLen {
		base = string(runes[:maxLen])
	}
	return filepath.Join(filepath.Dir(assetPath), base+".json")
}

// Locate returns the sidecar path for an asset if the file exists on disk.
// The existence check is the only validation.
func (r Resolver) Locate(assetPath string) (string, bool) {
	candidate := r.Candidate(assetPath)
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return "", false
	}
	return candidate, true
}

// Load reads and parses a sidecar file.
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidecar: %w", err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse sidecar %s: %w", path, err)
	}
	return &m, nil
}

// TakenTime returns the capture timestamp converted to loc, or ok=false when
// the sidecar carries no usable photoTakenTime.
func (m *Metadata) TakenTime(loc *time.Location) (time.Time, bool) {
	if m.PhotoTakenTime.Timestamp == "" {
		return time.Time{}, false
	}
	epoch, err := strconv.ParseInt(m.PhotoTakenTime.Timestamp, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = DefaultCaptureZone
	}
	return time.Unix(epoch, 0).In(loc), true
}

// Geo returns the sidecar coordinates. A (0,0) pair means no location was
// recorded and reports ok=false.
func (m *Metadata) Geo() (lat, lon float64, ok bool) {
	lat = m.GeoData.Latitude
	lon = m.GeoData.Longitude
	if lat == 0 && lon == 0 {
		return 0, 0, false
	}
	return lat, lon, true
}
