package sidecar

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCandidate_ShortNameKeepsFullSuffix(t *testing.T) {
	r := Resolver{}

	got := r.Candidate(filepath.Join("export", "photo.jpg"))
	want := filepath.Join("export", "photo.jpg.supplemental-metadata.json")
	if got != want {
		t.Fatalf("Candidate() = %q, want %q", got, want)
	}
}

func TestCandidate_LongNameIsTruncated(t *testing.T) {
	r := Resolver{}

	// 29-character asset name; combined with the suffix it exceeds the
	// 46-character cap, so the candidate must use the truncated form.
	name := "PXL_20230101_123456789.MP.jpg"
	got := r.Candidate(filepath.Join("export", name))
	want := filepath.Join("export", "PXL_20230101_123456789.MP.jpg.supplemental-met.json")
	if got != want {
		t.Fatalf("Candidate() = %q, want %q", got, want)
	}
}

func TestCandidate_ConfigurableLength(t *testing.T) {
	r := Resolver{MaxBaseLen: 10}

	got := r.Candidate("photo.jpg")
	if got != "photo.jpg."+".json" {
		t.Fatalf("Candidate() = %q", got)
	}
}

func TestLocate(t *testing.T) {
	tmp := t.TempDir()
	asset := filepath.Join(tmp, "photo.jpg")

	r := Resolver{}

	if _, ok := r.Locate(asset); ok {
		t.Fatalf("expected no sidecar before it is written")
	}

	scPath := filepath.Join(tmp, "photo.jpg.supplemental-metadata.json")
	if err := os.WriteFile(scPath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok := r.Locate(asset)
	if !ok {
		t.Fatalf("expected sidecar to be found")
	}
	if got != scPath {
		t.Fatalf("Locate() = %q, want %q", got, scPath)
	}
}

func TestLoad(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "photo.jpg.supplemental-metadata.json")

	content := `{
		"title": "photo.jpg",
		"photoTakenTime": {"timestamp": "1700000000"},
		"geoData": {"latitude": 12.9716, "longitude": 77.5946}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Title != "photo.jpg" {
		t.Errorf("Title = %q", m.Title)
	}
	if m.PhotoTakenTime.Timestamp != "1700000000" {
		t.Errorf("Timestamp = %q", m.PhotoTakenTime.Timestamp)
	}

	lat, lon, ok := m.Geo()
	if !ok || lat != 12.9716 || lon != 77.5946 {
		t.Errorf("Geo() = %v, %v, %v", lat, lon, ok)
	}
}

func TestLoad_MalformedJSONFails(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestTakenTime_ConvertsToCaptureZone(t *testing.T) {
	var m Metadata
	m.PhotoTakenTime.Timestamp = "1700000000"

	got, ok := m.TakenTime(nil)
	if !ok {
		t.Fatalf("expected a capture time")
	}

	// 1700000000 is 2023-11-14T22:13:20Z, which is 2023-11-15 03:43:20
	// at UTC+05:30.
	want := time.Date(2023, 11, 15, 3, 43, 20, 0, DefaultCaptureZone)
	if !got.Equal(want) {
		t.Fatalf("TakenTime() = %v, want %v", got, want)
	}
	if got.Format("2006:01:02 15:04:05") != "2023:11:15 03:43:20" {
		t.Fatalf("unexpected wall clock: %v", got)
	}
}

func TestTakenTime_MissingOrInvalid(t *testing.T) {
	tests := []struct {
		name      string
		timestamp string
	}{
		{name: "missing", timestamp: ""},
		{name: "not a number", timestamp: "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Metadata
			m.PhotoTakenTime.Timestamp = tt.timestamp

			if _, ok := m.TakenTime(nil); ok {
				t.Fatalf("expected ok=false")
			}
		})
	}
}

func TestGeo_ZeroMeansAbsent(t *testing.T) {
	var m Metadata

	if _, _, ok := m.Geo(); ok {
		t.Fatalf("expected (0,0) to be treated as absent")
	}

	m.GeoData.Latitude = 0
	m.GeoData.Longitude = 77.5946
	if _, _, ok := m.Geo(); !ok {
		t.Fatalf("expected single zero coordinate to still count")
	}
}
