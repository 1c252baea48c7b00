// Package metadata reads and writes the embedded capture metadata of image
// and video assets.
package metadata

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	pngstructure "github.com/dsoprea/go-png-image-structure/v2"
	"github.com/natefinch/atomic"
	goexif "github.com/rwcarlsen/goexif/exif"
)

// ExifTimeLayout is the EXIF DateTime string form.
const ExifTimeLayout = "2006:01:02 15:04:05"

// ImageCreationTime returns the embedded DateTime tag of an image, verbatim
// and without timezone interpretation. Images without readable metadata or
// without the tag yield "". JPEG and TIFF streams are decoded directly;
// PNGs carry their block in an eXIf chunk.
func ImageCreationTime(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return pngCreationTime(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if err != nil {
		return "", nil
	}
	return dateTimeTag(x), nil
}

func pngCreationTime(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}

	intfc, err := pngstructure.NewPngMediaParser().ParseFile(path)
	if err != nil {
		return "", nil
	}
	_, rawExif, err := intfc.(*pngstructure.ChunkSlice).Exif()
	if err != nil {
		return "", nil
	}

	x, err := goexif.Decode(bytes.NewReader(rawExif))
	if err != nil {
		return "", nil
	}
	return dateTimeTag(x), nil
}

func dateTimeTag(x *goexif.Exif) string {
	tag, err := x.Get(goexif.DateTime)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}

// ImagePatch is the metadata recovered from a sidecar, to be embedded into
// an image's EXIF block.
type ImagePatch struct {
	// DateTime in ExifTimeLayout form. Written to DateTimeOriginal,
	// DateTimeDigitized and the root DateTime tag.
	DateTime string

	// Description is written to ImageDescription when non-empty.
	Description string

	HasGPS    bool
	Latitude  float64
	Longitude float64
}

// WriteImage embeds a patch into the image at path, replacing the file
// atomically. JPEG and PNG containers are supported; other formats report an
// error without touching the file. A corrupt or missing EXIF block is
// tolerated by starting from an empty one; any error leaves the original
// file untouched.
func WriteImage(path string, patch ImagePatch) error {
	container, serialize, err := parseImage(path)
	if err != nil {
		return err
	}

	rootIb, err := container.ConstructExifBuilder()
	if err != nil {
		rootIb, err = newExifBuilder()
		if err != nil {
			return err
		}
	}

	rootIfdIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD")
	if err != nil {
		return fmt.Errorf("root ifd: %w", err)
	}
	if err := rootIfdIb.SetStandardWithName("DateTime", patch.DateTime); err != nil {
		return fmt.Errorf("set DateTime: %w", err)
	}
	if patch.Description != "" {
		if err := rootIfdIb.SetStandardWithName("ImageDescription", patch.Description); err != nil {
			return fmt.Errorf("set ImageDescription: %w", err)
		}
	}

	exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/Exif")
	if err != nil {
		return fmt.Errorf("exif ifd: %w", err)
	}
	if err := exifIb.SetStandardWithName("DateTimeOriginal", patch.DateTime); err != nil {
		return fmt.Errorf("set DateTimeOriginal: %w", err)
	}
	if err := exifIb.SetStandardWithName("DateTimeDigitized", patch.DateTime); err != nil {
		return fmt.Errorf("set DateTimeDigitized: %w", err)
	}

	if patch.HasGPS {
		if err := setGPS(rootIb, patch.Latitude, patch.Longitude); err != nil {
			return err
		}
	}

	if err := container.SetExif(rootIb); err != nil {
		return fmt.Errorf("encode exif: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := serialize(buf); err != nil {
		return fmt.Errorf("rebuild image: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("write image %s: %w", path, err)
	}
	return nil
}

// exifContainer is the segment-model surface the per-format parsers share.
type exifContainer interface {
	ConstructExifBuilder() (*exif.IfdBuilder, error)
	SetExif(ib *exif.IfdBuilder) error
}

// parseImage picks the parser for the container format by extension and
// returns the parsed segment model together with its serializer.
func parseImage(path string) (exifContainer, func(io.Writer) error, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jpg", ".jpeg":
		intfc, err := jpegstructure.NewJpegMediaParser().ParseFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("parse image %s: %w", path, err)
		}
		sl := intfc.(*jpegstructure.SegmentList)
		return sl, sl.Write, nil
	case ".png":
		intfc, err := pngstructure.NewPngMediaParser().ParseFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("parse image %s: %w", path, err)
		}
		cs := intfc.(*pngstructure.ChunkSlice)
		return cs, cs.WriteTo, nil
	default:
		return nil, nil, fmt.Errorf("embedding metadata in %s images is not supported", ext)
	}
}

func setGPS(rootIb *exif.IfdBuilder, lat, lon float64) error {
	gpsIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/GPSInfo")
	if err != nil {
		return fmt.Errorf("gps ifd: %w", err)
	}

	latRef, lonRef := "N", "E"
	if lat < 0 {
		latRef = "S"
		lat = -lat
	}
	if lon < 0 {
		lonRef = "W"
		lon = -lon
	}

	if err := gpsIb.SetStandardWithName("GPSLatitudeRef", latRef); err != nil {
		return fmt.Errorf("set GPSLatitudeRef: %w", err)
	}
	if err := gpsIb.SetStandardWithName("GPSLatitude", DegreesToRationals(lat)); err != nil {
		return fmt.Errorf("set GPSLatitude: %w", err)
	}
	if err := gpsIb.SetStandardWithName("GPSLongitudeRef", lonRef); err != nil {
		return fmt.Errorf("set GPSLongitudeRef: %w", err)
	}
	if err := gpsIb.SetStandardWithName("GPSLongitude", DegreesToRationals(lon)); err != nil {
		return fmt.Errorf("set GPSLongitude: %w", err)
	}
	return nil
}

// DegreesToRationals converts a non-negative decimal-degree coordinate to
// the EXIF degrees/minutes/seconds rational triple, with seconds scaled by
// 100 for 1/100-arcsecond precision.
func DegreesToRationals(v float64) []exifcommon.Rational {
	deg := int(v)
	min := int((v - float64(deg)) * 60)
	sec := int((v - float64(deg) - float64(min)/60) * 3600 * 100)

	return []exifcommon.Rational{
		{Numerator: uint32(deg), Denominator: 1},
		{Numerator: uint32(min), Denominator: 1},
		{Numerator: uint32(sec), Denominator: 100},
	}
}

func newExifBuilder() (*exif.IfdBuilder, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("ifd mapping: %w", err)
	}
	ti := exif.NewTagIndex()

	return exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder), nil
}
