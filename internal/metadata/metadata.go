// Package metadata extracts the few EXIF fields the pipeline cares about.
package metadata

import (
	"image"
	"io"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// DNG crop tags; their values are in pixels of the stored image.
const (
	tagDefaultCropOrigin = 0xc61f
	tagDefaultCropSize   = 0xc620
)

// Info is the subset of metadata the pipeline uses.
type Info struct {
	Make     string
	Model    string
	DateTime string
	// CropRect is empty unless the file stores a crop.
	CropRect image.Rectangle
}

// Read scans rs for EXIF data. Files without EXIF yield a zero Info.
func Read(rs io.ReadSeeker) (Info, error) {
	var info Info

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return info, err
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if isNoExif(err) {
			return info, nil
		}
		return info, err
	}

	var origin, size []float64
	for _, tag := range tags {
		switch {
		case tag.TagId == tagDefaultCropOrigin:
			origin = numbers(tag.Value)
		case tag.TagId == tagDefaultCropSize:
			size = numbers(tag.Value)
		case tag.TagName == "Make":
			info.Make = strings.TrimSpace(tag.FormattedFirst)
		case tag.TagName == "Model":
			info.Model = strings.TrimSpace(tag.FormattedFirst)
		case tag.TagName == "DateTimeOriginal" || (tag.TagName == "DateTime" && info.DateTime == ""):
			info.DateTime = strings.TrimSpace(tag.FormattedFirst)
		}
	}

	if len(origin) == 2 && len(size) == 2 && size[0] > 0 && size[1] > 0 {
		x, y := int(origin[0]), int(origin[1])
		info.CropRect = image.Rect(x, y, x+int(size[0]), y+int(size[1]))
	}
	return info, nil
}

// Camera returns "Make Model" without repeating a make the model already carries.
func (i Info) Camera() string {
	switch {
	case i.Model == "":
		return i.Make
	case i.Make == "" || strings.HasPrefix(i.Model, i.Make):
		return i.Model
	default:
		return i.Make + " " + i.Model
	}
}

func numbers(v any) []float64 {
	var out []float64
	switch vals := v.(type) {
	case []uint16:
		for _, n := range vals {
			out = append(out, float64(n))
		}
	case []uint32:
		for _, n := range vals {
			out = append(out, float64(n))
		}
	case []exifcommon.Rational:
		for _, r := range vals {
			if r.Denominator == 0 {
				return nil
			}
			out = append(out, float64(r.Numerator)/float64(r.Denominator))
		}
	}
	return out
}

func isNoExif(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
