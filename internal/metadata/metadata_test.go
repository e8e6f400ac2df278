package metadata

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWithoutExif(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 2, 2))))

	info, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, info.CropRect.Empty())
	assert.Empty(t, info.Camera())
}

func TestCamera(t *testing.T) {
	assert.Equal(t, "Canon EOS 5D", Info{Make: "Canon", Model: "Canon EOS 5D"}.Camera())
	assert.Equal(t, "NIKON D750", Info{Make: "NIKON", Model: "D750"}.Camera())
	assert.Equal(t, "Fuji", Info{Make: "Fuji"}.Camera())
}

func TestNumbers(t *testing.T) {
	assert.Equal(t, []float64{4, 8}, numbers([]uint16{4, 8}))
	assert.Equal(t, []float64{1.5}, numbers([]exifcommon.Rational{{Numerator: 3, Denominator: 2}}))
	assert.Nil(t, numbers([]exifcommon.Rational{{Numerator: 3}}))
	assert.Nil(t, numbers("text"))
}
