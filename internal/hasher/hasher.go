// Package hasher produces short xxHash64 fingerprints used for backup file
// tokens and manifest entries.
package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"image"
	"image/draw"

	"github.com/cespare/xxhash/v2"
)

// ContentHash computes the xxHash64 of data and returns a hex string
// truncated to hexLen characters (0 keeps all 16).
func ContentHash(data []byte, hexLen int) string {
	return truncate(xxhash.Sum64(data), hexLen)
}

// PixelHash fingerprints the decoded pixels of img, independent of the
// file encoding. Rows are fed as 8-bit NRGBA.
func PixelHash(img image.Image, hexLen int) string {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	h := xxhash.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[:4], uint32(b.Dx()))
	binary.BigEndian.PutUint32(dims[4:], uint32(b.Dy()))
	_, _ = h.Write(dims[:])
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		off := y * nrgba.Stride
		_, _ = h.Write(nrgba.Pix[off : off+rowLen])
	}
	return truncate(h.Sum64(), hexLen)
}

func truncate(sum uint64, hexLen int) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], sum)
	full := hex.EncodeToString(buf[:])
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
