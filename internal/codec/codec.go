// Package codec translates clipboard payloads between the form the OS hands
// out and the form the history store keeps.
//
// Text is stored as raw UTF-8 bytes and repaired lossily on the way out.
// Images arrive as raw RGBA pixel buffers (or as an already encoded
// container) and are always stored as PNG, so that two captures of the same
// picture produce byte-identical content.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/draw"

	// Containers accepted by DecodeImage besides PNG.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxDimension bounds width and height of raw buffers so that the byte-length
// check below cannot overflow.
const maxDimension = 1 << 15

// RawImage is an uncompressed, non-premultiplied RGBA pixel buffer, four bytes
// per pixel, rows packed without padding.
type RawImage struct {
	Width  int
	Height int
	Pix    []byte
}

// Valid reports whether the buffer length matches the declared dimensions.
func (r RawImage) Valid() bool {
	if r.Width <= 0 || r.Height <= 0 || r.Width > maxDimension || r.Height > maxDimension {
		return false
	}
	return len(r.Pix) == r.Width*r.Height*4
}

// EncodeText returns the bytes stored for a text capture.
func EncodeText(s string) []byte { return []byte(s) }

// DecodeText turns stored text bytes back into a string. Invalid UTF-8 is
// replaced with U+FFFD rather than rejected.
func DecodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// EncodeImage encodes a raw pixel buffer as PNG. A malformed buffer yields an
// empty, non-nil slice instead of an error.
func EncodeImage(raw RawImage) []byte {
	if !raw.Valid() {
		return []byte{}
	}
	img := &image.NRGBA{
		Pix:    raw.Pix,
		Stride: raw.Width * 4,
		Rect:   image.Rect(0, 0, raw.Width, raw.Height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return []byte{}
	}
	return buf.Bytes()
}

// FromImage flattens any image.Image into a RawImage.
func FromImage(img image.Image) RawImage {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return RawImage{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// DecodeImage decodes an encoded image (PNG, JPEG, GIF, BMP, TIFF or WebP)
// into a raw pixel buffer.
func DecodeImage(data []byte) (RawImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return RawImage{}, fmt.Errorf("decode image: %w", err)
	}
	return FromImage(img), nil
}

// NormalizeImage re-encodes an image delivered in any supported container as
// PNG. Undecodable input yields an empty slice.
func NormalizeImage(data []byte) []byte {
	raw, err := DecodeImage(data)
	if err != nil {
		return []byte{}
	}
	return EncodeImage(raw)
}

// Thumbnail scales a stored PNG so that neither side exceeds maxSide. Images
// already small enough are returned unchanged.
func Thumbnail(data []byte, maxSide int) ([]byte, error) {
	if maxSide <= 0 {
		return nil, fmt.Errorf("thumbnail: invalid size %d", maxSide)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return data, nil
	}
	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 renders stored image bytes as a transportable string.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 is the inverse of EncodeBase64.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return b, nil
}

// Fingerprint returns a stable digest of a payload, prefixed by its kind so
// that identical bytes in different formats never collide.
func Fingerprint(kind string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
