package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var ErrDecodeSnapshot = errors.New("render: cannot decode snapshot")

// DecodeSnapshot decodes the canvas image sent after a snapshot header.
// PNG is what servers send; JPEG, BMP and WebP are accepted as well.
func DecodeSnapshot(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrDecodeSnapshot)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeSnapshot, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecodeSnapshot, format)
	}
	return img, nil
}
