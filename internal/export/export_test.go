package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := range 30 {
		for x := range 40 {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	return img
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("out/board.PNG")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	f, err = FormatFromPath("board.pdf")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = FormatFromPath("board.gif")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, testImage()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "/Subtype /Image")
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPNG, testImage()))
	_, err := png.Decode(&buf)
	require.NoError(t, err)

	assert.ErrorIs(t, Write(&buf, Format("tiff"), testImage()), ErrUnknownFormat)
}

func TestWritePDF_EmptyImage(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WritePDF(&buf, image.NewRGBA(image.Rectangle{})))
}

func TestFile(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "board.png")
	require.NoError(t, File(pngPath, testImage()))
	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), decoded.Bounds())
	assert.Equal(t, color.RGBA{R: 60, G: 80, B: 128, A: 255}, color.RGBAModel.Convert(decoded.At(10, 10)))

	pdfPath := filepath.Join(dir, "board.pdf")
	require.NoError(t, File(pdfPath, testImage()))
	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	assert.ErrorIs(t, File(filepath.Join(dir, "board.bmp"), testImage()), ErrUnknownFormat)
}
