// Package export writes a board image to PNG or PDF.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var ErrUnknownFormat = errors.New("export: unknown format")

type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// pointsPerPixel maps screen pixels (96 dpi) to PDF points (72 dpi).
const pointsPerPixel = 72.0 / 96.0

const pdfImageName = "board"

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// File writes img to path in the format its extension names.
func File(path string, img image.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatPDF:
		pdf, err := newPDF(img)
		if err != nil {
			return err
		}
		return pdf.OutputFileAndClose(path)
	default:
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WritePNG(f, img); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
}

// Write encodes img to w in the given format.
func Write(w io.Writer, format Format, img image.Image) error {
	switch format {
	case FormatPNG:
		return WritePNG(w, img)
	case FormatPDF:
		return WritePDF(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WritePDF writes a single-page PDF whose page is exactly the image.
func WritePDF(w io.Writer, img image.Image) error {
	pdf, err := newPDF(img)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

func newPDF(img image.Image) (*gofpdf.Fpdf, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("export: empty image")
	}
	wd := float64(b.Dx()) * pointsPerPixel
	ht := float64(b.Dy()) * pointsPerPixel

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: wd, Ht: ht},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Drawboard", true)
	pdf.SetCreator("drawboard", true)
	pdf.AddPage()

	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		return nil, err
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(pdfImageName, opts, &buf)
	pdf.ImageOptions(pdfImageName, 0, 0, wd, ht, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	return pdf, nil
}
