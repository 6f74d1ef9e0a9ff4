package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Page geometry of the PDF wrapper, in millimetres on A4 portrait.
const (
	pdfMargin     = 10
	pdfImageWidth = 190
)

// RenderToPDF wraps an encoded JPEG certificate in a single-page PDF. The
// image is placed at the page margin and scaled to a fixed width; its
// height follows from the aspect ratio.
func RenderToPDF(jpegData []byte) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("certificate", opt, bytes.NewReader(jpegData))
	pdf.ImageOptions("certificate", pdfMargin, pdfMargin, pdfImageWidth, 0, false, opt, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
