package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"a4print/internal/services"
)

// Writer creates PDF pages with fpdf. Page dimensions are given in pixels
// and mapped one to one onto PDF points.
type Writer struct{}

// NewWriter returns a Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// CreatePage writes a one-page PDF of width x height with imageRef drawn at
// the origin filling the page. The file is written atomically.
func (w *Writer) CreatePage(ctx context.Context, imageRef string, width, height int, outputPath string) (string, error) {
	if width <= 0 || height <= 0 {
		return "", services.Wrap(services.ErrorKindValidation, "pdf", fmt.Sprintf("invalid page size %dx%d", width, height), nil)
	}
	imageType, err := imageTypeFor(imageRef)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrorKindTimeout, "pdf", "write cancelled", err)
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: float64(width), Ht: float64(height)},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("a4print", true)
	doc.AddPage()
	doc.ImageOptions(imageRef, 0, 0, float64(width), float64(height), false,
		fpdf.ImageOptions{ImageType: imageType}, 0, "")
	if err := doc.Error(); err != nil {
		return "", services.Wrap(services.ErrorKindValidation, "pdf", "embed image", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", services.Wrap(services.ErrorKindIO, "pdf", "create export directory", err)
	}
	tmp := outputPath + ".tmp"
	if err := doc.OutputFileAndClose(tmp); err != nil {
		_ = os.Remove(tmp)
		return "", services.Wrap(services.ErrorKindIO, "pdf", "write file", err)
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		_ = os.Remove(tmp)
		return "", services.Wrap(services.ErrorKindIO, "pdf", "finalize file", err)
	}
	return outputPath, nil
}

func imageTypeFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG", nil
	case ".jpg", ".jpeg":
		return "JPG", nil
	default:
		return "", services.Wrap(services.ErrorKindValidation, "pdf",
			fmt.Sprintf("unsupported page image %s", filepath.Base(path)), nil)
	}
}
