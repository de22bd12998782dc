// Package render lays source images onto an A4 canvas and captures the
// result as a PNG at print resolution.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"a4print/internal/logging"
	"a4print/internal/paper"
	"a4print/internal/services"
)

// Canvas owns the single render surface. Captures are serialized because
// the surface is reused between calls.
type Canvas struct {
	mu         sync.Mutex
	surface    *image.RGBA
	stagingDir string
	scaler     draw.Scaler
	logger     *slog.Logger
}

// NewCanvas returns a canvas writing captures into stagingDir.
func NewCanvas(stagingDir string, logger *slog.Logger) *Canvas {
	return &Canvas{
		stagingDir: stagingDir,
		scaler:     draw.CatmullRom,
		logger:     logging.NewComponentLogger(logger, "render"),
	}
}

// Capture draws imageRef centered on a white A4 page at dpi, scaled to fit
// while keeping its aspect ratio, and returns the path of the captured PNG.
func (c *Canvas) Capture(ctx context.Context, imageRef string, dpi int) (string, error) {
	src, format, err := decodeFile(imageRef)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrorKindTimeout, "render", "capture cancelled", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	width, height := paper.A4(dpi)
	surface := c.prepareSurface(width, height)
	target := FitRect(src.Bounds(), surface.Bounds())
	c.scaler.Scale(surface, target, src, src.Bounds(), draw.Over, nil)

	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrorKindTimeout, "render", "capture cancelled", err)
	}

	if err := os.MkdirAll(c.stagingDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrorKindIO, "render", "create staging directory", err)
	}
	base := strings.TrimSuffix(filepath.Base(imageRef), filepath.Ext(imageRef))
	output := filepath.Join(c.stagingDir, fmt.Sprintf("%s_a4_%s.png", base, uuid.NewString()[:8]))
	if err := writePNG(output, surface); err != nil {
		return "", err
	}

	logging.WithContext(ctx, c.logger).Debug("canvas captured",
		logging.String("source", imageRef),
		logging.String("format", format),
		logging.Int("width", width),
		logging.Int("height", height),
		logging.String("output", output),
	)
	return output, nil
}

func (c *Canvas) prepareSurface(width, height int) *image.RGBA {
	bounds := image.Rect(0, 0, width, height)
	if c.surface == nil || c.surface.Bounds() != bounds {
		c.surface = image.NewRGBA(bounds)
	}
	draw.Draw(c.surface, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	return c.surface
}

// FitRect returns the largest rectangle with src's aspect ratio that fits
// inside dst, centered.
func FitRect(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 {
		return image.Rectangle{}
	}

	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", services.Wrap(services.ErrorKindIO, "render", "open image", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", services.WithHint(
			services.Wrap(services.ErrorKindValidation, "render", fmt.Sprintf("decode %s", filepath.Base(path)), err),
			"supported formats are jpg, png, and webp",
		)
	}
	return img, format, nil
}

func writePNG(path string, img image.Image) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return services.Wrap(services.ErrorKindIO, "render", "create capture", err)
	}
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(f, img); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrorKindIO, "render", "encode capture", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrorKindIO, "render", "close capture", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrorKindIO, "render", "finalize capture", err)
	}
	return nil
}
