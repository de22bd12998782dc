package render_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"a4print/internal/render"
	"a4print/internal/services"
	"a4print/internal/testsupport"
)

func TestFitRect(t *testing.T) {
	page := image.Rect(0, 0, 100, 200)
	tests := []struct {
		name string
		src  image.Rectangle
		want image.Rectangle
	}{
		{"wide image", image.Rect(0, 0, 200, 100), image.Rect(0, 75, 100, 125)},
		{"tall image", image.Rect(0, 0, 50, 400), image.Rect(37, 0, 62, 200)},
		{"same ratio", image.Rect(0, 0, 10, 20), image.Rect(0, 0, 100, 200)},
		{"empty", image.Rectangle{}, image.Rectangle{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := render.FitRect(tc.src, page); got != tc.want {
				t.Fatalf("FitRect = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCaptureProducesA4PNG(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(testsupport.BaseDir(cfg), "wide.jpg")
	testsupport.WriteImage(t, source, 40, 20)

	canvas := render.NewCanvas(cfg.Paths.StagingDir, nil)
	out, err := canvas.Capture(context.Background(), source, 150)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open capture: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode capture: %v", err)
	}
	if img.Bounds().Dx() != 1241 || img.Bounds().Dy() != 1754 {
		t.Fatalf("unexpected capture size %v", img.Bounds())
	}

	corner := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	if corner != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Fatalf("expected white margin, got %v", corner)
	}
	center := color.RGBAModel.Convert(img.At(620, 877)).(color.RGBA)
	if center.R == 0xff && center.G == 0xff && center.B == 0xff {
		t.Fatal("expected image content at page center")
	}
}

func TestCaptureRejectsUndecodableFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(testsupport.BaseDir(cfg), "broken.png")
	testsupport.WriteFile(t, source, 64)

	_, err := render.NewCanvas(cfg.Paths.StagingDir, nil).Capture(context.Background(), source, 150)
	if services.Details(err).Kind != services.ErrorKindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCaptureHonoursCancellation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(testsupport.BaseDir(cfg), "scan.png")
	testsupport.WriteImage(t, source, 4, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := render.NewCanvas(cfg.Paths.StagingDir, nil).Capture(ctx, source, 150); err == nil {
		t.Fatal("expected cancelled capture to fail")
	}
}
