package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"a4print/internal/logging"
	"a4print/internal/paper"
	"a4print/internal/services"
)

// Enhancer refines a source image and returns a reference to the result.
type Enhancer interface {
	Enhance(ctx context.Context, imageRef string) (string, error)
}

// Renderer captures an image onto an A4 canvas at the given DPI.
type Renderer interface {
	Capture(ctx context.Context, imageRef string, dpi int) (string, error)
}

// PageWriter writes a single PDF page of width x height holding the image.
type PageWriter interface {
	CreatePage(ctx context.Context, imageRef string, width, height int, outputPath string) (string, error)
}

// OutputNamer picks the path for the next PDF file.
type OutputNamer interface {
	NextPath() (string, error)
}

// Options wires the stage collaborators.
type Options struct {
	Enhancer    Enhancer
	Renderer    Renderer
	Writer      PageWriter
	Namer       OutputNamer
	StepTimeout time.Duration
	Logger      *slog.Logger
}

// Stage runs the export steps for one item at a time.
type Stage struct {
	enhancer    Enhancer
	renderer    Renderer
	writer      PageWriter
	namer       OutputNamer
	stepTimeout time.Duration
	logger      *slog.Logger
}

// New validates the collaborators and returns a Stage.
func New(opts Options) (*Stage, error) {
	if opts.Enhancer == nil || opts.Renderer == nil || opts.Writer == nil || opts.Namer == nil {
		return nil, errors.New("pipeline: enhancer, renderer, writer, and namer are required")
	}
	return &Stage{
		enhancer:    opts.Enhancer,
		renderer:    opts.Renderer,
		writer:      opts.Writer,
		namer:       opts.Namer,
		stepTimeout: opts.StepTimeout,
		logger:      logging.NewComponentLogger(opts.Logger, "pipeline"),
	}, nil
}

// Export runs sourceRef through the pipeline and returns the PDF path.
func (s *Stage) Export(ctx context.Context, sourceRef string, autoEnhance bool, dpi int) (string, error) {
	if dpi <= 0 {
		dpi = paper.DefaultDPI
	}
	width, height := paper.A4(dpi)
	started := time.Now()

	imageRef := sourceRef
	if autoEnhance {
		enhanced, err := s.runStep(ctx, StepEnhance, sourceRef, func(stepCtx context.Context) (string, error) {
			return s.enhancer.Enhance(stepCtx, sourceRef)
		})
		if err != nil {
			return "", err
		}
		imageRef = enhanced
	}

	rendered, err := s.runStep(ctx, StepRender, sourceRef, func(stepCtx context.Context) (string, error) {
		return s.renderer.Capture(stepCtx, imageRef, dpi)
	})
	if err != nil {
		return "", err
	}

	output, err := s.runStep(ctx, StepPDF, sourceRef, func(stepCtx context.Context) (string, error) {
		path, err := s.namer.NextPath()
		if err != nil {
			return "", fmt.Errorf("choose output path: %w", err)
		}
		return s.writer.CreatePage(stepCtx, rendered, width, height, path)
	})
	if err != nil {
		return "", err
	}

	logging.WithContext(ctx, s.logger).Debug(
		"item exported",
		logging.String("source", sourceRef),
		logging.String("output", output),
		logging.Int("dpi", dpi),
		logging.Duration("elapsed", time.Since(started)),
	)
	return output, nil
}

func (s *Stage) runStep(ctx context.Context, step Step, sourceRef string, fn func(context.Context) (string, error)) (string, error) {
	stepCtx := services.WithStage(ctx, string(step))
	if s.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(stepCtx, s.stepTimeout)
		defer cancel()
	}

	started := time.Now()
	ref, err := fn(stepCtx)
	if err == nil && ref == "" {
		err = errors.New("step produced no output")
	}
	if err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}

	logger := logging.WithContext(stepCtx, s.logger)
	if err != nil {
		logger.Debug("step failed", append(logging.Args(logging.ErrorAttrs(err)...), logging.Duration("elapsed", time.Since(started)))...)
		return "", &StepError{Step: step, Source: sourceRef, Err: err}
	}
	logger.Debug("step completed", logging.String("ref", ref), logging.Duration("elapsed", time.Since(started)))
	return ref, nil
}
