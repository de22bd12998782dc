package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"a4print/internal/services"
)

var (
	// ErrEnhancement marks a failure of the enhancement collaborator.
	ErrEnhancement = errors.New("enhancement failed")
	// ErrRender marks a failure capturing the A4 render.
	ErrRender = errors.New("render failed")
	// ErrPDFWrite marks a failure writing the PDF page.
	ErrPDFWrite = errors.New("pdf write failed")
)

// Step names a pipeline step.
type Step string

const (
	StepEnhance Step = "enhance"
	StepRender  Step = "render"
	StepPDF     Step = "pdf"
)

func (s Step) sentinel() error {
	switch s {
	case StepEnhance:
		return ErrEnhancement
	case StepRender:
		return ErrRender
	default:
		return ErrPDFWrite
	}
}

// StepError carries the failing step and the item it was processing.
type StepError struct {
	Step   Step
	Source string
	Err    error
}

func (e *StepError) Error() string {
	detail := "unknown error"
	if e.Err != nil {
		if msg := strings.TrimSpace(services.Details(e.Err).Message); msg != "" {
			detail = msg
		}
	}
	return fmt.Sprintf("%s for %s: %s", e.Step.sentinel(), e.Source, detail)
}

func (e *StepError) Unwrap() error { return e.Err }

// Is matches the sentinel for the failing step.
func (e *StepError) Is(target error) bool {
	return target == e.Step.sentinel()
}
