// Package pipeline runs one image through the export steps: optional
// enhancement, A4 render capture, and PDF page creation.
//
// Steps run strictly in sequence and each one is bounded by the configured
// step timeout. A failing step aborts the item and is reported as a
// *StepError matching ErrEnhancement, ErrRender, or ErrPDFWrite. The stage
// never retries; retrying is a queue-level decision.
package pipeline
