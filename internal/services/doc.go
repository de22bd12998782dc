// Package services defines shared utilities consumed by the export pipeline,
// the batch engine, and the external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp batch item indexes, stage names, and
//     correlation identifiers for logging.
//   - Error kind classification plus the Wrap/Details helpers that turn
//     collaborator failures into concise, human-readable item messages.
//
// Use these helpers when wiring new collaborators so operational behaviour
// (error reporting, observability) stays uniform across the pipeline.
package services
