// Package preflight provides readiness checks for the filesystem paths and
// external tools a4print depends on.
//
// These checks run in two contexts:
//   - The export command calls RunAll before starting a job and refuses to
//     start when a required check fails.
//   - The "a4print check" command prints every result.
//
// Optional features (enhancement, notifications) are only checked when
// configured.
package preflight
