// Package pdf writes single-page PDFs holding one rendered image, and picks
// timestamped file names in the export directory.
package pdf
