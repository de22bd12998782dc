// Package paper holds the physical page geometry shared by the render and
// PDF steps.
package paper

import "math"

const (
	// A4WidthInches and A4HeightInches are the physical A4 sheet dimensions.
	A4WidthInches  = 8.27
	A4HeightInches = 11.69

	// DefaultDPI is the print resolution used when none is requested.
	DefaultDPI = 300
)

// A4 returns the pixel dimensions of an A4 page at dpi. Non-positive dpi
// falls back to DefaultDPI.
func A4(dpi int) (width, height int) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	width = int(math.Round(A4WidthInches * float64(dpi)))
	height = int(math.Round(A4HeightInches * float64(dpi)))
	return width, height
}
