package layout

// This file holds unit conversions. Layout works in points; the canvas
// renderer works in millimetres and converts at its boundary.

// Conversion constants between pt and mm.
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

// PtToMM converts a length in points to millimetres.
func PtToMM(pt float64) float64 { return pt * PtToMm }

// MMToPt converts a length in millimetres to points.
func MMToPt(mm float64) float64 { return mm * MmToPt }

// LineHeightFactor is the default leading applied to every text box.
const LineHeightFactor = 1.2

// lineHeight resolves the absolute line height for a font size in pt.
func lineHeight(fontSize float64) float64 { return fontSize * LineHeightFactor }
