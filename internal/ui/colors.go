// Package ui holds the terminal styling shared by the listings commands.
package ui

// ANSI escape sequences
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[97m"
)

// Outcome marks printed in front of run and download summaries
const (
	MarkDone    = "✓"
	MarkPartial = "!"
	MarkFailed  = "✗"
)

// Paint wraps s in style and resets afterwards
func Paint(style, s string) string {
	return style + s + ColorReset
}

func Bold(s string) string    { return Paint(ColorBold, s) }
func Dim(s string) string     { return Paint(ColorDim, s) }
func Success(s string) string { return Paint(ColorGreen, s) }
func Warn(s string) string    { return Paint(ColorYellow, s) }
func Error(s string) string   { return Paint(ColorRed, s) }

// Mark returns the colored outcome mark: failed wins over partial
func Mark(failed, partial bool) string {
	switch {
	case failed:
		return Error(MarkFailed)
	case partial:
		return Warn(MarkPartial)
	default:
		return Success(MarkDone)
	}
}
