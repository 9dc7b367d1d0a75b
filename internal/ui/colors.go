package ui

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Plain disables styling, e.g. for JSON logs or non-terminal output.
var Plain = false

func style(code, s string) string {
	if Plain {
		return s
	}
	return code + s + ColorReset
}

// Convenience helper to build styled strings. Keep minimal so tests can use constants directly.
func Bold(s string) string {
	return style(ColorBold, s)
}

func Success(s string) string {
	return style(ColorGreen, s)
}

func Warn(s string) string {
	return style(ColorYellow, s)
}

func Error(s string) string {
	return style(ColorRed, s)
}

func Dim(s string) string {
	return style(ColorDim, s)
}
