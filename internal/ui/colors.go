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

// Plain disables styling in the helpers below, for pipes and NO_COLOR
var Plain bool

func style(code, s string) string {
	if Plain {
		return s
	}
	return code + s + ColorReset
}

func Bold(s string) string {
	return style(ColorBold, s)
}

// Heading styles section titles of help output
func Heading(s string) string {
	return style(ColorBold+ColorWhite, s)
}

// Command styles command names and usage lines
func Command(s string) string {
	return style(ColorCyan, s)
}

func Success(s string) string {
	return style(ColorGreen, s)
}

func Info(s string) string {
	return style(ColorDim+ColorYellow, s)
}

func Warn(s string) string {
	return style(ColorYellow, s)
}

func Dim(s string) string {
	return style(ColorDim, s)
}

func Error(s string) string {
	return style(ColorRed, s)
}
