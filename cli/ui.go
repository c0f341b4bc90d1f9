package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/ByLCY/foodlabels/label"
)

var (
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(14)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
)

// 导出按钮的两种状态文字。
const (
	statusReady    = "ready"
	statusNotReady = "not ready"
)

// printStatus prints the export gate as a single line.
func printStatus(w io.Writer, ready bool) {
	if ready {
		fmt.Fprintln(w, styleSuccess.Render(iconSuccess)+" "+styleSuccess.Render(statusReady))
		return
	}
	fmt.Fprintln(w, styleError.Render(iconError)+" "+styleError.Render(statusNotReady))
}

// printFieldErrors prints one indented line per field error.
func printFieldErrors(w io.Writer, errs label.ValidationErrors) {
	for _, fe := range errs {
		fmt.Fprintln(w, "  "+styleKey.Render(string(fe.Field))+" "+styleDim.Render(fe.Reason()))
	}
}

func printWarning(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleWarning.Render(iconWarning)+" "+styleWarning.Render(msg))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+styleDim.Render(iconArrow)+" "+styleValue.Render(path))
}
