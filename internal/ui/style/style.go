// Package style provides shared brand colors and icons for log lines and progress output.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Amber  = lipgloss.Color("#D97706")
	Slate  = lipgloss.Color("#667085")
	White  = lipgloss.Color("#FFFFFF")
	Ink    = lipgloss.Color("#0B0F19")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
	Blue   = lipgloss.Color("#3B82F6")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Reload  = "↻"
	Dot     = "●"
)
