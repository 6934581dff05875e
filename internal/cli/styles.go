// Package cli renders forecast results for the terminal using lipgloss.
package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/GitLars0/budget-forecast/internal/model"
)

// Palette.
var (
	PrimaryColor = lipgloss.Color("#2EC4B6")
	HighColor    = lipgloss.Color("#4ECDC4")
	MediumColor  = lipgloss.Color("#FFE66D")
	LowColor     = lipgloss.Color("#FF6B6B")
	InfoColor    = lipgloss.Color("#95E1D3")
	SubtleColor  = lipgloss.Color("#666666")
)

var (
	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SubtitleStyle is used for secondary text such as reasoning.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	SuccessStyle = lipgloss.NewStyle().Foreground(HighColor)
	WarningStyle = lipgloss.NewStyle().Foreground(MediumColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(LowColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// BoxStyle frames summaries such as the cohort profile.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(1, 2)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor).
				Padding(0, 1)
	TableCellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// Icons.
const (
	SuccessIcon  = "✓"
	ErrorIcon    = "✗"
	WarningIcon  = "⚠️"
	InfoIcon     = "ℹ️"
	ForecastIcon = "🔮"
	ChartIcon    = "📊"
	PeopleIcon   = "👥"
)

// Confidence bands used for coloring.
const (
	highConfidence   = 0.7
	mediumConfidence = 0.4
)

// ConfidenceStyle colors a confidence score by band.
func ConfidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= highConfidence:
		return SuccessStyle
	case confidence >= mediumConfidence:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

// FormatConfidence renders a score as a colored whole percentage.
func FormatConfidence(confidence float64) string {
	return ConfidenceStyle(confidence).Render(fmt.Sprintf("%.0f%%", confidence*100))
}

// TrendArrow renders a trend with a direction arrow.
func TrendArrow(trend model.Trend) string {
	switch trend {
	case model.TrendIncreasing:
		return "↑ " + string(trend)
	case model.TrendDecreasing:
		return "↓ " + string(trend)
	case model.TrendStable:
		return "→ " + string(trend)
	default:
		return string(trend)
	}
}

func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the forecast icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(ForecastIcon + " " + title)
}

// RenderBox renders content under a title inside a rounded border.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}
