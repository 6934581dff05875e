package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/service"
)

// Output formats accepted by the render helpers.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ValidateFormat rejects unknown output formats.
func ValidateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, FormatTable, FormatJSON)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(SubtleColor)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		Headers(headers...)
}

// RenderPredictions writes a prediction report as a styled table followed by
// the reasoning of every category.
func RenderPredictions(w io.Writer, report *service.PredictionReport) error {
	period := time.Date(report.TargetYear, time.Month(report.TargetMonth), 1, 0, 0, 0, 0, time.UTC)

	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("Budget forecast for %s", period.Format("January 2006"))))
	b.WriteString("\n")

	if len(report.Predictions) == 0 {
		b.WriteString(FormatWarning(report.Message))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	t := newTable("Category", "Predicted", "Budget avg", "Spending avg", "Confidence", "Trend", "Strategy")
	for _, p := range report.Predictions {
		t.Row(
			p.CategoryName,
			model.FormatDollars(p.PredictedCents),
			model.FormatDollars(p.HistoricalBudgetAvgCents),
			model.FormatDollars(p.HistoricalSpendingAvgCents),
			FormatConfidence(p.Confidence),
			TrendArrow(p.Trend),
			p.Strategy,
		)
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(BoldStyle.Render("Total: " + model.FormatDollars(report.Predictions.TotalCents())))
	b.WriteString("\n\n")

	for _, p := range report.Predictions {
		b.WriteString(BoldStyle.Render(p.CategoryName))
		b.WriteString(SubtitleStyle.Render(" " + p.Reasoning))
		b.WriteString("\n")
	}

	if report.MLEnabled {
		b.WriteString("\n" + FormatSuccess(report.Message) + "\n")
	} else {
		b.WriteString("\n" + FormatInfo(report.Message+" (statistical fallback, no models trained)") + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderPatterns writes behavior and seasonal labels per category. names maps
// category ids to display names; unknown ids print as "#id".
func RenderPatterns(w io.Writer, analysis *service.PatternAnalysis, names map[int64]string) error {
	var b strings.Builder
	b.WriteString(FormatTitle("Spending patterns"))
	b.WriteString("\n")

	if analysis.Message != "" {
		b.WriteString(FormatWarning(analysis.Message) + "\n")
	}

	ids := make([]int64, 0, len(analysis.SeasonalPatterns))
	for id := range analysis.SeasonalPatterns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if len(ids) > 0 {
		t := newTable("Category", "Behavior", "Seasonality")
		for _, id := range ids {
			behavior, ok := analysis.BehaviorClusters[id]
			if !ok {
				behavior = model.BehaviorUnknown
			}
			t.Row(categoryName(names, id), string(behavior), string(analysis.SeasonalPatterns[id]))
		}
		b.WriteString(t.Render() + "\n")
	}

	q := analysis.DataQuality
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf(
		"%d budget lines, %d expenses, %d categories over %d months",
		q.TotalBudgetRecords, q.TotalSpendingRecords, q.CategoriesAnalyzed, q.TimeSpanMonths)))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderInsights writes a user's cohort summary and peer budgets.
func RenderInsights(w io.Writer, insights *service.UserInsights, names map[int64]string) error {
	var b strings.Builder
	b.WriteString(FormatTitle("Insights from similar users"))
	b.WriteString("\n")

	if insights.ClusterID == nil || insights.ClusterProfile == nil {
		b.WriteString(FormatWarning(insights.Message) + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	p := insights.ClusterProfile
	summary := strings.Join([]string{
		fmt.Sprintf("Cohort #%d with %d users (%d similar to you)", *insights.ClusterID, p.UserCount, insights.SimilarUsersCount),
		fmt.Sprintf("Average monthly spending: %s", model.FormatDollars(model.FloatCents(p.AvgMonthlySpending))),
		fmt.Sprintf("Average budget adherence: %.0f%%", p.AvgBudgetAdherence*100),
		fmt.Sprintf("Average categories tracked: %.1f", p.AvgCategories),
	}, "\n")
	b.WriteString(RenderBox(PeopleIcon+" Your cohort", summary))
	b.WriteString("\n")

	for _, line := range insights.Insights {
		b.WriteString(FormatInfo(line) + "\n")
	}

	if len(insights.PeerRecommendations) > 0 {
		ids := make([]int64, 0, len(insights.PeerRecommendations))
		for id := range insights.PeerRecommendations {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		t := newTable("Category", "Peer budget", "Peer spending", "Range", "Samples")
		for _, id := range ids {
			rec := insights.PeerRecommendations[id]
			t.Row(
				categoryName(names, id),
				model.FormatDollars(model.FloatCents(rec.AvgPeerBudget)),
				model.FormatDollars(model.FloatCents(rec.AvgPeerSpending)),
				model.FormatDollars(model.FloatCents(rec.MinBudget))+" - "+model.FormatDollars(model.FloatCents(rec.MaxBudget)),
				fmt.Sprintf("%d", rec.Samples),
			)
		}
		b.WriteString("\n" + t.Render() + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func categoryName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
