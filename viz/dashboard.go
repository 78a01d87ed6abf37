// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarises a pipeline board as stage bars, open value and weighted forecast
package viz

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

type DashboardStats struct {
	Pipeline string
	Stages   []StageStats

	TotalDeals int
	// OpenValue sums deals in stages that are neither won nor lost.
	OpenValue decimal.Decimal
	// Forecast weights each open deal's value by its win probability.
	Forecast  decimal.Decimal
	WonValue  decimal.Decimal
	LostValue decimal.Decimal
	Orphans   int
}

type StageStats struct {
	Stage     models.Stage
	Aggregate board.Aggregate
}

var hundred = decimal.NewFromInt(100)

func GenerateDashboardStats(pipeline string, b *board.Board) *DashboardStats {
	stats := &DashboardStats{Pipeline: pipeline, Orphans: len(b.Orphans)}

	for _, col := range b.Columns {
		stats.Stages = append(stats.Stages, StageStats{Stage: col.Stage, Aggregate: col.Aggregate})
		stats.TotalDeals += col.Aggregate.Count

		switch {
		case col.Stage.IsWon:
			stats.WonValue = stats.WonValue.Add(col.Aggregate.TotalValue)
		case col.Stage.IsLost:
			stats.LostValue = stats.LostValue.Add(col.Aggregate.TotalValue)
		default:
			stats.OpenValue = stats.OpenValue.Add(col.Aggregate.TotalValue)
			for _, d := range col.Deals {
				if d.Value == nil {
					continue
				}
				weight := decimal.NewFromInt(int64(d.WinProbability)).Div(hundred)
				stats.Forecast = stats.Forecast.Add(d.Value.Mul(weight))
			}
		}
	}
	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  " + strings.ToUpper(stats.Pipeline) + "\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderStages(&out, stats.Stages)
	out.WriteString("\n")

	out.WriteString("TOTALS\n")
	out.WriteString(fmt.Sprintf("  deals     %d\n", stats.TotalDeals))
	out.WriteString(fmt.Sprintf("  open      %s\n", models.FormatMoney(stats.OpenValue)))
	out.WriteString(fmt.Sprintf("  forecast  %s\n", models.FormatMoney(stats.Forecast.Round(2))))
	out.WriteString(fmt.Sprintf("  won       %s\n", models.FormatMoney(stats.WonValue)))
	out.WriteString(fmt.Sprintf("  lost      %s\n", models.FormatMoney(stats.LostValue)))

	if stats.Orphans > 0 {
		out.WriteString("\nNEEDS ATTENTION\n")
		out.WriteString(fmt.Sprintf("  ⚠️  %d deals reference a stage that no longer exists\n", stats.Orphans))
	}

	return out.String()
}

func renderStages(out *strings.Builder, stages []StageStats) {
	// Find max count for scaling
	maxCount := 0
	for _, s := range stages {
		if s.Aggregate.Count > maxCount {
			maxCount = s.Aggregate.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	width := 13
	for _, s := range stages {
		if n := len([]rune(s.Stage.Name)); n > width {
			width = n
		}
	}

	for _, s := range stages {
		// Bar length is 0-10 blocks
		barLength := (s.Aggregate.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-*s %s  %2d  %-12s %3.0f%%\n",
			width, s.Stage.Name, bar, s.Aggregate.Count, models.FormatMoney(s.Aggregate.TotalValue), s.Aggregate.MeanWinProbability))
	}
}
