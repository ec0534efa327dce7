package simulator

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/statistics"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)
)

// PrintSummary writes a summary of simulation results to w
func PrintSummary(w io.Writer, stats *statistics.Statistics, mode deck.Mode, opponent string) {
	if opponent == "" {
		opponent = "heuristic"
	}
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s: %d games vs %s bots", mode, stats.Games, opponent)))

	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("Game length (turns)"))
	fmt.Fprintf(w, "Mean: %.2f  Median: %.1f  Std Dev: %.2f\n", stats.Mean(), stats.Median(), stats.StdDev())
	fmt.Fprintf(w, "95%% CI: [%.2f, %.2f]\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))
	fmt.Fprintf(w, "Longest: %d turns (seed: %d)\n", stats.MaxTurns, stats.MaxTurnsSeed)

	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("Outcomes"))
	for _, id := range stats.Seats() {
		fmt.Fprintf(w, "%-6s %5d wins (%5.1f%%)  %4d eliminations\n",
			id, stats.Wins[id], stats.WinRate(id)*100, stats.Eliminations[id])
	}
	if mode == deck.NoMercy {
		fmt.Fprintf(w, "Mercy endings: %d (%.1f%%)\n",
			stats.MercyEndings, float64(stats.MercyEndings)/float64(max(stats.Games, 1))*100)
		fmt.Fprintf(w, "Cards abandoned: %d\n", stats.Abandoned)
	}
}
