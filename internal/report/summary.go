package report

import (
	"fmt"
	"strings"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(18)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func outcomeText(o types.Outcome) string {
	if o == types.OutcomeSucceeded {
		return okStyle.Render(string(o))
	}
	return badStyle.Render(string(o))
}

// Summary renders a report for the terminal.
func Summary(rep *types.Report) string {
	var rows []string
	row := func(k, v string) {
		rows = append(rows, keyStyle.Render(k)+v)
	}

	title := rep.TaskType
	if rep.Label != "" {
		title = rep.Label + " / " + rep.TaskType
	}
	rows = append(rows, titleStyle.Render(title))

	row("run", rep.RunID)
	if rep.Outcome != "" {
		row("outcome", outcomeText(rep.Outcome))
	}
	row("runtime", fmt.Sprintf("%d ms", rep.RuntimeMs))

	hw := rep.Hardware
	row("cpu", fmt.Sprintf("%d cores / %d threads", hw.CPUCores, hw.CPUThreads))
	row("memory", fmt.Sprintf("%.2f GB", float64(hw.MemoryTotal)/1e9))
	if hw.GpuCount > 0 {
		names := make([]string, 0, len(hw.Gpus))
		for _, g := range hw.Gpus {
			names = append(names, g.Name)
		}
		row("gpus", fmt.Sprintf("%d (%s)", hw.GpuCount, strings.Join(names, ", ")))
	}

	if tw := rep.TimeWindow; tw != nil {
		phase := fmt.Sprintf("%d ms", tw.DurationMs)
		if rep.WindowFallback {
			phase += " (no samples inside, full run used)"
		}
		row("phase", phase)
	}

	if m := rep.Metrics; m != nil {
		row("samples", fmt.Sprintf("%d", m.SampleCount))
		row("cpu avg / max", fmt.Sprintf("%s / %s", types.Percent(m.CPU.AvgUsage), types.Percent(m.CPU.MaxUsage)))
		row("mem max / avg", fmt.Sprintf("%.3f / %.3f GB", m.Memory.MaxGB, m.Memory.AvgGB))
		row("ctx switches", fmt.Sprintf("%d vol / %d invol (peak %.0f/s)",
			m.Contention.TotalVoluntary, m.Contention.TotalInvoluntary, m.Contention.PeakRate))
		row("gpu avg / max", fmt.Sprintf("%s / %s", m.Gpu.AvgUsage, m.Gpu.MaxUsage))
		row("gpu mem avg / max", fmt.Sprintf("%s / %s", m.Gpu.AvgMemPercent, m.Gpu.MaxMemPercent))
	} else {
		row("metrics", "none collected")
	}

	if c := rep.CacheMetrics; c != nil {
		if c.Available {
			row("L1 / LLC hit", fmt.Sprintf("%.2f%% / %.2f%%", c.L1HitRatio*100, c.LLCHitRatio*100))
		} else {
			row("L1 / LLC hit", types.NotApplicable)
		}
	}

	return boxStyle.Render(strings.Join(rows, "\n"))
}
