package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/media-batch/internal/batch/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary formats the final batch summary, followed by the failures if any
func RenderSummary(summary *domain.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Download Summary")
	tw.AppendRows([]table.Row{
		{"Run", summary.RunID},
		{"Total time", fmt.Sprintf("%.1fs", summary.Elapsed().Round(100*time.Millisecond).Seconds())},
		{"Items", summary.Total},
		{"Successfully downloaded", summary.Succeeded()},
		{"Failed downloads", summary.Failed},
		{"Peak concurrency", summary.PeakActive},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	var b strings.Builder
	b.WriteString(tw.Render())

	if len(summary.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(renderFailures(summary.Failures))
	}

	return b.String()
}

func renderFailures(failures []domain.FailureRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "URL", "Error"})
	for _, rec := range failures {
		tw.AppendRow(table.Row{strconv.Itoa(rec.Position), rec.URL, rec.Message})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, WidthMax: 80},
	})
	return tw.Render()
}
