package formatter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/app"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/scheduler"
)

func sprintTitle(s *domain.Scope) string {
	return s.Name + "  " + s.StartDate.Format(domain.DateLayout) + " → " + s.EndDate.Format(domain.DateLayout)
}

// FormatEffortBurndown charts planned capacity still ahead against pending
// task effort, one row per sprint day. Days after today are dimmed.
func FormatEffortBurndown(resp *app.EffortBurndownResponse) string {
	if len(resp.Points) == 0 {
		return RenderBox(sprintTitle(resp.Sprint), Dim("No planned capacity in this sprint."))
	}

	top := decimal.Zero
	for _, p := range resp.Points {
		top = decimal.Max(top, p.Estimated, p.Pending)
	}
	half := chartWidth / 2

	rows := make([][]string, 0, len(resp.Points))
	for _, p := range resp.Points {
		pending := p.Pending.String()
		bar := StyleYellow.Render(RenderBar(p.Pending, top, half))
		if !p.Actual {
			pending = Dim(pending)
			bar = Dim(RenderBar(p.Pending, top, half))
		}
		rows = append(rows, []string{
			p.Label,
			p.Estimated.String(),
			pending,
			StyleBlue.Render(RenderBar(p.Estimated, top, half)),
			bar,
		})
	}
	table := RenderTable([]string{"DAY", "ESTIMATED", "PENDING", "CAPACITY", "WORK"}, rows, 1, 2)
	return RenderBox(sprintTitle(resp.Sprint), table)
}

// FormatEffortStats renders planned versus logged hours per member, with a
// total row and a progress bar.
func FormatEffortStats(resp *app.SprintStatsResponse) string {
	stats := resp.Stats
	if len(stats.Members) == 0 {
		return RenderBox(sprintTitle(resp.Sprint), Dim("No planned capacity in this sprint."))
	}

	rows := make([][]string, 0, len(stats.Members)+1)
	for _, m := range stats.Members {
		rows = append(rows, []string{
			m.Member.DisplayName,
			FormatHours(m.Estimated.Total),
			FormatHours(m.Done.Total),
			RenderProgress(Ratio(m.Done.Total, m.Estimated.Total), 12),
		})
	}
	rows = append(rows, []string{
		Bold("Total"),
		Bold(FormatHours(stats.Estimated.Total)),
		Bold(FormatHours(stats.Done.Total)),
		RenderProgress(Ratio(stats.Done.Total, stats.Estimated.Total), 12),
	})

	var b strings.Builder
	b.WriteString(RenderTable([]string{"MEMBER", "PLANNED", "LOGGED", ""}, rows, 1, 2))
	b.WriteString("\n" + Header("Per day") + "\n")
	b.WriteString(formatDailyTotals(stats))
	return RenderBox(sprintTitle(resp.Sprint), b.String())
}

func formatDailyTotals(stats scheduler.EffortStats) string {
	rows := make([][]string, 0, len(stats.Days))
	for _, d := range stats.Days {
		key := d.Format(domain.DateLayout)
		rows = append(rows, []string{
			fmt.Sprintf("%s %d", d.Format("Mon"), d.Day()),
			FormatHours(stats.Estimated.Days[key]),
			FormatHours(stats.Done.Days[key]),
		})
	}
	return RenderTable([]string{"DAY", "PLANNED", "LOGGED"}, rows, 1, 2)
}
