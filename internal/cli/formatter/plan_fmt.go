package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/app"
)

const chartWidth = 30

func clampNote(clamped bool) string {
	if clamped {
		return Dim(" (no history, using 1)")
	}
	return ""
}

// FormatVelocity renders the two velocity figures and the sprint history
// they were averaged from.
func FormatVelocity(resp *app.VelocityResponse) string {
	var b strings.Builder
	v := resp.Velocity
	b.WriteString(fmt.Sprintf("%s  %s%s\n", StyleDim.Render("ALL       "), Bold(v.All.String()), clampNote(v.ClampedAll)))
	b.WriteString(fmt.Sprintf("%s  %s%s\n", StyleDim.Render("SCHEDULED "), Bold(v.Scheduled.String()), clampNote(v.ClampedScheduled)))
	b.WriteString(Dim(fmt.Sprintf("averaged over %d of the last %d sprints", v.Iterations, resp.Window)) + "\n")

	if len(resp.History) > 0 {
		rows := make([][]string, 0, len(resp.History))
		for _, it := range resp.History {
			rows = append(rows, []string{it.Name, FormatDay(it.EndDate), FormatPoints(it.Points), FormatPoints(it.Scheduled)})
		}
		b.WriteString("\n" + RenderTable([]string{"SPRINT", "ENDS", "DONE", "SCHEDULED"}, rows, 2, 3))
	}
	return RenderBox("Velocity", b.String())
}

// FormatReleasePlan renders one row per projected sprint with the items it
// would hold and the releases completed there.
func FormatReleasePlan(resp *app.ReleasePlanResponse) string {
	plan := resp.Plan
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s %s%s\n", StyleDim.Render("VELOCITY"),
		Bold(resp.Chosen.String()), Dim("("+string(resp.VelocityType)+")"), clampNote(resp.VelocityClamped)))
	b.WriteString(fmt.Sprintf("%s  %s sp in %d items, %d unestimated\n\n", StyleDim.Render("BACKLOG "),
		plan.TotalPoints.String(), plan.Estimated, plan.Unestimated))

	if len(plan.Buckets) == 0 {
		b.WriteString(Dim("Nothing estimated to plan."))
		return RenderBox("Release plan", b.String())
	}

	rows := make([][]string, 0, len(plan.Buckets))
	for i, bucket := range plan.Buckets {
		refs := make([]string, len(bucket.Items))
		for j, it := range bucket.Items {
			refs[j] = it.Ref()
		}
		items := strings.Join(refs, " ")
		if items == "" {
			items = Dim("--")
		}
		releases := ""
		if len(bucket.Releases) > 0 {
			releases = StyleGreen.Render(strings.Join(bucket.Releases, ", "))
		}
		rows = append(rows, []string{fmt.Sprintf("Sprint +%d", i+1), bucket.Points.String(), items, releases})
	}
	b.WriteString(RenderTable([]string{"SPRINT", "POINTS", "ITEMS", "RELEASES"}, rows, 1))

	if len(plan.ReleaseBucket) > 0 {
		names := make([]string, 0, len(plan.ReleaseBucket))
		for name := range plan.ReleaseBucket {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\n")
		for _, name := range names {
			b.WriteString(fmt.Sprintf("%s ready after Sprint +%d\n", StyleGreen.Render(name), plan.ReleaseBucket[name]+1))
		}
	}
	return RenderBox("Release plan", b.String())
}

// FormatProductBurndown draws the projected remaining story points as a
// horizontal bar chart.
func FormatProductBurndown(resp *app.ProductBurndownResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s %s%s\n\n", StyleDim.Render("VELOCITY"),
		Bold(resp.Chosen.String()), Dim("("+string(resp.VelocityType)+")"), clampNote(resp.VelocityClamped)))

	top := decimal.Zero
	for _, p := range resp.Points {
		if p.Remaining.GreaterThan(top) {
			top = p.Remaining
		}
	}
	rows := make([][]string, 0, len(resp.Points))
	for _, p := range resp.Points {
		rows = append(rows, []string{p.Label, p.Remaining.String(), StyleBlue.Render(RenderBar(p.Remaining, top, chartWidth))})
	}
	b.WriteString(RenderTable([]string{"SPRINT", "REMAINING", ""}, rows, 1))
	return RenderBox("Product burndown", b.String())
}

// FormatHoursPerPoint renders the per-sprint hours per story point and
// their recent mean.
func FormatHoursPerPoint(resp *app.HoursPerPointResponse) string {
	if len(resp.Sprints) == 0 {
		return RenderBox("Hours per story point", Dim("No sprints yet."))
	}
	rows := make([][]string, 0, len(resp.Sprints))
	for _, s := range resp.Sprints {
		rows = append(rows, []string{s.Name, s.Value.String()})
	}
	var b strings.Builder
	b.WriteString(RenderTable([]string{"SPRINT", "H/SP"}, rows, 1))
	b.WriteString("\n" + fmt.Sprintf("%s  %s %s\n", StyleDim.Render("MEAN"), Bold(resp.Mean.String()),
		Dim("over the last "+strconv.Itoa(resp.Window)+" sprints")))
	return RenderBox("Hours per story point", b.String())
}
