package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alexanderramin/sprintplan/internal/app"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

// ItemLine is a backlog item (or task) prepared for display.
type ItemLine struct {
	Item   *domain.BacklogItem
	Closed bool
	Tasks  []ItemLine
}

func itemDetail(it *domain.BacklogItem) string {
	var parts []string
	if it.StoryPoints != nil {
		parts = append(parts, it.StoryPoints.String()+" sp")
	}
	if it.EstimatedHours != nil {
		parts = append(parts, FormatHours(*it.EstimatedHours))
	}
	if it.TargetRelease != nil {
		parts = append(parts, "→ "+*it.TargetRelease)
	}
	return strings.Join(parts, " · ")
}

func treeItem(l ItemLine, level int, last bool) TreeItem {
	return TreeItem{
		Ref:    l.Item.Ref(),
		Title:  l.Item.Title,
		Level:  level,
		IsLast: last,
		Closed: l.Closed,
		Active: l.Item.Status == "in_progress",
		Detail: itemDetail(l.Item),
	}
}

// FormatItemTree renders a scope's backlog items in position order with
// their tasks nested underneath.
func FormatItemTree(scopeName string, lines []ItemLine) string {
	if len(lines) == 0 {
		return RenderBox(scopeName, Dim("No items."))
	}
	var tree []TreeItem
	for _, l := range lines {
		tree = append(tree, treeItem(l, 0, false))
		for i, task := range l.Tasks {
			tree = append(tree, treeItem(task, 1, i == len(l.Tasks)-1))
		}
	}
	return RenderBox(scopeName, RenderTree(tree))
}

// FormatItemInsight renders an item card: estimate, effort, speed and the
// people who worked on it.
func FormatItemInsight(in *app.ItemInsight, scopeName string, tasks []ItemLine) string {
	it := in.Item
	var b strings.Builder
	b.WriteString(Bold(it.Ref()+" "+it.Title) + "\n")
	b.WriteString(Dim(string(it.Kind)+" in "+scopeName) + "\n\n")

	field := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render(fmt.Sprintf("%-10s", label)), value))
	}
	field("STATUS", StyleFg.Render(it.Status))
	field("POSITION", strconv.Itoa(it.Position))
	if it.StoryPoints != nil {
		field("POINTS", it.StoryPoints.String())
	}
	if it.TargetRelease != nil {
		field("RELEASE", *it.TargetRelease)
	}
	field("ESTIMATED", FormatHours(in.Estimated))
	field("PENDING", FormatOptionalHours(in.Pending))
	field("SPENT", FormatHours(in.Spent))
	if in.Speed != nil {
		field("SPEED", DeviationStyle(in.Deviation).Render(fmt.Sprintf("%d%%", *in.Speed))+"  "+DeviationLabel(in.Deviation))
	}
	if len(in.Doers) > 0 {
		field("DOERS", memberNames(in.Doers))
	}
	if len(in.Reviewers) > 0 {
		field("REVIEWERS", memberNames(in.Reviewers))
	}

	if len(tasks) > 0 {
		b.WriteString("\n" + Header("Tasks") + "\n")
		var tree []TreeItem
		for i, t := range tasks {
			tree = append(tree, treeItem(t, 1, i == len(tasks)-1))
		}
		b.WriteString(RenderTree(tree))
	}
	return RenderBox("", b.String())
}

func memberNames(members []domain.Member) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.DisplayName
	}
	return strings.Join(names, ", ")
}

// FormatPlacements lists the positions a reorder assigned.
func FormatPlacements(placements []domain.Placement, refs map[string]string) string {
	if len(placements) == 0 {
		return Dim("Order unchanged.")
	}
	sorted := append([]domain.Placement(nil), placements...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	rows := make([][]string, 0, len(sorted))
	for _, p := range sorted {
		ref, ok := refs[p.ItemID]
		if !ok {
			ref = TruncID(p.ItemID)
		}
		rows = append(rows, []string{ref, strconv.Itoa(p.Position)})
	}
	return RenderTable([]string{"ITEM", "POSITION"}, rows, 1)
}

// FormatDependencyReport lists every item sitting ahead of items it depends on.
func FormatDependencyReport(scopeName string, report *app.DependencyReport) string {
	if len(report.Conflicts) == 0 {
		return StyleGreen.Render("✔ ") + fmt.Sprintf("%s: no dependency conflicts", scopeName)
	}
	ref := func(id string) string {
		if r, ok := report.Refs[id]; ok {
			return r
		}
		return "#" + id
	}

	ids := make([]string, 0, len(report.Conflicts))
	for id := range report.Conflicts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return refLess(ref(ids[i]), ref(ids[j])) })

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		deps := make([]string, len(report.Conflicts[id]))
		for i, d := range report.Conflicts[id] {
			deps[i] = ref(d)
		}
		rows = append(rows, []string{StyleRed.Render(ref(id)), strings.Join(deps, ", ")})
	}
	return RenderBox(scopeName, RenderTable([]string{"ITEM", "DEPENDS ON"}, rows))
}

// refLess orders "#2" before "#10".
func refLess(a, b string) bool {
	na, errA := strconv.Atoi(strings.TrimPrefix(a, "#"))
	nb, errB := strconv.Atoi(strings.TrimPrefix(b, "#"))
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
