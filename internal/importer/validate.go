package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/ordering"
)

// ValidateImportSchema checks the schema before conversion and returns every
// problem found, not just the first.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	if strings.TrimSpace(schema.Project.Name) == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}

	memberRefs := make(map[string]bool)
	for i, m := range schema.Members {
		prefix := fmt.Sprintf("members[%d]", i)
		errs = append(errs, checkRef(prefix, m.Ref, memberRefs)...)
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
	}

	activityRefs := make(map[string]bool)
	for i, a := range schema.Activities {
		prefix := fmt.Sprintf("activities[%d]", i)
		errs = append(errs, checkRef(prefix, a.Ref, activityRefs)...)
		if strings.TrimSpace(a.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
	}

	sprintRefs := make(map[string]bool)
	errs = append(errs, validateSprints(schema.Sprints, sprintRefs)...)

	itemScopes := make(map[string]string)
	errs = append(errs, validateItems(schema.Items, sprintRefs, itemScopes)...)
	itemRefs := hasKey(itemScopes)

	var edges []domain.Dependency
	for i, d := range schema.Dependencies {
		prefix := fmt.Sprintf("dependencies[%d]", i)
		errs = append(errs, requireKnown(prefix+".predecessor_ref", d.PredecessorRef, itemRefs)...)
		errs = append(errs, requireKnown(prefix+".successor_ref", d.SuccessorRef, itemRefs)...)
		if d.PredecessorRef != "" && d.PredecessorRef == d.SuccessorRef {
			errs = append(errs, fmt.Errorf("%s: an item cannot depend on itself", prefix))
		}
		if d.Kind != "" && !domain.ValidDependencyKinds[d.Kind] {
			errs = append(errs, fmt.Errorf("%s.kind: invalid value %q", prefix, d.Kind))
		}
		if !itemRefs[d.PredecessorRef] || !itemRefs[d.SuccessorRef] || d.PredecessorRef == d.SuccessorRef {
			continue
		}
		// A cycle would leave every order of its items rejected.
		if ordering.NewValidator(true, edges).DependsOn(d.PredecessorRef, d.SuccessorRef) {
			errs = append(errs, fmt.Errorf("%s: %q already depends on %q, the dependency would form a cycle",
				prefix, d.PredecessorRef, d.SuccessorRef))
			continue
		}
		edges = append(edges, domain.Dependency{PredecessorID: d.PredecessorRef, SuccessorID: d.SuccessorRef})
	}

	spans := make(map[string]SprintImport, len(schema.Sprints))
	for _, sp := range schema.Sprints {
		spans[sp.Ref] = sp
	}

	for i, e := range schema.Efforts {
		prefix := fmt.Sprintf("efforts[%d]", i)
		errs = append(errs, requireKnown(prefix+".sprint_ref", e.SprintRef, sprintRefs)...)
		errs = append(errs, requireKnown(prefix+".member_ref", e.MemberRef, memberRefs)...)
		dateErrs := validateDate(prefix+".date", e.Date)
		errs = append(errs, dateErrs...)
		if sp, ok := spans[e.SprintRef]; ok && len(dateErrs) == 0 {
			errs = append(errs, validateWithinSprint(prefix+".date", e.Date, sp)...)
		}
		errs = append(errs, validateQuantity(prefix+".hours", e.Hours, true)...)
	}

	for i, p := range schema.PendingEfforts {
		prefix := fmt.Sprintf("pending_efforts[%d]", i)
		errs = append(errs, requireKnown(prefix+".item_ref", p.ItemRef, itemRefs)...)
		errs = append(errs, validateDate(prefix+".date", p.Date)...)
		errs = append(errs, validateQuantity(prefix+".hours", p.Hours, true)...)
	}

	for i, l := range schema.TimeLogs {
		prefix := fmt.Sprintf("time_logs[%d]", i)
		errs = append(errs, requireKnown(prefix+".item_ref", l.ItemRef, itemRefs)...)
		errs = append(errs, requireKnown(prefix+".member_ref", l.MemberRef, memberRefs)...)
		if l.ActivityRef != "" && !activityRefs[l.ActivityRef] {
			errs = append(errs, fmt.Errorf("%s.activity_ref: ref %q not found", prefix, l.ActivityRef))
		}
		errs = append(errs, validateDate(prefix+".date", l.Date)...)
		errs = append(errs, validateQuantity(prefix+".hours", l.Hours, true)...)
	}

	return errs
}

func validateSprints(sprints []SprintImport, refs map[string]bool) []error {
	var errs []error
	names := make(map[string]bool)
	for i, s := range sprints {
		prefix := fmt.Sprintf("sprints[%d]", i)
		errs = append(errs, checkRef(prefix, s.Ref, refs)...)

		name := strings.ToLower(strings.TrimSpace(s.Name))
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		case names[name]:
			errs = append(errs, fmt.Errorf("%s.name: duplicate sprint name %q", prefix, s.Name))
		}
		names[name] = true

		if s.Status != "" && !domain.ValidScopeStatuses[s.Status] {
			errs = append(errs, fmt.Errorf("%s.status: invalid value %q", prefix, s.Status))
		}

		startErrs := validateDate(prefix+".start_date", s.StartDate)
		endErrs := validateDate(prefix+".end_date", s.EndDate)
		errs = append(errs, startErrs...)
		errs = append(errs, endErrs...)
		if len(startErrs) == 0 && len(endErrs) == 0 && s.EndDate < s.StartDate {
			errs = append(errs, fmt.Errorf("%s: end_date %q is before start_date %q", prefix, s.EndDate, s.StartDate))
		}
	}
	return errs
}

// validateItems records each item's scope ref in scopes so parents can be
// checked; parents must appear earlier in the list.
func validateItems(items []ItemImport, sprintRefs map[string]bool, scopes map[string]string) []error {
	var errs []error
	for i, it := range items {
		prefix := fmt.Sprintf("items[%d]", i)

		if it.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if _, dup := scopes[it.Ref]; dup {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, it.Ref))
		}

		if strings.TrimSpace(it.Title) == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		}
		if it.Kind == "" {
			errs = append(errs, fmt.Errorf("%s.kind is required", prefix))
		}
		if it.SprintRef != "" && !sprintRefs[it.SprintRef] {
			errs = append(errs, fmt.Errorf("%s.sprint_ref: ref %q not found in sprints", prefix, it.SprintRef))
		}

		if it.ParentRef != "" {
			parentScope, ok := scopes[it.ParentRef]
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("%s.parent_ref: ref %q not found (must appear earlier in items list)", prefix, it.ParentRef))
			case parentScope != it.SprintRef:
				errs = append(errs, fmt.Errorf("%s: must be in the same sprint as its parent %q", prefix, it.ParentRef))
			}
		}

		errs = append(errs, validateQuantity(prefix+".story_points", it.StoryPoints, false)...)
		errs = append(errs, validateQuantity(prefix+".estimated_hours", it.EstimatedHours, false)...)
		if it.CreatedOn != "" {
			errs = append(errs, validateDate(prefix+".created_on", it.CreatedOn)...)
		}

		if it.Ref != "" {
			if _, dup := scopes[it.Ref]; !dup {
				scopes[it.Ref] = it.SprintRef
			}
		}
	}
	return errs
}

func checkRef(prefix, ref string, seen map[string]bool) []error {
	if ref == "" {
		return []error{fmt.Errorf("%s.ref is required", prefix)}
	}
	if seen[ref] {
		return []error{fmt.Errorf("%s.ref: duplicate ref %q", prefix, ref)}
	}
	seen[ref] = true
	return nil
}

func requireKnown(field, ref string, known map[string]bool) []error {
	if ref == "" {
		return []error{fmt.Errorf("%s is required", field)}
	}
	if !known[ref] {
		return []error{fmt.Errorf("%s: ref %q not found", field, ref)}
	}
	return nil
}

func hasKey(m map[string]string) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func validateDate(field, value string) []error {
	if value == "" {
		return []error{fmt.Errorf("%s is required", field)}
	}
	if _, err := domain.ParseDay(value); err != nil {
		return []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, value)}
	}
	return nil
}

// validateWithinSprint assumes date already parses. Sprints with broken
// dates are reported on their own.
func validateWithinSprint(field, date string, sp SprintImport) []error {
	day, _ := domain.ParseDay(date)
	start, startErr := domain.ParseDay(sp.StartDate)
	end, endErr := domain.ParseDay(sp.EndDate)
	if startErr != nil || endErr != nil {
		return nil
	}
	if day.Before(start) || day.After(end) {
		return []error{fmt.Errorf("%s: %s is outside sprint %q (%s to %s)", field, date, sp.Name, sp.StartDate, sp.EndDate)}
	}
	return nil
}

func validateQuantity(field string, q Quantity, required bool) []error {
	d, err := domain.ParseDecimal(field, string(q))
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return []error{errors.New(verr.Message)}
		}
		return []error{err}
	}
	if d == nil && required {
		return []error{fmt.Errorf("%s is required", field)}
	}
	return nil
}
