package domain

import "github.com/shopspring/decimal"

// HasStoryPoints is implemented by item kinds that may carry story points.
type HasStoryPoints interface {
	HasStoryPoints() bool
}

// KindSpec describes what one tracker kind supports.
type KindSpec struct {
	Kind        ItemKind
	Backlog     bool
	Task        bool
	StoryPoints bool
}

func (k KindSpec) HasStoryPoints() bool { return k.StoryPoints }

// KindRegistry resolves kind capabilities. It is built once from
// configuration so nothing inspects items at runtime to discover fields.
type KindRegistry struct {
	specs map[ItemKind]KindSpec
}

// NewKindRegistry builds a registry from the configured kind lists.
func NewKindRegistry(backlog, tasks, storyPoints []string) *KindRegistry {
	r := &KindRegistry{specs: make(map[ItemKind]KindSpec)}
	touch := func(name string, apply func(*KindSpec)) {
		k := ItemKind(name)
		spec := r.specs[k]
		spec.Kind = k
		apply(&spec)
		r.specs[k] = spec
	}
	for _, k := range backlog {
		touch(k, func(s *KindSpec) { s.Backlog = true })
	}
	for _, k := range tasks {
		touch(k, func(s *KindSpec) { s.Task = true })
	}
	for _, k := range storyPoints {
		touch(k, func(s *KindSpec) { s.StoryPoints = true })
	}
	return r
}

// Spec returns the capabilities of kind; unknown kinds support nothing.
func (r *KindRegistry) Spec(kind ItemKind) KindSpec {
	if spec, ok := r.specs[kind]; ok {
		return spec
	}
	return KindSpec{Kind: kind}
}

func (r *KindRegistry) IsBacklog(kind ItemKind) bool { return r.Spec(kind).Backlog }

func (r *KindRegistry) IsTask(kind ItemKind) bool { return r.Spec(kind).Task }

// StoryPoints returns the item's story points, or nil when the item is
// unestimated or its kind does not carry story points.
func (r *KindRegistry) StoryPoints(item *BacklogItem) *decimal.Decimal {
	var capability HasStoryPoints = r.Spec(item.Kind)
	if !capability.HasStoryPoints() {
		return nil
	}
	return item.StoryPoints
}

// BacklogItems filters items down to the ordered backlog kinds.
func (r *KindRegistry) BacklogItems(items []*BacklogItem) []*BacklogItem {
	var out []*BacklogItem
	for _, it := range items {
		if r.IsBacklog(it.Kind) {
			out = append(out, it)
		}
	}
	return out
}
