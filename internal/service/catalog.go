package service

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/repository"
)

// ActivityCatalog memoizes which activity IDs count as reviewing; every
// other activity counts as doing. The cache lives until Invalidate, which
// the CLI wires to configuration reloads.
type ActivityCatalog struct {
	activities repository.ActivityRepo
	settings   config.Source

	mu        sync.Mutex
	loaded    bool
	reviewing map[string]bool
}

func NewActivityCatalog(activities repository.ActivityRepo, settings config.Source) *ActivityCatalog {
	return &ActivityCatalog{activities: activities, settings: settings}
}

// Invalidate drops the cached classification; the next lookup reloads it.
func (c *ActivityCatalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.reviewing = nil
}

func (c *ActivityCatalog) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	all, err := c.activities.List(ctx)
	if err != nil {
		return fmt.Errorf("loading activities: %w", err)
	}
	names := make(map[string]bool)
	for _, n := range c.settings.Settings().Activities.Reviewing {
		names[strings.ToLower(n)] = true
	}
	c.reviewing = make(map[string]bool)
	for _, a := range all {
		if names[strings.ToLower(a.Name)] {
			c.reviewing[a.ID] = true
		}
	}
	c.loaded = true
	return nil
}

// Classify returns whether activityID is reviewing or doing work. An entry
// without an activity counts as doing.
func (c *ActivityCatalog) Classify(ctx context.Context, activityID string) (domain.ActivityClass, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return "", err
	}
	if c.reviewing[activityID] {
		return domain.ActivityReviewing, nil
	}
	return domain.ActivityDoing, nil
}

// ReviewingIDs returns a copy of the cached reviewing activity IDs.
func (c *ActivityCatalog) ReviewingIDs(ctx context.Context) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return maps.Clone(c.reviewing), nil
}
