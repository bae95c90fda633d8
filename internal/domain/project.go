package domain

import (
	"fmt"
	"time"
)

type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields the store requires.
func (p *Project) Validate() error {
	if p.Name == "" {
		return &ValidationError{Message: "project name is required"}
	}
	return nil
}

// DisplayID returns ID truncated to 8 characters.
func (p *Project) DisplayID() string {
	if len(p.ID) >= 8 {
		return p.ID[:8]
	}
	return p.ID
}

func (p *Project) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.DisplayID())
}
