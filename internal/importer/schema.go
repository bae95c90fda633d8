// Package importer reads backlog import files (JSON or YAML) and turns
// them into domain records for a new project.
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of an import file.
type ImportSchema struct {
	Project        ProjectImport        `json:"project" yaml:"project"`
	Members        []MemberImport       `json:"members,omitempty" yaml:"members,omitempty"`
	Activities     []ActivityImport     `json:"activities,omitempty" yaml:"activities,omitempty"`
	Sprints        []SprintImport       `json:"sprints,omitempty" yaml:"sprints,omitempty"`
	Items          []ItemImport         `json:"items" yaml:"items"`
	Dependencies   []DependencyImport   `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Efforts        []EffortImport       `json:"efforts,omitempty" yaml:"efforts,omitempty"`
	PendingEfforts []PendingEffortImport `json:"pending_efforts,omitempty" yaml:"pending_efforts,omitempty"`
	TimeLogs       []TimeLogImport      `json:"time_logs,omitempty" yaml:"time_logs,omitempty"`
}

type ProjectImport struct {
	Name string `json:"name" yaml:"name"`
}

// MemberImport names a team member. Members already stored under the same
// name are reused.
type MemberImport struct {
	Ref  string `json:"ref" yaml:"ref"`
	Name string `json:"name" yaml:"name"`
}

type ActivityImport struct {
	Ref  string `json:"ref" yaml:"ref"`
	Name string `json:"name" yaml:"name"`
}

type SprintImport struct {
	Ref       string `json:"ref" yaml:"ref"`
	Name      string `json:"name" yaml:"name"`
	Goal      string `json:"goal,omitempty" yaml:"goal,omitempty"`
	StartDate string `json:"start_date" yaml:"start_date"`
	EndDate   string `json:"end_date" yaml:"end_date"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
}

// ItemImport is one backlog item or task. Items are positioned in file
// order within their scope; an empty sprint_ref means the product backlog.
type ItemImport struct {
	Ref            string   `json:"ref" yaml:"ref"`
	SprintRef      string   `json:"sprint_ref,omitempty" yaml:"sprint_ref,omitempty"`
	ParentRef      string   `json:"parent_ref,omitempty" yaml:"parent_ref,omitempty"`
	Kind           string   `json:"kind" yaml:"kind"`
	Title          string   `json:"title" yaml:"title"`
	Status         string   `json:"status,omitempty" yaml:"status,omitempty"`
	StoryPoints    Quantity `json:"story_points,omitempty" yaml:"story_points,omitempty"`
	EstimatedHours Quantity `json:"estimated_hours,omitempty" yaml:"estimated_hours,omitempty"`
	TargetRelease  string   `json:"target_release,omitempty" yaml:"target_release,omitempty"`
	// CreatedOn backdates the item, which decides whether it counts as
	// scheduled in its sprint.
	CreatedOn string `json:"created_on,omitempty" yaml:"created_on,omitempty"`
}

type DependencyImport struct {
	PredecessorRef string `json:"predecessor_ref" yaml:"predecessor_ref"`
	SuccessorRef   string `json:"successor_ref" yaml:"successor_ref"`
	Kind           string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

type EffortImport struct {
	SprintRef string   `json:"sprint_ref" yaml:"sprint_ref"`
	MemberRef string   `json:"member_ref" yaml:"member_ref"`
	Date      string   `json:"date" yaml:"date"`
	Hours     Quantity `json:"hours" yaml:"hours"`
}

type PendingEffortImport struct {
	ItemRef string   `json:"item_ref" yaml:"item_ref"`
	Date    string   `json:"date" yaml:"date"`
	Hours   Quantity `json:"hours" yaml:"hours"`
}

type TimeLogImport struct {
	ItemRef     string   `json:"item_ref" yaml:"item_ref"`
	MemberRef   string   `json:"member_ref" yaml:"member_ref"`
	ActivityRef string   `json:"activity_ref,omitempty" yaml:"activity_ref,omitempty"`
	Date        string   `json:"date" yaml:"date"`
	Hours       Quantity `json:"hours" yaml:"hours"`
}

// Quantity is a decimal written either as a number or as a string, so
// "1,5" survives as well as 1.5.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}
	*q = Quantity(data)
	return nil
}

func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	*q = Quantity(node.Value)
	return nil
}

// LoadImportSchema reads an import file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON. Unknown fields are rejected.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

func ParseJSON(data []byte) (*ImportSchema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var schema ImportSchema
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}

func ParseYAML(data []byte) (*ImportSchema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var schema ImportSchema
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
