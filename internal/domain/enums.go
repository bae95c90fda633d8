package domain

type ScopeStatus string

const (
	ScopeOpen   ScopeStatus = "open"
	ScopeClosed ScopeStatus = "closed"
)

// ValidScopeStatuses is the canonical set of accepted scope status strings.
var ValidScopeStatuses = map[string]bool{
	"open": true, "closed": true,
}

// ItemKind names a tracker kind owned by the issue-tracking collaborator
// (e.g. "story", "bug", "task"). Which kinds are ordered backlog items,
// which are tasks and which carry story points is decided by configuration.
type ItemKind string

type DependencyKind string

const (
	// DependencyPrecedes: the predecessor is scheduled before the successor.
	DependencyPrecedes DependencyKind = "precedes"
	// DependencyBlocks: the predecessor blocks the successor.
	DependencyBlocks DependencyKind = "blocks"
)

// ValidDependencyKinds is the canonical set of accepted dependency kind strings.
var ValidDependencyKinds = map[string]bool{
	"precedes": true, "blocks": true,
}

type VelocityType string

const (
	VelocityAll           VelocityType = "all"
	VelocityOnlyScheduled VelocityType = "only_scheduled"
	VelocityCustom        VelocityType = "custom"
)

// ValidVelocityTypes is the canonical set of accepted velocity type strings.
var ValidVelocityTypes = map[string]bool{
	"all": true, "only_scheduled": true, "custom": true,
}

type Deviation string

const (
	DeviationNone  Deviation = ""
	DeviationMajor Deviation = "major"
	DeviationMinor Deviation = "minor"
	DeviationBelow Deviation = "below"
)

type ActivityClass string

const (
	ActivityDoing     ActivityClass = "doing"
	ActivityReviewing ActivityClass = "reviewing"
)
