package domain

// ProjectStatusActive is the only status that accepts new time.
const ProjectStatusActive = "active"

// Project is a catalog project that time can be booked against.
type Project struct {
	ID                   string
	TenantID             string
	Name                 string
	Status               string
	AssignedEmployeeIDs  []string
	RequiresActivityCode bool
}

// IsActive reports whether the project accepts time.
func (p Project) IsActive() bool {
	return p.Status == ProjectStatusActive
}

// HasEmployee reports whether the employee is assigned to the project.
func (p Project) HasEmployee(employeeID string) bool {
	for _, id := range p.AssignedEmployeeIDs {
		if id == employeeID {
			return true
		}
	}
	return false
}

// ActivityCode classifies the kind of work booked on an entry.
type ActivityCode struct {
	ID         string
	TenantID   string
	Code       string
	Name       string
	Active     bool
	Billable   bool
	ProjectIDs []string
}

// AppliesTo reports whether the code is associated with the project. A code
// without any project association applies everywhere.
func (a ActivityCode) AppliesTo(projectID string) bool {
	if len(a.ProjectIDs) == 0 {
		return true
	}
	for _, id := range a.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// ConflictTypeTimeOverlap marks two entries sharing wall-clock time.
const ConflictTypeTimeOverlap = "time_overlap"

// ConflictInfo describes a clash between a candidate interval and an
// existing entry.
type ConflictInfo struct {
	ConflictType        string `json:"conflict_type"`
	ExistingEntryID     string `json:"existing_entry_id"`
	ConflictDetails     string `json:"conflict_details"`
	SuggestedResolution string `json:"suggested_resolution"`
}
