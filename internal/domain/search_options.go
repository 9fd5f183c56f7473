package domain

// EntryFilter holds search criteria for time entries. Zero values are ignored.
// From and To are inclusive YYYY-MM-DD days.
type EntryFilter struct {
	EmployeeID          string
	From                string
	To                  string
	TimesheetID         string
	Status              EntryStatus
	DescriptionContains string
	Limit               int
	Offset              int
}
