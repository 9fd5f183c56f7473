package validation

import (
	"fmt"
	"time"

	"timesheet-engine/internal/domain"
)

const clockLayout = "15:04"

// FindOverlaps compares a candidate interval against existing entries. Only
// entries with both times recorded take part. Intervals are half-open, so
// an entry ending exactly when the candidate starts is not a conflict.
func FindOverlaps(start, end time.Time, existing []domain.TimeEntry, excludeID string) []domain.ConflictInfo {
	var conflicts []domain.ConflictInfo
	for _, e := range existing {
		if excludeID != "" && e.ID == excludeID {
			continue
		}
		if !e.HasTimes() {
			continue
		}
		if start.Before(*e.EndTime) && end.After(*e.StartTime) {
			conflicts = append(conflicts, domain.ConflictInfo{
				ConflictType:    domain.ConflictTypeTimeOverlap,
				ExistingEntryID: e.ID,
				ConflictDetails: fmt.Sprintf("Overlaps with existing entry from %s to %s",
					e.StartTime.Format(clockLayout), e.EndTime.Format(clockLayout)),
				SuggestedResolution: "Adjust the time range to avoid overlapping with existing entries",
			})
		}
	}
	return conflicts
}

// ConflictResult turns conflicts into blocking findings.
func ConflictResult(conflicts []domain.ConflictInfo) Result {
	var result Result
	for _, c := range conflicts {
		result.AddError("time_range", ErrorTypeConflict, c.ConflictDetails, c.ExistingEntryID)
	}
	return result
}
