package scheduler

import "sort"

// Appointment is the resolved span of an appointment, in UTC milliseconds.
// A nil End marks an appointment without an end time.
type Appointment struct {
	ID    string
	Start int64
	End   *int64
}

// ConflictType describes how two appointments collide.
type ConflictType string

const (
	// ConflictTypeOverlap indicates the spans intersect.
	ConflictTypeOverlap ConflictType = "overlap"
	// ConflictTypeSameStart indicates both appointments begin at the same instant.
	ConflictTypeSameStart ConflictType = "same_start"
)

// Conflict details an overlapping appointment that callers can present to users.
// Conflicts are warnings; they never block a save.
type Conflict struct {
	WithAppointmentID string       `json:"with_appointment_id"`
	Type              ConflictType `json:"type"`
	OverlapMinutes    int          `json:"overlap_minutes"`
}

// DetectConflicts reports existing appointments that collide with candidate.
// Spans are half-open, so back-to-back appointments do not conflict. An
// appointment without an end collides with spans containing its start and
// with appointments starting at the same instant. The candidate itself is
// skipped when it appears in existing. Results are ordered by start.
func DetectConflicts(existing []Appointment, candidate Appointment) []Conflict {
	ordered := append([]Appointment(nil), existing...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	var conflicts []Conflict
	for _, other := range ordered {
		if other.ID == candidate.ID {
			continue
		}
		if other.Start == candidate.Start {
			conflicts = append(conflicts, Conflict{
				WithAppointmentID: other.ID,
				Type:              ConflictTypeSameStart,
				OverlapMinutes:    overlapMinutes(candidate, other),
			})
			continue
		}
		if overlaps(candidate, other) {
			conflicts = append(conflicts, Conflict{
				WithAppointmentID: other.ID,
				Type:              ConflictTypeOverlap,
				OverlapMinutes:    overlapMinutes(candidate, other),
			})
		}
	}
	return conflicts
}

// ConflictingPairs returns every pair of colliding appointments in list,
// keyed by appointment ID.
func ConflictingPairs(list []Appointment) map[string][]Conflict {
	result := make(map[string][]Conflict)
	for i, appointment := range list {
		for _, conflict := range DetectConflicts(list[i+1:], appointment) {
			result[appointment.ID] = append(result[appointment.ID], conflict)
			mirror := conflict
			mirror.WithAppointmentID = appointment.ID
			result[conflict.WithAppointmentID] = append(result[conflict.WithAppointmentID], mirror)
		}
	}
	return result
}

func end(a Appointment) int64 {
	if a.End == nil || *a.End < a.Start {
		return a.Start
	}
	return *a.End
}

func overlaps(a, b Appointment) bool {
	aEnd, bEnd := end(a), end(b)
	switch {
	case aEnd == a.Start:
		return b.Start <= a.Start && a.Start < bEnd
	case bEnd == b.Start:
		return a.Start <= b.Start && b.Start < aEnd
	default:
		return a.Start < bEnd && b.Start < aEnd
	}
}

func overlapMinutes(a, b Appointment) int {
	start := max(a.Start, b.Start)
	stop := min(end(a), end(b))
	if stop <= start {
		return 0
	}
	return int((stop - start) / 60_000)
}
