package scheduler

import "testing"

const minute = int64(60_000)

func span(id string, startMinute, endMinute int64) Appointment {
	end := endMinute * minute
	return Appointment{ID: id, Start: startMinute * minute, End: &end}
}

func point(id string, startMinute int64) Appointment {
	return Appointment{ID: id, Start: startMinute * minute}
}

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	t.Run("overlapping spans produce conflict", func(t *testing.T) {
		t.Parallel()

		existing := []Appointment{span("a", 60, 120), span("b", 200, 260)}
		conflicts := DetectConflicts(existing, span("new", 90, 150))
		if len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %d", len(conflicts))
		}
		if conflicts[0].WithAppointmentID != "a" || conflicts[0].Type != ConflictTypeOverlap || conflicts[0].OverlapMinutes != 30 {
			t.Fatalf("unexpected conflict %+v", conflicts[0])
		}
	})

	t.Run("back to back spans do not conflict", func(t *testing.T) {
		t.Parallel()

		conflicts := DetectConflicts([]Appointment{span("a", 60, 120)}, span("new", 120, 180))
		if len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})

	t.Run("same start is reported", func(t *testing.T) {
		t.Parallel()

		conflicts := DetectConflicts([]Appointment{point("a", 60)}, point("new", 60))
		if len(conflicts) != 1 || conflicts[0].Type != ConflictTypeSameStart {
			t.Fatalf("expected same start conflict, got %+v", conflicts)
		}
	})

	t.Run("point inside span conflicts", func(t *testing.T) {
		t.Parallel()

		conflicts := DetectConflicts([]Appointment{span("a", 60, 120), point("b", 130)}, point("new", 90))
		if len(conflicts) != 1 || conflicts[0].WithAppointmentID != "a" {
			t.Fatalf("expected conflict with a, got %+v", conflicts)
		}
		if conflicts[0].OverlapMinutes != 0 {
			t.Fatalf("expected zero overlap minutes for a point, got %d", conflicts[0].OverlapMinutes)
		}
	})

	t.Run("candidate is not compared with itself", func(t *testing.T) {
		t.Parallel()

		candidate := span("same", 60, 120)
		if conflicts := DetectConflicts([]Appointment{candidate}, candidate); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})

	t.Run("results follow start order", func(t *testing.T) {
		t.Parallel()

		existing := []Appointment{span("late", 100, 200), span("early", 0, 150)}
		conflicts := DetectConflicts(existing, span("new", 120, 130))
		if len(conflicts) != 2 || conflicts[0].WithAppointmentID != "early" || conflicts[1].WithAppointmentID != "late" {
			t.Fatalf("expected early then late, got %+v", conflicts)
		}
	})
}

func TestConflictingPairs(t *testing.T) {
	t.Parallel()

	pairs := ConflictingPairs([]Appointment{span("a", 0, 60), span("b", 30, 90), span("c", 120, 180)})
	if len(pairs["a"]) != 1 || pairs["a"][0].WithAppointmentID != "b" {
		t.Fatalf("expected a to conflict with b, got %+v", pairs["a"])
	}
	if len(pairs["b"]) != 1 || pairs["b"][0].WithAppointmentID != "a" {
		t.Fatalf("expected b to conflict with a, got %+v", pairs["b"])
	}
	if _, ok := pairs["c"]; ok {
		t.Fatalf("expected c to be conflict free")
	}
}
