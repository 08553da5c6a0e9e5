package application

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/example/appointment-planner/internal/itinerary"
)

var referenceNow = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return referenceNow }

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

type categoryRepoStub struct {
	items     []Category
	createErr error
	deleteErr error
	listErr   error
	deletedID string
}

func (r *categoryRepoStub) CreateCategory(ctx context.Context, category Category) (Category, error) {
	if r.createErr != nil {
		return Category{}, r.createErr
	}
	r.items = append(r.items, category)
	return category, nil
}

func (r *categoryRepoStub) GetCategory(ctx context.Context, id string) (Category, error) {
	for _, item := range r.items {
		if item.ID == id {
			return item, nil
		}
	}
	return Category{}, ErrNotFound
}

func (r *categoryRepoStub) UpdateCategory(ctx context.Context, category Category) (Category, error) {
	for i, item := range r.items {
		if item.ID == category.ID {
			r.items[i] = category
			return category, nil
		}
	}
	return Category{}, ErrNotFound
}

func (r *categoryRepoStub) DeleteCategory(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedID = id
	return nil
}

func (r *categoryRepoStub) ListCategories(ctx context.Context) ([]Category, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Category, len(r.items))
	copy(out, r.items)
	return out, nil
}

type catalogStub struct {
	missing map[string]bool
}

func (c catalogStub) CategoryExists(ctx context.Context, id string) (bool, error) {
	return !c.missing[id], nil
}

type appointmentRepoStub struct {
	items     []Appointment
	createErr error
	listCalls int
}

func (r *appointmentRepoStub) CreateAppointment(ctx context.Context, appointment Appointment) (Appointment, error) {
	if r.createErr != nil {
		return Appointment{}, r.createErr
	}
	for _, item := range r.items {
		if appointment.SourceKey != "" && item.SourceKey == appointment.SourceKey {
			return Appointment{}, ErrAlreadyExists
		}
	}
	r.items = append(r.items, appointment)
	return appointment, nil
}

func (r *appointmentRepoStub) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	for _, item := range r.items {
		if item.ID == id {
			return item, nil
		}
	}
	return Appointment{}, ErrNotFound
}

func (r *appointmentRepoStub) UpdateAppointment(ctx context.Context, appointment Appointment) (Appointment, error) {
	for i, item := range r.items {
		if item.ID == appointment.ID {
			r.items[i] = appointment
			return appointment, nil
		}
	}
	return Appointment{}, ErrNotFound
}

func (r *appointmentRepoStub) DeleteAppointment(ctx context.Context, id string) error {
	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *appointmentRepoStub) ListAppointments(ctx context.Context, filter AppointmentRepositoryFilter) ([]Appointment, error) {
	r.listCalls++
	var out []Appointment
	for _, item := range r.items {
		if filter.StartsFrom != nil && item.StartUTC < *filter.StartsFrom {
			continue
		}
		if filter.StartsBefore != nil && item.StartUTC >= *filter.StartsBefore {
			continue
		}
		if filter.CategoryID != "" && item.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartUTC < out[j].StartUTC })
	return out, nil
}

func (r *appointmentRepoStub) ListSourceKeys(ctx context.Context) ([]string, error) {
	var keys []string
	for _, item := range r.items {
		if item.SourceKey != "" {
			keys = append(keys, item.SourceKey)
		}
	}
	return keys, nil
}

type preferenceRepoStub struct {
	values map[string]string
}

func (r *preferenceRepoStub) GetPreferences(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(r.values))
	for key, value := range r.values {
		out[key] = value
	}
	return out, nil
}

func (r *preferenceRepoStub) SetPreferences(ctx context.Context, values map[string]string) error {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	for key, value := range values {
		r.values[key] = value
	}
	return nil
}

type paxRepoStub struct {
	state PaxState
}

func (r *paxRepoStub) GetPaxState(ctx context.Context) (PaxState, error) {
	return r.state, nil
}

func (r *paxRepoStub) SetSelectedPax(ctx context.Context, name string) error {
	r.state.SelectedPax = name
	return nil
}

func (r *paxRepoStub) ReplacePaxFlights(ctx context.Context, names []string, flights []itinerary.Flight) error {
	r.state.PaxNames = append([]string(nil), names...)
	r.state.Flights = make(map[string][]itinerary.Flight)
	for _, flight := range flights {
		r.state.Flights[flight.PaxName] = append(r.state.Flights[flight.PaxName], flight)
	}
	return nil
}

type snapshotStoreStub struct {
	loaded   Snapshot
	replaced *Snapshot
}

func (s *snapshotStoreStub) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	return s.loaded, nil
}

func (s *snapshotStoreStub) ReplaceSnapshot(ctx context.Context, snapshot Snapshot) error {
	s.replaced = &snapshot
	return nil
}

// londonToParisFlights is one traveler flying out on the 10th and back on
// the 20th of January 2026.
func londonToParisFlights(pax string) []itinerary.Flight {
	return []itinerary.Flight{
		{ID: "f1", PaxName: pax, FlightDate: "2026-01-10", FlightNumber: "BA304", FromIATA: "LHR", ToIATA: "CDG", DepScheduled: "2026-01-10T08:00", ArrScheduled: "2026-01-10T10:15"},
		{ID: "f2", PaxName: pax, FlightDate: "2026-01-20", FlightNumber: "BA305", FromIATA: "CDG", ToIATA: "LHR", DepScheduled: "2026-01-20T18:00", ArrScheduled: "2026-01-20T18:20"},
	}
}
