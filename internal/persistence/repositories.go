package persistence

import "context"

// CategoryRepository exposes CRUD operations for categories.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category Category) error
	UpdateCategory(ctx context.Context, category Category) error
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// AppointmentFilter narrows appointment queries. Bounds are UTC milliseconds;
// StartsFrom is inclusive and StartsBefore exclusive.
type AppointmentFilter struct {
	StartsFrom   *int64
	StartsBefore *int64
	CategoryID   string
}

// AppointmentRepository stores appointments.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) error
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	ListSourceKeys(ctx context.Context) ([]string, error)
}

// PreferenceRepository stores preference key-values.
type PreferenceRepository interface {
	GetPreferences(ctx context.Context) (map[string]string, error)
	SetPreferences(ctx context.Context, values map[string]string) error
}

// PaxRepository stores traveler names, the selected traveler, and flight caches.
type PaxRepository interface {
	GetPaxState(ctx context.Context) (PaxState, error)
	SetSelectedPax(ctx context.Context, name *string) error
	// ReplacePaxFlights swaps the traveler list and every flight cache in one step.
	ReplacePaxFlights(ctx context.Context, names []string, flights []PaxFlight) error
	ListPaxFlights(ctx context.Context, paxName string) ([]PaxFlight, error)
}

// SnapshotStore reads and replaces the whole data set atomically.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	ReplaceSnapshot(ctx context.Context, snapshot Snapshot) error
}
