package main

import (
	"context"

	"github.com/example/appointment-planner/internal/application"
	"github.com/example/appointment-planner/internal/itinerary"
	"github.com/example/appointment-planner/internal/persistence"
	"github.com/example/appointment-planner/internal/timeresolver"
)

type categoryRepositoryAdapter struct {
	repo persistence.CategoryRepository
}

func newCategoryRepositoryAdapter(repo persistence.CategoryRepository) *categoryRepositoryAdapter {
	return &categoryRepositoryAdapter{repo: repo}
}

func (a *categoryRepositoryAdapter) CreateCategory(ctx context.Context, category application.Category) (application.Category, error) {
	if err := a.repo.CreateCategory(ctx, toPersistenceCategory(category)); err != nil {
		return application.Category{}, err
	}
	return a.GetCategory(ctx, category.ID)
}

func (a *categoryRepositoryAdapter) GetCategory(ctx context.Context, id string) (application.Category, error) {
	model, err := a.repo.GetCategory(ctx, id)
	if err != nil {
		return application.Category{}, err
	}
	return toApplicationCategory(model), nil
}

func (a *categoryRepositoryAdapter) UpdateCategory(ctx context.Context, category application.Category) (application.Category, error) {
	if err := a.repo.UpdateCategory(ctx, toPersistenceCategory(category)); err != nil {
		return application.Category{}, err
	}
	return a.GetCategory(ctx, category.ID)
}

func (a *categoryRepositoryAdapter) DeleteCategory(ctx context.Context, id string) error {
	return a.repo.DeleteCategory(ctx, id)
}

func (a *categoryRepositoryAdapter) ListCategories(ctx context.Context) ([]application.Category, error) {
	models, err := a.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	categories := make([]application.Category, 0, len(models))
	for _, model := range models {
		categories = append(categories, toApplicationCategory(model))
	}
	return categories, nil
}

type appointmentRepositoryAdapter struct {
	repo persistence.AppointmentRepository
}

func newAppointmentRepositoryAdapter(repo persistence.AppointmentRepository) *appointmentRepositoryAdapter {
	return &appointmentRepositoryAdapter{repo: repo}
}

func (a *appointmentRepositoryAdapter) CreateAppointment(ctx context.Context, appointment application.Appointment) (application.Appointment, error) {
	if err := a.repo.CreateAppointment(ctx, toPersistenceAppointment(appointment)); err != nil {
		return application.Appointment{}, err
	}
	return a.GetAppointment(ctx, appointment.ID)
}

func (a *appointmentRepositoryAdapter) GetAppointment(ctx context.Context, id string) (application.Appointment, error) {
	model, err := a.repo.GetAppointment(ctx, id)
	if err != nil {
		return application.Appointment{}, err
	}
	return toApplicationAppointment(model), nil
}

func (a *appointmentRepositoryAdapter) UpdateAppointment(ctx context.Context, appointment application.Appointment) (application.Appointment, error) {
	if err := a.repo.UpdateAppointment(ctx, toPersistenceAppointment(appointment)); err != nil {
		return application.Appointment{}, err
	}
	return a.GetAppointment(ctx, appointment.ID)
}

func (a *appointmentRepositoryAdapter) DeleteAppointment(ctx context.Context, id string) error {
	return a.repo.DeleteAppointment(ctx, id)
}

func (a *appointmentRepositoryAdapter) ListAppointments(ctx context.Context, filter application.AppointmentRepositoryFilter) ([]application.Appointment, error) {
	models, err := a.repo.ListAppointments(ctx, persistence.AppointmentFilter{
		StartsFrom:   cloneInt64(filter.StartsFrom),
		StartsBefore: cloneInt64(filter.StartsBefore),
		CategoryID:   filter.CategoryID,
	})
	if err != nil {
		return nil, err
	}
	appointments := make([]application.Appointment, 0, len(models))
	for _, model := range models {
		appointments = append(appointments, toApplicationAppointment(model))
	}
	return appointments, nil
}

func (a *appointmentRepositoryAdapter) ListSourceKeys(ctx context.Context) ([]string, error) {
	return a.repo.ListSourceKeys(ctx)
}

// paxRepositoryAdapter also serves as the itinerary reader of the
// appointment and time services.
type paxRepositoryAdapter struct {
	repo persistence.PaxRepository
}

func newPaxRepositoryAdapter(repo persistence.PaxRepository) *paxRepositoryAdapter {
	return &paxRepositoryAdapter{repo: repo}
}

func (a *paxRepositoryAdapter) GetPaxState(ctx context.Context) (application.PaxState, error) {
	state, err := a.repo.GetPaxState(ctx)
	if err != nil {
		return application.PaxState{}, err
	}
	return toApplicationPaxState(state), nil
}

func (a *paxRepositoryAdapter) SetSelectedPax(ctx context.Context, name string) error {
	return a.repo.SetSelectedPax(ctx, optionalString(name))
}

func (a *paxRepositoryAdapter) ReplacePaxFlights(ctx context.Context, names []string, flights []itinerary.Flight) error {
	return a.repo.ReplacePaxFlights(ctx, names, toPersistenceFlights(flights))
}

type snapshotStoreAdapter struct {
	store persistence.SnapshotStore
}

func newSnapshotStoreAdapter(store persistence.SnapshotStore) *snapshotStoreAdapter {
	return &snapshotStoreAdapter{store: store}
}

func (a *snapshotStoreAdapter) LoadSnapshot(ctx context.Context) (application.Snapshot, error) {
	model, err := a.store.LoadSnapshot(ctx)
	if err != nil {
		return application.Snapshot{}, err
	}
	snapshot := application.Snapshot{
		Categories:   make([]application.Category, 0, len(model.Categories)),
		Appointments: make([]application.Appointment, 0, len(model.Appointments)),
		Preferences:  application.PreferencesFromValues(model.Preferences),
		Pax:          toApplicationPaxState(model.Pax),
	}
	for _, category := range model.Categories {
		snapshot.Categories = append(snapshot.Categories, toApplicationCategory(category))
	}
	for _, appointment := range model.Appointments {
		snapshot.Appointments = append(snapshot.Appointments, toApplicationAppointment(appointment))
	}
	return snapshot, nil
}

func (a *snapshotStoreAdapter) ReplaceSnapshot(ctx context.Context, snapshot application.Snapshot) error {
	model := persistence.Snapshot{
		Categories:   make([]persistence.Category, 0, len(snapshot.Categories)),
		Appointments: make([]persistence.Appointment, 0, len(snapshot.Appointments)),
		Preferences:  snapshot.Preferences.Values(),
		Pax: persistence.PaxState{
			SelectedPax: optionalString(snapshot.Pax.SelectedPax),
			PaxNames:    append([]string{}, snapshot.Pax.PaxNames...),
		},
	}
	for _, category := range snapshot.Categories {
		model.Categories = append(model.Categories, toPersistenceCategory(category))
	}
	for _, appointment := range snapshot.Appointments {
		model.Appointments = append(model.Appointments, toPersistenceAppointment(appointment))
	}
	for _, name := range snapshot.Pax.PaxNames {
		model.Pax.Flights = append(model.Pax.Flights, toPersistenceFlights(snapshot.Pax.Flights[name])...)
	}
	return a.store.ReplaceSnapshot(ctx, model)
}

func toApplicationCategory(model persistence.Category) application.Category {
	return application.Category{
		ID:        model.ID,
		Name:      model.Name,
		Color:     model.Color,
		Icon:      model.Icon,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceCategory(category application.Category) persistence.Category {
	return persistence.Category{
		ID:        category.ID,
		Name:      category.Name,
		Color:     category.Color,
		Icon:      category.Icon,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}

func toApplicationAppointment(model persistence.Appointment) application.Appointment {
	return application.Appointment{
		ID:             model.ID,
		Title:          model.Title,
		Date:           model.Date,
		StartTime:      model.StartTime,
		EndTime:        stringValue(model.EndTime),
		CategoryID:     model.CategoryID,
		Location:       stringValue(model.Location),
		Notes:          stringValue(model.Notes),
		Status:         application.Status(model.Status),
		TimeMode:       timeresolver.Mode(model.TimeMode),
		TimeZone:       stringValue(model.TimeZone),
		TimeZoneSource: timeresolver.Source(stringValue(model.TimeZoneSource)),
		StartUTC:       model.StartUTCMillis,
		EndUTC:         cloneInt64(model.EndUTCMillis),
		SourceKey:      stringValue(model.SourceKey),
		SourcePax:      stringValue(model.SourcePax),
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func toPersistenceAppointment(appointment application.Appointment) persistence.Appointment {
	return persistence.Appointment{
		ID:             appointment.ID,
		Title:          appointment.Title,
		Date:           appointment.Date,
		StartTime:      appointment.StartTime,
		EndTime:        optionalString(appointment.EndTime),
		CategoryID:     appointment.CategoryID,
		Location:       optionalString(appointment.Location),
		Notes:          optionalString(appointment.Notes),
		Status:         string(appointment.Status),
		TimeMode:       string(appointment.TimeMode),
		TimeZone:       optionalString(appointment.TimeZone),
		TimeZoneSource: optionalString(string(appointment.TimeZoneSource)),
		StartUTCMillis: appointment.StartUTC,
		EndUTCMillis:   cloneInt64(appointment.EndUTC),
		SourceKey:      optionalString(appointment.SourceKey),
		SourcePax:      optionalString(appointment.SourcePax),
		CreatedAt:      appointment.CreatedAt,
		UpdatedAt:      appointment.UpdatedAt,
	}
}

func toApplicationPaxState(model persistence.PaxState) application.PaxState {
	state := application.PaxState{
		SelectedPax: stringValue(model.SelectedPax),
		PaxNames:    append([]string{}, model.PaxNames...),
		Flights:     make(map[string][]itinerary.Flight, len(model.PaxNames)),
	}
	for _, flight := range model.Flights {
		state.Flights[flight.PaxName] = append(state.Flights[flight.PaxName], itinerary.Flight{
			ID:           flight.ID,
			PaxName:      flight.PaxName,
			FlightDate:   flight.FlightDate,
			PNR:          stringValue(flight.PNR),
			Airline:      stringValue(flight.Airline),
			FlightNumber: flight.FlightNumber,
			FromIATA:     flight.FromIATA,
			ToIATA:       flight.ToIATA,
			DepScheduled: flight.DepScheduled,
			ArrScheduled: flight.ArrScheduled,
		})
	}
	return state
}

func toPersistenceFlights(flights []itinerary.Flight) []persistence.PaxFlight {
	out := make([]persistence.PaxFlight, 0, len(flights))
	for _, flight := range flights {
		out = append(out, persistence.PaxFlight{
			ID:           flight.ID,
			PaxName:      flight.PaxName,
			FlightDate:   flight.FlightDate,
			PNR:          optionalString(flight.PNR),
			Airline:      optionalString(flight.Airline),
			FlightNumber: flight.FlightNumber,
			FromIATA:     flight.FromIATA,
			ToIATA:       flight.ToIATA,
			DepScheduled: flight.DepScheduled,
			ArrScheduled: flight.ArrScheduled,
		})
	}
	return out
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	clone := value
	return &clone
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
