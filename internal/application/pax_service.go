package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/appointment-planner/internal/airports"
	"github.com/example/appointment-planner/internal/itinerary"
	"github.com/example/appointment-planner/internal/timeresolver"
)

// PaxRepository stores travelers, the selection, and their flight caches.
type PaxRepository interface {
	GetPaxState(ctx context.Context) (PaxState, error)
	SetSelectedPax(ctx context.Context, name string) error
	ReplacePaxFlights(ctx context.Context, names []string, flights []itinerary.Flight) error
}

// ImportedAppointmentStore receives appointments built from cached flights.
type ImportedAppointmentStore interface {
	ListSourceKeys(ctx context.Context) ([]string, error)
	CreateImportedAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
}

// PaxService imports trip exports and answers itinerary questions.
type PaxService struct {
	pax          PaxRepository
	appointments ImportedAppointmentStore
	categories   CategoryCatalog
	zones        ZoneSettings
	idGenerator  func() string
	logger       *slog.Logger
}

// NewPaxService constructs a pax service with the provided dependencies.
func NewPaxService(pax PaxRepository, appointments ImportedAppointmentStore, categories CategoryCatalog, zones ZoneSettings, idGenerator func() string) *PaxService {
	return NewPaxServiceWithLogger(pax, appointments, categories, zones, idGenerator, nil)
}

// NewPaxServiceWithLogger constructs a pax service with a specified logger.
func NewPaxServiceWithLogger(pax PaxRepository, appointments ImportedAppointmentStore, categories CategoryCatalog, zones ZoneSettings, idGenerator func() string, logger *slog.Logger) *PaxService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &PaxService{
		pax:          pax,
		appointments: appointments,
		categories:   categories,
		zones:        zones,
		idGenerator:  idGenerator,
		logger:       defaultLogger(logger),
	}
}

func (s *PaxService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PaxService", operation, attrs...)
}

// GetPaxState returns the travelers and their flights. A selection that no
// longer names a traveler reads back as empty.
func (s *PaxService) GetPaxState(ctx context.Context) (PaxState, error) {
	if s == nil {
		return PaxState{}, fmt.Errorf("PaxService is nil")
	}
	if s.pax == nil {
		return PaxState{Flights: map[string][]itinerary.Flight{}}, nil
	}
	state, err := s.pax.GetPaxState(ctx)
	if err != nil {
		return PaxState{}, err
	}
	return normalizePaxState(state), nil
}

// ImportTrips replaces every traveler flight cache with the flights in a
// trip export.
func (s *PaxService) ImportTrips(ctx context.Context, raw []byte) (result ImportTripsResult, err error) {
	if s == nil {
		err = fmt.Errorf("PaxService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ImportTrips", "bytes", len(raw))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to import trips", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "trips imported",
			"trip_count", result.Stats.TripCount,
			"pax_count", len(result.PaxNames),
			"flight_count", result.Flights,
			"skipped", result.Skipped,
		)
	}()

	var trips []itinerary.Trip
	trips, err = itinerary.ParseTrips(raw)
	if err != nil {
		if errors.Is(err, itinerary.ErrInvalidDocument) || errors.Is(err, itinerary.ErrNoTrips) {
			err = fieldError("trips", err.Error())
		}
		return
	}

	result.Stats = itinerary.TripStats(trips)
	result.PaxNames = itinerary.ExtractPaxNames(trips)

	var flights []itinerary.Flight
	for _, name := range result.PaxNames {
		for _, rec := range itinerary.FlightsForPax(trips, name) {
			imported, ok := itinerary.BuildImportedFlight(rec, name, s.zones.DefaultZone, s.idGenerator)
			if !ok {
				result.Skipped++
				continue
			}
			flights = append(flights, imported.Flight)
		}
	}
	flights = itinerary.Dedupe(flights)
	result.Flights = len(flights)

	if s.pax == nil {
		return
	}

	var previous PaxState
	previous, err = s.pax.GetPaxState(ctx)
	if err != nil {
		return
	}
	if err = s.pax.ReplacePaxFlights(ctx, result.PaxNames, flights); err != nil {
		return
	}
	if previous.SelectedPax != "" && !containsName(result.PaxNames, previous.SelectedPax) {
		err = s.pax.SetSelectedPax(ctx, "")
	}
	return
}

// SelectPax changes the traveler whose itinerary drives zone inference. An
// empty name clears the selection.
func (s *PaxService) SelectPax(ctx context.Context, name string) (state PaxState, err error) {
	if s == nil {
		err = fmt.Errorf("PaxService is nil")
		return
	}
	if s.pax == nil {
		err = fmt.Errorf("pax repository not configured")
		return
	}

	name = strings.TrimSpace(name)
	logger := s.loggerWith(ctx, "SelectPax", "pax", name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to select pax", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "pax selected")
	}()

	state, err = s.GetPaxState(ctx)
	if err != nil {
		return
	}
	if name != "" && !containsName(state.PaxNames, name) {
		err = fieldError("pax", "unknown traveler")
		return
	}
	if err = s.pax.SetSelectedPax(ctx, name); err != nil {
		return
	}
	state.SelectedPax = name
	return
}

// CountryForDate infers where a traveler is on a date from their flights.
func (s *PaxService) CountryForDate(ctx context.Context, paxName, date string) (PaxCountry, error) {
	if s == nil {
		return PaxCountry{}, fmt.Errorf("PaxService is nil")
	}
	paxName = strings.TrimSpace(paxName)
	date = strings.TrimSpace(date)

	vErr := &ValidationError{}
	if paxName == "" {
		vErr.add("pax", "pax is required")
	}
	if !timeresolver.IsValidDateKey(date) {
		vErr.add("date", "date must be YYYY-MM-DD")
	}
	if vErr.HasErrors() {
		return PaxCountry{}, vErr
	}

	legs, err := travelerLegs(ctx, s, paxName)
	if err != nil {
		return PaxCountry{}, err
	}
	country := PaxCountry{PaxName: paxName, Date: date}
	region, ok := timeresolver.CountryForTravelerOnDate(legs, date)
	if !ok {
		return country, nil
	}
	country.Known = true
	country.Region = region
	country.Flag = airports.Flag(region.Code)
	country.TimeZone = timeresolver.ZoneForCountry(region.Code)
	return country, nil
}

// ImportFlightsAsAppointments creates a planned appointment for each cached
// flight of a traveler. Flights imported before are counted as duplicates.
func (s *PaxService) ImportFlightsAsAppointments(ctx context.Context, params ImportFlightsParams) (result ImportFlightsResult, err error) {
	if s == nil {
		err = fmt.Errorf("PaxService is nil")
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment store not configured")
		return
	}

	params.PaxName = strings.TrimSpace(params.PaxName)
	params.CategoryID = strings.TrimSpace(params.CategoryID)
	logger := s.loggerWith(ctx, "ImportFlightsAsAppointments", "pax", params.PaxName, "category_id", params.CategoryID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to import flights", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "flights imported as appointments", "created", len(result.Created), "duplicates", result.Duplicates)
	}()

	vErr := &ValidationError{}
	if params.PaxName == "" {
		vErr.add("pax", "pax is required")
	}
	if params.CategoryID == "" {
		vErr.add("category_id", "category is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.categories != nil {
		var exists bool
		exists, err = s.categories.CategoryExists(ctx, params.CategoryID)
		if err != nil {
			return
		}
		if !exists {
			vErr.add("category_id", "category not found")
			err = vErr
			return
		}
	}

	var state PaxState
	state, err = s.GetPaxState(ctx)
	if err != nil {
		return
	}
	if !containsName(state.PaxNames, params.PaxName) {
		vErr.add("pax", "unknown traveler")
		err = vErr
		return
	}

	var keys []string
	keys, err = s.appointments.ListSourceKeys(ctx)
	if err != nil {
		return
	}
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		seen[key] = struct{}{}
	}

	for _, flight := range state.Flights[params.PaxName] {
		imported, ok := itinerary.BuildImportedFlight(flight.Record(), params.PaxName, s.zones.DefaultZone, nil)
		if !ok {
			continue
		}
		draft := imported.Appointment
		if _, dup := seen[draft.DedupKey]; dup {
			result.Duplicates++
			continue
		}

		var created Appointment
		created, err = s.appointments.CreateImportedAppointment(ctx, appointmentFromDraft(draft, params.CategoryID))
		if errors.Is(err, ErrAlreadyExists) {
			err = nil
			result.Duplicates++
			continue
		}
		if err != nil {
			return
		}
		seen[draft.DedupKey] = struct{}{}
		result.Created = append(result.Created, created)
	}
	return
}

func appointmentFromDraft(draft itinerary.Draft, categoryID string) Appointment {
	return Appointment{
		Title:          draft.Title,
		Date:           draft.Date,
		StartTime:      draft.StartTime,
		EndTime:        draft.EndTime,
		CategoryID:     categoryID,
		Location:       draft.Location,
		Notes:          draft.Notes,
		Status:         StatusPlanned,
		TimeMode:       timeresolver.ModeTimezone,
		TimeZone:       draft.TimeZone,
		TimeZoneSource: timeresolver.SourceInferred,
		StartUTC:       draft.StartUTC,
		EndUTC:         draft.EndUTC,
		SourceKey:      draft.DedupKey,
		SourcePax:      draft.Source.PaxName,
	}
}

// normalizePaxState merges traveler names with the keys of the flight cache,
// drops flights missing their identifying fields, and clears a selection
// that names no traveler.
func normalizePaxState(state PaxState) PaxState {
	seen := make(map[string]struct{}, len(state.PaxNames)+len(state.Flights))
	names := make([]string, 0, len(state.PaxNames)+len(state.Flights))
	addName := func(name string) {
		if strings.TrimSpace(name) == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, name := range state.PaxNames {
		addName(name)
	}
	for name := range state.Flights {
		addName(name)
	}
	sort.Strings(names)

	flights := make(map[string][]itinerary.Flight, len(names))
	for _, name := range names {
		var kept []itinerary.Flight
		for _, flight := range state.Flights[name] {
			if flight.PaxName == "" || flight.FlightDate == "" || flight.FlightNumber == "" {
				continue
			}
			kept = append(kept, flight)
		}
		flights[name] = kept
	}

	selected := state.SelectedPax
	if _, ok := seen[selected]; !ok {
		selected = ""
	}
	return PaxState{SelectedPax: selected, PaxNames: names, Flights: flights}
}

func containsName(names []string, name string) bool {
	for _, candidate := range names {
		if candidate == name {
			return true
		}
	}
	return false
}
