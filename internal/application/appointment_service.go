package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/appointment-planner/internal/persistence"
	"github.com/example/appointment-planner/internal/scheduler"
	"github.com/example/appointment-planner/internal/timeresolver"
)

// AppointmentRepositoryFilter narrows repository listings. Bounds are UTC
// milliseconds; StartsFrom is inclusive and StartsBefore exclusive.
type AppointmentRepositoryFilter struct {
	StartsFrom   *int64
	StartsBefore *int64
	CategoryID   string
}

// AppointmentRepository captures the persistence operations needed by the service.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	UpdateAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	ListAppointments(ctx context.Context, filter AppointmentRepositoryFilter) ([]Appointment, error)
	ListSourceKeys(ctx context.Context) ([]string, error)
}

// CategoryCatalog verifies category references.
type CategoryCatalog interface {
	CategoryExists(ctx context.Context, id string) (bool, error)
}

// PreferenceSource supplies the stored preferences.
type PreferenceSource interface {
	Get(ctx context.Context) (Preferences, error)
}

// AppointmentResult is a saved appointment with the overlaps it introduced.
type AppointmentResult struct {
	Appointment Appointment
	Warnings    []ConflictWarning
}

// conflictLookback bounds how far before a new start an overlapping
// appointment may begin.
const conflictLookback = 48 * time.Hour

// AppointmentService validates, resolves, and persists appointments.
type AppointmentService struct {
	appointments AppointmentRepository
	categories   CategoryCatalog
	preferences  PreferenceSource
	pax          PaxReader
	zones        ZoneSettings
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
	warnings     *warningCache
}

// NewAppointmentService constructs an appointment service with the provided dependencies.
func NewAppointmentService(appointments AppointmentRepository, categories CategoryCatalog, preferences PreferenceSource, pax PaxReader, zones ZoneSettings, idGenerator func() string, now func() time.Time) *AppointmentService {
	return NewAppointmentServiceWithLogger(appointments, categories, preferences, pax, zones, idGenerator, now, nil)
}

// NewAppointmentServiceWithLogger constructs an appointment service with a specified logger.
func NewAppointmentServiceWithLogger(appointments AppointmentRepository, categories CategoryCatalog, preferences PreferenceSource, pax PaxReader, zones ZoneSettings, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AppointmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{
		appointments: appointments,
		categories:   categories,
		preferences:  preferences,
		pax:          pax,
		zones:        zones,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
		warnings:     newWarningCache(30*time.Second, 128, now),
	}
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AppointmentService", operation, attrs...)
}

// CreateAppointment validates input, resolves its zone and instants, and
// stores it. Overlaps are returned as warnings and never block the save.
func (s *AppointmentService) CreateAppointment(ctx context.Context, input AppointmentInput) (result AppointmentResult, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateAppointment", "category_id", input.CategoryID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"appointment_id", result.Appointment.ID,
			"time_zone", result.Appointment.TimeZone,
			"time_zone_source", result.Appointment.TimeZoneSource,
			"warning_count", len(result.Warnings),
		).InfoContext(ctx, "appointment created")
	}()

	var appointment Appointment
	appointment, err = s.prepare(ctx, input)
	if err != nil {
		return
	}

	frame := timeresolver.Frame{Mode: appointment.TimeMode, Zone: appointment.TimeZone}
	if timeresolver.StartInPast(frame, timeresolver.Moment{Date: appointment.Date, Time: appointment.StartTime}, s.now()) {
		err = fieldError("start_time", "start must not be in the past")
		return
	}

	appointment.ID = s.idGenerator()
	appointment.CreatedAt = s.now()
	appointment.UpdatedAt = appointment.CreatedAt

	result, err = s.store(ctx, appointment)
	return
}

// CreateImportedAppointment stores an appointment built from an imported
// flight. The caller has already resolved its zone and instants.
func (s *AppointmentService) CreateImportedAppointment(ctx context.Context, appointment Appointment) (Appointment, error) {
	if s == nil {
		return Appointment{}, fmt.Errorf("AppointmentService is nil")
	}
	if appointment.ID == "" {
		appointment.ID = s.idGenerator()
	}
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = s.now()
	}
	appointment.UpdatedAt = appointment.CreatedAt

	result, err := s.store(ctx, appointment)
	if err != nil {
		return Appointment{}, err
	}
	return result.Appointment, nil
}

func (s *AppointmentService) store(ctx context.Context, appointment Appointment) (AppointmentResult, error) {
	if s.appointments == nil {
		return AppointmentResult{Appointment: appointment}, nil
	}

	persisted, err := s.appointments.CreateAppointment(ctx, appointment)
	if err != nil {
		return AppointmentResult{}, mapAppointmentRepoError(err)
	}
	s.warnings.Invalidate()

	warnings, err := s.overlapWarnings(ctx, persisted)
	if err != nil {
		return AppointmentResult{}, err
	}
	return AppointmentResult{Appointment: persisted, Warnings: warnings}, nil
}

// UpdateAppointment validates input and replaces the editable fields of an
// existing appointment. Past starts are allowed so history can be corrected.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, params UpdateAppointmentParams) (result AppointmentResult, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateAppointment", "appointment_id", params.AppointmentID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("warning_count", len(result.Warnings)).InfoContext(ctx, "appointment updated")
	}()

	var existing Appointment
	existing, err = s.appointments.GetAppointment(ctx, params.AppointmentID)
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}

	var prepared Appointment
	prepared, err = s.prepare(ctx, params.Input)
	if err != nil {
		return
	}

	prepared.ID = existing.ID
	prepared.SourceKey = existing.SourceKey
	prepared.SourcePax = existing.SourcePax
	prepared.CreatedAt = existing.CreatedAt
	prepared.UpdatedAt = s.now()

	var persisted Appointment
	persisted, err = s.appointments.UpdateAppointment(ctx, prepared)
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}
	s.warnings.Invalidate()

	result.Appointment = persisted
	result.Warnings, err = s.overlapWarnings(ctx, persisted)
	return
}

// GetAppointment returns one appointment.
func (s *AppointmentService) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	if s == nil {
		return Appointment{}, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return Appointment{}, ErrNotFound
	}
	appointment, err := s.appointments.GetAppointment(ctx, strings.TrimSpace(id))
	if err != nil {
		return Appointment{}, mapAppointmentRepoError(err)
	}
	return appointment, nil
}

// DeleteAppointment removes an appointment.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return fmt.Errorf("appointment repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteAppointment", "appointment_id", id)

	if err := s.appointments.DeleteAppointment(ctx, id); err != nil {
		err = mapAppointmentRepoError(err)
		logger.ErrorContext(ctx, "failed to delete appointment", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	s.warnings.Invalidate()

	logger.InfoContext(ctx, "appointment deleted")
	return nil
}

// ListRange returns appointments starting within [fromMillis, toMillis).
func (s *AppointmentService) ListRange(ctx context.Context, fromMillis, toMillis int64) ([]Appointment, error) {
	if s == nil {
		return nil, fmt.Errorf("AppointmentService is nil")
	}
	if toMillis < fromMillis {
		return nil, fieldError("to", "range end must not precede its start")
	}
	if s.appointments == nil {
		return nil, nil
	}
	appointments, err := s.appointments.ListAppointments(ctx, AppointmentRepositoryFilter{StartsFrom: &fromMillis, StartsBefore: &toMillis})
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}
	return appointments, nil
}

// ListSourceKeys returns the dedup keys of appointments created from flights.
func (s *AppointmentService) ListSourceKeys(ctx context.Context) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return nil, nil
	}
	keys, err := s.appointments.ListSourceKeys(ctx)
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}
	return keys, nil
}

// ResetWarnings drops cached list warnings after the store was changed
// behind the service, such as by a snapshot import.
func (s *AppointmentService) ResetWarnings() {
	if s == nil {
		return
	}
	s.warnings.Invalidate()
}

// prepare validates input and builds the appointment with its zone state and
// resolved instants filled in.
func (s *AppointmentService) prepare(ctx context.Context, input AppointmentInput) (Appointment, error) {
	prefs, err := s.currentPreferences(ctx)
	if err != nil {
		return Appointment{}, err
	}

	appointment := Appointment{
		Title:          strings.TrimSpace(input.Title),
		Date:           strings.TrimSpace(input.Date),
		StartTime:      strings.TrimSpace(input.StartTime),
		EndTime:        strings.TrimSpace(input.EndTime),
		CategoryID:     strings.TrimSpace(input.CategoryID),
		Location:       strings.TrimSpace(input.Location),
		Notes:          strings.TrimSpace(input.Notes),
		Status:         input.Status,
		TimeMode:       input.TimeMode,
		TimeZone:       strings.TrimSpace(input.TimeZone),
		TimeZoneSource: input.TimeZoneSource,
	}
	if appointment.Status == "" {
		appointment.Status = StatusPlanned
	}
	if appointment.TimeMode == "" {
		appointment.TimeMode = prefs.TimeMode
	}

	vErr := validateAppointmentInput(appointment)

	if appointment.TimeMode == timeresolver.ModeTimezone && !vErr.HasErrors() {
		// A zone sent without provenance was picked by the caller.
		if appointment.TimeZone != "" && appointment.TimeZoneSource == "" {
			appointment.TimeZoneSource = timeresolver.SourceManual
		}
		var legs []timeresolver.Leg
		legs, err = travelerLegs(ctx, s.pax, "")
		if err != nil {
			return Appointment{}, err
		}
		state := timeresolver.ResolveZoneState(timeresolver.StateInput{
			Mode:          appointment.TimeMode,
			Date:          appointment.Date,
			Legs:          legs,
			CurrentZone:   appointment.TimeZone,
			CurrentSource: appointment.TimeZoneSource,
			DeviceZone:    s.zones.deviceZone(),
		})
		if state.Zone == "" {
			vErr.add("time_zone", "time zone is required")
		}
		appointment.TimeZone = state.Zone
		appointment.TimeZoneSource = state.Source
	}
	if appointment.TimeMode == timeresolver.ModeLocal {
		appointment.TimeZone = ""
		appointment.TimeZoneSource = ""
	}
	if vErr.HasErrors() {
		return Appointment{}, vErr
	}

	if s.categories != nil {
		exists, cErr := s.categories.CategoryExists(ctx, appointment.CategoryID)
		if cErr != nil {
			return Appointment{}, cErr
		}
		if !exists {
			vErr.add("category_id", "category not found")
			return Appointment{}, vErr
		}
	}

	span := timeresolver.BuildTimeSpan(timeresolver.SpanInput{
		Date:      appointment.Date,
		StartTime: appointment.StartTime,
		EndTime:   appointment.EndTime,
		Mode:      appointment.TimeMode,
		Zone:      appointment.TimeZone,
	})
	if span.StartUTC == nil {
		vErr.add("start_time", "start time cannot be resolved")
		return Appointment{}, vErr
	}
	appointment.StartUTC = *span.StartUTC
	appointment.EndUTC = span.EndUTC
	return appointment, nil
}

func validateAppointmentInput(appointment Appointment) *ValidationError {
	vErr := &ValidationError{}
	if appointment.Title == "" {
		vErr.add("title", "title is required")
	}
	if appointment.Date == "" {
		vErr.add("date", "date is required")
	} else if !timeresolver.IsValidDateKey(appointment.Date) {
		vErr.add("date", "date must be YYYY-MM-DD")
	}
	if appointment.StartTime == "" {
		vErr.add("start_time", "start time is required")
	} else if _, ok := timeresolver.TimeToMinutes(appointment.StartTime); !ok {
		vErr.add("start_time", "start time must be HH:MM")
	}
	if appointment.EndTime != "" {
		if _, ok := timeresolver.TimeToMinutes(appointment.EndTime); !ok {
			vErr.add("end_time", "end time must be HH:MM")
		}
	}
	if appointment.CategoryID == "" {
		vErr.add("category_id", "category is required")
	}
	if !appointment.Status.valid() {
		vErr.add("status", "status must be planned, done, or cancelled")
	}
	switch timeresolver.ParseMode(string(appointment.TimeMode)) {
	case timeresolver.ModeTimezone:
		if appointment.TimeZone != "" && !timeresolver.IsSupportedZone(appointment.TimeZone) {
			vErr.add("time_zone", "time zone is not supported")
		}
		if appointment.TimeZoneSource != "" && timeresolver.ParseSource(string(appointment.TimeZoneSource)) == "" {
			vErr.add("time_zone_source", "time zone source must be manual, inferred, or deviceFallback")
		}
	case timeresolver.ModeLocal:
	default:
		vErr.add("time_mode", "time mode must be local or timezone")
	}
	return vErr
}

func (s *AppointmentService) currentPreferences(ctx context.Context) (Preferences, error) {
	if s.preferences == nil {
		return DefaultPreferences(), nil
	}
	return s.preferences.Get(ctx)
}

// overlapWarnings reports live appointments colliding with appointment.
func (s *AppointmentService) overlapWarnings(ctx context.Context, appointment Appointment) ([]ConflictWarning, error) {
	if appointment.Status == StatusCancelled {
		return nil, nil
	}
	from := appointment.StartUTC - conflictLookback.Milliseconds()
	until := appointment.StartUTC + 1
	if appointment.EndUTC != nil && *appointment.EndUTC >= until {
		until = *appointment.EndUTC
	}

	nearby, err := s.appointments.ListAppointments(ctx, AppointmentRepositoryFilter{StartsFrom: &from, StartsBefore: &until})
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}

	conflicts := scheduler.DetectConflicts(conflictCandidates(nearby), toConflictCandidate(appointment))
	if len(conflicts) == 0 {
		return nil, nil
	}
	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, conflict := range conflicts {
		warnings = append(warnings, ConflictWarning{
			AppointmentID:     appointment.ID,
			WithAppointmentID: conflict.WithAppointmentID,
			Type:              string(conflict.Type),
			OverlapMinutes:    conflict.OverlapMinutes,
		})
	}
	return warnings, nil
}

func conflictCandidates(appointments []Appointment) []scheduler.Appointment {
	out := make([]scheduler.Appointment, 0, len(appointments))
	for _, appointment := range appointments {
		if appointment.Status == StatusCancelled {
			continue
		}
		out = append(out, toConflictCandidate(appointment))
	}
	return out
}

func toConflictCandidate(appointment Appointment) scheduler.Appointment {
	return scheduler.Appointment{ID: appointment.ID, Start: appointment.StartUTC, End: appointment.EndUTC}
}

func mapAppointmentRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return fieldError("category_id", "category not found")
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("appointment", "appointment violates storage constraints")
	}
	return err
}
