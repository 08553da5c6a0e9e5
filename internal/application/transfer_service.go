package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/appointment-planner/internal/itinerary"
	"github.com/example/appointment-planner/internal/timeresolver"
)

// SnapshotVersion is the export format version written by Export.
const SnapshotVersion = 1

// SnapshotStore reads and atomically replaces every stored record.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	ReplaceSnapshot(ctx context.Context, snapshot Snapshot) error
}

// TransferService exports and imports the whole data set.
type TransferService struct {
	store  SnapshotStore
	zones  ZoneSettings
	now    func() time.Time
	logger *slog.Logger
	// onImport runs after a successful import.
	onImport func()
}

// NewTransferService constructs a transfer service.
func NewTransferService(store SnapshotStore, zones ZoneSettings, now func() time.Time) *TransferService {
	return NewTransferServiceWithLogger(store, zones, now, nil)
}

// NewTransferServiceWithLogger constructs a transfer service with a specified logger.
func NewTransferServiceWithLogger(store SnapshotStore, zones ZoneSettings, now func() time.Time, logger *slog.Logger) *TransferService {
	if now == nil {
		now = time.Now
	}
	return &TransferService{store: store, zones: zones, now: now, logger: defaultLogger(logger)}
}

// OnImport registers a hook run after each successful import, used to drop
// caches built from the replaced data.
func (s *TransferService) OnImport(hook func()) {
	if s != nil {
		s.onImport = hook
	}
}

func (s *TransferService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TransferService", operation, attrs...)
}

// Export returns every stored record.
func (s *TransferService) Export(ctx context.Context) (snapshot Snapshot, err error) {
	if s == nil {
		err = fmt.Errorf("TransferService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("snapshot store not configured")
		return
	}

	logger := s.loggerWith(ctx, "Export")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to export data", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "data exported",
			"category_count", len(snapshot.Categories),
			"appointment_count", len(snapshot.Appointments),
		)
	}()

	snapshot, err = s.store.LoadSnapshot(ctx)
	if err != nil {
		return
	}
	snapshot.Version = SnapshotVersion
	snapshot.ExportedAt = s.now().UTC()
	snapshot.Pax = normalizePaxState(snapshot.Pax)
	return
}

// Import validates a snapshot and replaces all stored data with it. Nothing
// is written when any record is invalid.
func (s *TransferService) Import(ctx context.Context, snapshot Snapshot) (imported Snapshot, err error) {
	if s == nil {
		err = fmt.Errorf("TransferService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Import")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to import data", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "data imported",
			"category_count", len(imported.Categories),
			"appointment_count", len(imported.Appointments),
			"pax_count", len(imported.Pax.PaxNames),
		)
	}()

	imported.Version = snapshot.Version
	imported.ExportedAt = snapshot.ExportedAt
	imported.Preferences = snapshot.Preferences
	imported.Categories = normalizeCategories(snapshot.Categories)
	imported.Appointments, _ = NormalizeAppointments(snapshot.Appointments, imported.Preferences, s.zones)
	imported.Pax = normalizePaxState(snapshot.Pax)

	vErr := validateSnapshot(imported)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	stamp := s.now()
	for i := range imported.Categories {
		fillTimestamps(&imported.Categories[i].CreatedAt, &imported.Categories[i].UpdatedAt, stamp)
	}
	for i := range imported.Appointments {
		fillTimestamps(&imported.Appointments[i].CreatedAt, &imported.Appointments[i].UpdatedAt, stamp)
	}

	if s.store == nil {
		return
	}
	if err = s.store.ReplaceSnapshot(ctx, imported); err != nil {
		err = mapAppointmentRepoError(err)
		return
	}
	if s.onImport != nil {
		s.onImport()
	}
	return
}

func fillTimestamps(created, updated *time.Time, stamp time.Time) {
	if created.IsZero() {
		*created = stamp
	}
	if updated.IsZero() {
		*updated = *created
	}
}

func normalizeCategories(categories []Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, category := range categories {
		category.ID = strings.TrimSpace(category.ID)
		category.Name = strings.TrimSpace(category.Name)
		category.Color = strings.ToLower(strings.TrimSpace(category.Color))
		if strings.TrimSpace(category.Icon) == "" {
			category.Icon = CategoryIconForName(category.Name)
		}
		out = append(out, category)
	}
	return out
}

// NormalizeAppointments repairs the time fields of stored appointments: an
// unknown mode takes the preferred one, a timezone appointment without a
// supported zone takes the device zone or else the default zone, local
// appointments drop their zone, and the UTC instants are recomputed. It
// reports whether anything changed.
func NormalizeAppointments(appointments []Appointment, prefs Preferences, zones ZoneSettings) ([]Appointment, bool) {
	fallbackMode := timeresolver.ParseMode(string(prefs.TimeMode))
	if fallbackMode == "" {
		fallbackMode = timeresolver.ModeTimezone
	}
	fallbackZone, fallbackSource := zones.deviceZone(), timeresolver.SourceDeviceFallback
	if fallbackZone == "" {
		fallbackZone, fallbackSource = timeresolver.NormalizeZone(zones.DefaultZone), timeresolver.SourceManual
	}

	changed := false
	out := make([]Appointment, 0, len(appointments))
	for _, appointment := range appointments {
		next := appointment

		mode := timeresolver.ParseMode(string(appointment.TimeMode))
		if mode == "" {
			mode = fallbackMode
		}
		next.TimeMode = mode

		if mode == timeresolver.ModeTimezone {
			zone := timeresolver.NormalizeZone(appointment.TimeZone)
			source := timeresolver.ParseSource(string(appointment.TimeZoneSource))
			switch {
			case zone == "":
				zone, source = fallbackZone, fallbackSource
			case source == "":
				source = timeresolver.SourceManual
			}
			next.TimeZone, next.TimeZoneSource = zone, source
		} else {
			next.TimeZone, next.TimeZoneSource = "", ""
		}

		next.StartUTC, next.EndUTC = 0, nil
		span := timeresolver.BuildTimeSpan(timeresolver.SpanInput{
			Date:      next.Date,
			StartTime: next.StartTime,
			EndTime:   next.EndTime,
			Mode:      next.TimeMode,
			Zone:      next.TimeZone,
		})
		if span.StartUTC != nil {
			next.StartUTC = *span.StartUTC
		}
		if strings.TrimSpace(next.EndTime) != "" {
			next.EndUTC = span.EndUTC
		}

		if !sameTimeFields(appointment, next) {
			changed = true
		}
		out = append(out, next)
	}
	return out, changed
}

func sameTimeFields(a, b Appointment) bool {
	if a.TimeMode != b.TimeMode || a.TimeZone != b.TimeZone || a.TimeZoneSource != b.TimeZoneSource || a.StartUTC != b.StartUTC {
		return false
	}
	switch {
	case a.EndUTC == nil && b.EndUTC == nil:
		return true
	case a.EndUTC == nil || b.EndUTC == nil:
		return false
	default:
		return *a.EndUTC == *b.EndUTC
	}
}

func validateSnapshot(snapshot Snapshot) *ValidationError {
	vErr := &ValidationError{}

	categoryIDs := make(map[string]struct{}, len(snapshot.Categories))
	categoryNames := make(map[string]struct{}, len(snapshot.Categories))
	for i, category := range snapshot.Categories {
		field := fmt.Sprintf("categories[%d]", i)
		switch {
		case category.ID == "":
			vErr.add(field, "id is required")
		case category.Name == "":
			vErr.add(field, "name is required")
		case !isCategoryColor(category.Color):
			vErr.add(field, "color is not in the palette")
		}
		if _, dup := categoryIDs[category.ID]; dup && category.ID != "" {
			vErr.add(field, "duplicate category id")
		}
		if _, dup := categoryNames[strings.ToLower(category.Name)]; dup && category.Name != "" {
			vErr.add(field, "duplicate category name")
		}
		categoryIDs[category.ID] = struct{}{}
		categoryNames[strings.ToLower(category.Name)] = struct{}{}
	}

	appointmentIDs := make(map[string]struct{}, len(snapshot.Appointments))
	sourceKeys := make(map[string]struct{})
	for i, appointment := range snapshot.Appointments {
		field := fmt.Sprintf("appointments[%d]", i)
		if msg := appointmentShapeProblem(appointment, categoryIDs); msg != "" {
			vErr.add(field, msg)
		}
		if _, dup := appointmentIDs[appointment.ID]; dup {
			vErr.add(field, "duplicate appointment id")
		}
		appointmentIDs[appointment.ID] = struct{}{}
		if appointment.SourceKey != "" {
			if _, dup := sourceKeys[appointment.SourceKey]; dup {
				vErr.add(field, "duplicate source key")
			}
			sourceKeys[appointment.SourceKey] = struct{}{}
		}
	}
	return vErr
}

// appointmentShapeProblem describes the first problem of a normalized
// appointment, or returns "".
func appointmentShapeProblem(appointment Appointment, categoryIDs map[string]struct{}) string {
	switch {
	case strings.TrimSpace(appointment.ID) == "":
		return "id is required"
	case strings.TrimSpace(appointment.Title) == "":
		return "title is required"
	case !timeresolver.IsValidDateKey(appointment.Date):
		return "date must be YYYY-MM-DD"
	case !validClock(appointment.StartTime):
		return "start time must be HH:MM"
	case appointment.EndTime != "" && !validClock(appointment.EndTime):
		return "end time must be HH:MM"
	case !appointment.Status.valid():
		return "status must be planned, done, or cancelled"
	case appointment.TimeMode == timeresolver.ModeTimezone && appointment.TimeZone == "":
		return "time zone is required"
	case appointment.EndUTC != nil && *appointment.EndUTC < appointment.StartUTC:
		return "end must not precede start"
	}
	if _, ok := categoryIDs[appointment.CategoryID]; !ok {
		return "category not found"
	}
	return ""
}

func validClock(value string) bool {
	_, ok := timeresolver.TimeToMinutes(value)
	return ok
}

// flightsByPax groups a flat flight list by traveler, keeping order.
func flightsByPax(flights []itinerary.Flight) map[string][]itinerary.Flight {
	out := make(map[string][]itinerary.Flight)
	for _, flight := range flights {
		out[flight.PaxName] = append(out[flight.PaxName], flight)
	}
	return out
}
