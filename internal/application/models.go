package application

import (
	"time"

	"github.com/example/appointment-planner/internal/agenda"
	"github.com/example/appointment-planner/internal/itinerary"
	"github.com/example/appointment-planner/internal/timeresolver"
)

// CategoryColors is the palette categories may use.
var CategoryColors = []string{"blue", "green", "orange", "red", "purple", "teal", "indigo", "pink", "yellow", "gray"}

// CategoryInput captures caller provided category fields.
type CategoryInput struct {
	Name  string
	Color string
	Icon  string
}

// Category labels appointments with a color and icon.
type Category struct {
	ID        string
	Name      string
	Color     string
	Icon      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status tracks the lifecycle of an appointment.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

func (s Status) valid() bool {
	return s == StatusPlanned || s == StatusDone || s == StatusCancelled
}

// AppointmentInput captures caller provided appointment fields. An empty
// TimeMode falls back to the stored preference.
type AppointmentInput struct {
	Title          string
	Date           string
	StartTime      string
	EndTime        string
	CategoryID     string
	Location       string
	Notes          string
	Status         Status
	TimeMode       timeresolver.Mode
	TimeZone       string
	TimeZoneSource timeresolver.Source
}

// Appointment is a stored appointment with its resolved instants.
type Appointment struct {
	ID             string
	Title          string
	Date           string
	StartTime      string
	EndTime        string
	CategoryID     string
	Location       string
	Notes          string
	Status         Status
	TimeMode       timeresolver.Mode
	TimeZone       string
	TimeZoneSource timeresolver.Source
	StartUTC       int64
	EndUTC         *int64
	SourceKey      string
	SourcePax      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AgendaFields exposes the attributes agenda views sort and filter on.
func (a Appointment) AgendaFields() agenda.Fields {
	return agenda.Fields{
		Date:       a.Date,
		StartTime:  a.StartTime,
		Title:      a.Title,
		Location:   a.Location,
		Notes:      a.Notes,
		CategoryID: a.CategoryID,
		StartUTC:   a.StartUTC,
		CreatedAt:  a.CreatedAt,
	}
}

// Overnight reports whether the end time falls on the following day.
func (a Appointment) Overnight() bool {
	if a.EndTime == "" {
		return false
	}
	start, okStart := timeresolver.TimeToMinutes(a.StartTime)
	end, okEnd := timeresolver.TimeToMinutes(a.EndTime)
	return okStart && okEnd && end < start
}

// ConflictWarning describes an overlap that should be surfaced to callers.
type ConflictWarning struct {
	AppointmentID     string
	WithAppointmentID string
	Type              string
	OverlapMinutes    int
}

// UpdateAppointmentParams wraps the data required to update an appointment.
type UpdateAppointmentParams struct {
	AppointmentID string
	Input         AppointmentInput
}

// ListAppointmentsParams narrows an appointment listing. A nil ShowPast
// falls back to the stored preference.
type ListAppointmentsParams struct {
	Filters  agenda.Filters
	ShowPast *bool
}

// AgendaDay is one date of the agenda.
type AgendaDay = agenda.Group[Appointment]

// WeekView is the appointments of a Monday-start week.
type WeekView struct {
	Start        string
	End          string
	Days         []string
	Appointments map[string][]Appointment
}

// MonthView is the month grid with appointments keyed by date.
type MonthView struct {
	Year         int
	Month        time.Month
	Days         []agenda.Day
	Appointments map[string][]Appointment
}

// Theme is the color scheme preference.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// CalendarViewMode selects the calendar screen layout.
type CalendarViewMode string

const (
	CalendarViewAgenda CalendarViewMode = "agenda"
	CalendarViewWeek   CalendarViewMode = "week"
	CalendarViewMonth  CalendarViewMode = "month"
)

// CalendarGridMode selects the grid density.
type CalendarGridMode string

const (
	CalendarGridMonth CalendarGridMode = "month"
	CalendarGridWeek  CalendarGridMode = "week"
)

// Preferences are the user's display and time settings.
type Preferences struct {
	Theme            Theme
	ShowPast         bool
	TimeMode         timeresolver.Mode
	CalendarViewMode CalendarViewMode
	CalendarGridMode CalendarGridMode
}

// DefaultPreferences returns the settings used before anything is stored.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:            ThemeSystem,
		ShowPast:         false,
		TimeMode:         timeresolver.ModeTimezone,
		CalendarViewMode: CalendarViewAgenda,
		CalendarGridMode: CalendarGridMonth,
	}
}

// PreferencesPatch updates a subset of preferences. Nil fields are unchanged.
type PreferencesPatch struct {
	Theme            *string
	ShowPast         *bool
	TimeMode         *string
	CalendarViewMode *string
	CalendarGridMode *string
}

// PaxState is the selected traveler and the cached flights of every traveler.
type PaxState struct {
	SelectedPax string
	PaxNames    []string
	Flights     map[string][]itinerary.Flight
}

// ImportTripsResult summarizes a trip import.
type ImportTripsResult struct {
	Stats    itinerary.Stats
	PaxNames []string
	Flights  int
	Skipped  int
}

// ImportFlightsParams selects which traveler's flights become appointments.
type ImportFlightsParams struct {
	PaxName    string
	CategoryID string
}

// ImportFlightsResult reports created appointments and skipped duplicates.
type ImportFlightsResult struct {
	Created    []Appointment
	Duplicates int
}

// PaxCountry is the inferred country of a traveler on a date.
type PaxCountry struct {
	PaxName  string
	Date     string
	Region   timeresolver.Region
	Flag     string
	TimeZone string
	Known    bool
}

// SpanParams carries the form values for a span preview.
type SpanParams struct {
	Date      string
	StartTime string
	EndTime   string
	TimeMode  timeresolver.Mode
	TimeZone  string
}

// ZoneStateParams carries the inputs of zone resolution for a form.
type ZoneStateParams struct {
	Date          string
	TimeMode      timeresolver.Mode
	CurrentZone   string
	CurrentSource timeresolver.Source
	PaxName       string
}

// Snapshot is the complete exportable data set.
type Snapshot struct {
	Version      int
	ExportedAt   time.Time
	Categories   []Category
	Appointments []Appointment
	Preferences  Preferences
	Pax          PaxState
}
