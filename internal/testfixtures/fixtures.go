package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/appointment-planner/internal/application"
	"github.com/example/appointment-planner/internal/itinerary"
	"github.com/example/appointment-planner/internal/persistence"
	"github.com/example/appointment-planner/internal/timeresolver"
)

var (
	categoryCounter    uint64
	appointmentCounter uint64
	flightCounter      uint64
)

// referenceTime is a Monday morning in winter, outside any DST transition.
var referenceTime = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Category fixtures ---------------------------

// CategoryFixture represents a deterministic category record.
type CategoryFixture struct {
	ID        string
	Name      string
	Color     string
	Icon      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryOption configures the generated category fixture.
type CategoryOption func(*CategoryFixture)

// NewCategoryFixture returns a deterministic category fixture with optional overrides.
func NewCategoryFixture(opts ...CategoryOption) CategoryFixture {
	idx := atomic.AddUint64(&categoryCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := CategoryFixture{
		ID:        fmt.Sprintf("cat-%03d", idx),
		Name:      fmt.Sprintf("Category %03d", idx),
		Color:     "blue",
		Icon:      "\U0001F3F7\uFE0F",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCategoryID overrides the category identifier.
func WithCategoryID(id string) CategoryOption {
	return func(f *CategoryFixture) {
		f.ID = id
	}
}

// WithCategoryName overrides the category name.
func WithCategoryName(name string) CategoryOption {
	return func(f *CategoryFixture) {
		f.Name = name
	}
}

// WithCategoryColor overrides the palette color.
func WithCategoryColor(color string) CategoryOption {
	return func(f *CategoryFixture) {
		f.Color = color
	}
}

func (f CategoryFixture) Application() application.Category {
	return application.Category{
		ID:        f.ID,
		Name:      f.Name,
		Color:     f.Color,
		Icon:      f.Icon,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func (f CategoryFixture) Persistence() persistence.Category {
	return persistence.Category{
		ID:        f.ID,
		Name:      f.Name,
		Color:     f.Color,
		Icon:      f.Icon,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func (f CategoryFixture) Input() application.CategoryInput {
	return application.CategoryInput{Name: f.Name, Color: f.Color, Icon: f.Icon}
}

// ------------------------- Appointment fixtures --------------------------

// AppointmentFixture represents a deterministic appointment. Its instants are
// resolved from the wall-clock fields when it is materialised.
type AppointmentFixture struct {
	ID             string
	Title          string
	Date           string
	StartTime      string
	EndTime        string
	CategoryID     string
	Location       string
	Notes          string
	Status         application.Status
	TimeMode       timeresolver.Mode
	TimeZone       string
	TimeZoneSource timeresolver.Source
	SourceKey      string
	SourcePax      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AppointmentOption configures the generated appointment fixture.
type AppointmentOption func(*AppointmentFixture)

// NewAppointmentFixture returns a one hour London appointment on the
// reference day with optional overrides.
func NewAppointmentFixture(opts ...AppointmentOption) AppointmentFixture {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Second)
	fixture := AppointmentFixture{
		ID:             fmt.Sprintf("appt-%03d", idx),
		Title:          fmt.Sprintf("Appointment %03d", idx),
		Date:           "2026-01-05",
		StartTime:      "14:00",
		EndTime:        "15:00",
		CategoryID:     "cat_default_general",
		Status:         application.StatusPlanned,
		TimeMode:       timeresolver.ModeTimezone,
		TimeZone:       "Europe/London",
		TimeZoneSource: timeresolver.SourceManual,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAppointmentID overrides the appointment identifier.
func WithAppointmentID(id string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.ID = id
	}
}

// WithAppointmentTitle overrides the title.
func WithAppointmentTitle(title string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Title = title
	}
}

// WithAppointmentWindow sets the wall-clock date and times. An empty end
// leaves the appointment open ended.
func WithAppointmentWindow(date, start, end string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Date = date
		f.StartTime = start
		f.EndTime = end
	}
}

// WithAppointmentZone anchors the appointment to zone.
func WithAppointmentZone(zone string, source timeresolver.Source) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.TimeMode = timeresolver.ModeTimezone
		f.TimeZone = zone
		f.TimeZoneSource = source
	}
}

// WithAppointmentLocalMode reads the appointment on the host clock.
func WithAppointmentLocalMode() AppointmentOption {
	return func(f *AppointmentFixture) {
		f.TimeMode = timeresolver.ModeLocal
		f.TimeZone = ""
		f.TimeZoneSource = ""
	}
}

// WithAppointmentCategory overrides the category reference.
func WithAppointmentCategory(id string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.CategoryID = id
	}
}

// WithAppointmentStatus overrides the lifecycle status.
func WithAppointmentStatus(status application.Status) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Status = status
	}
}

// WithAppointmentLocation sets the free-form location.
func WithAppointmentLocation(location string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Location = location
	}
}

// WithAppointmentSource marks the appointment as imported from a flight.
func WithAppointmentSource(sourceKey, paxName string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.SourceKey = sourceKey
		f.SourcePax = paxName
	}
}

func (f AppointmentFixture) span() timeresolver.Span {
	return timeresolver.BuildTimeSpan(timeresolver.SpanInput{
		Date:      f.Date,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		Mode:      f.TimeMode,
		Zone:      f.TimeZone,
	})
}

func (f AppointmentFixture) Application() application.Appointment {
	span := f.span()
	appointment := application.Appointment{
		ID:             f.ID,
		Title:          f.Title,
		Date:           f.Date,
		StartTime:      f.StartTime,
		EndTime:        f.EndTime,
		CategoryID:     f.CategoryID,
		Location:       f.Location,
		Notes:          f.Notes,
		Status:         f.Status,
		TimeMode:       f.TimeMode,
		TimeZone:       f.TimeZone,
		TimeZoneSource: f.TimeZoneSource,
		EndUTC:         span.EndUTC,
		SourceKey:      f.SourceKey,
		SourcePax:      f.SourcePax,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
	if span.StartUTC != nil {
		appointment.StartUTC = *span.StartUTC
	}
	return appointment
}

func (f AppointmentFixture) Persistence() persistence.Appointment {
	span := f.span()
	model := persistence.Appointment{
		ID:             f.ID,
		Title:          f.Title,
		Date:           f.Date,
		StartTime:      f.StartTime,
		EndTime:        optionalString(f.EndTime),
		CategoryID:     f.CategoryID,
		Location:       optionalString(f.Location),
		Notes:          optionalString(f.Notes),
		Status:         string(f.Status),
		TimeMode:       string(f.TimeMode),
		TimeZone:       optionalString(f.TimeZone),
		TimeZoneSource: optionalString(string(f.TimeZoneSource)),
		EndUTCMillis:   span.EndUTC,
		SourceKey:      optionalString(f.SourceKey),
		SourcePax:      optionalString(f.SourcePax),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
	if span.StartUTC != nil {
		model.StartUTCMillis = *span.StartUTC
	}
	return model
}

func (f AppointmentFixture) Input() application.AppointmentInput {
	return application.AppointmentInput{
		Title:          f.Title,
		Date:           f.Date,
		StartTime:      f.StartTime,
		EndTime:        f.EndTime,
		CategoryID:     f.CategoryID,
		Location:       f.Location,
		Notes:          f.Notes,
		Status:         f.Status,
		TimeMode:       f.TimeMode,
		TimeZone:       f.TimeZone,
		TimeZoneSource: f.TimeZoneSource,
	}
}

// ---------------------------- Flight fixtures ----------------------------

// FlightFixture represents one cached flight of a traveler.
type FlightFixture struct {
	ID           string
	PaxName      string
	FlightDate   string
	PNR          string
	Airline      string
	FlightNumber string
	FromIATA     string
	ToIATA       string
	DepScheduled string
	ArrScheduled string
}

// FlightOption configures the generated flight fixture.
type FlightOption func(*FlightFixture)

// NewFlightFixture returns a London to Paris morning flight on the reference
// day with optional overrides.
func NewFlightFixture(opts ...FlightOption) FlightFixture {
	idx := atomic.AddUint64(&flightCounter, 1)
	fixture := FlightFixture{
		ID:           fmt.Sprintf("flt-%03d", idx),
		PaxName:      "Alice",
		FlightDate:   "2026-01-05",
		PNR:          fmt.Sprintf("PNR%03d", idx),
		Airline:      "British Airways",
		FlightNumber: fmt.Sprintf("BA%d", 300+idx),
		FromIATA:     "LHR",
		ToIATA:       "CDG",
		DepScheduled: "2026-01-05T08:00",
		ArrScheduled: "2026-01-05T10:15",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithFlightPax overrides the traveler name.
func WithFlightPax(name string) FlightOption {
	return func(f *FlightFixture) {
		f.PaxName = name
	}
}

// WithFlightNumber overrides the flight number.
func WithFlightNumber(number string) FlightOption {
	return func(f *FlightFixture) {
		f.FlightNumber = number
	}
}

// WithFlightRoute overrides the departure and arrival airports.
func WithFlightRoute(from, to string) FlightOption {
	return func(f *FlightFixture) {
		f.FromIATA = from
		f.ToIATA = to
	}
}

// WithFlightSchedule sets the flight date and the local departure and
// arrival clock times of that date.
func WithFlightSchedule(date, departure, arrival string) FlightOption {
	return func(f *FlightFixture) {
		f.FlightDate = date
		f.DepScheduled = date + "T" + departure
		f.ArrScheduled = date + "T" + arrival
	}
}

// WithoutFlightBooking clears the booking reference and airline.
func WithoutFlightBooking() FlightOption {
	return func(f *FlightFixture) {
		f.PNR = ""
		f.Airline = ""
	}
}

func (f FlightFixture) Itinerary() itinerary.Flight {
	return itinerary.Flight{
		ID:           f.ID,
		PaxName:      f.PaxName,
		FlightDate:   f.FlightDate,
		PNR:          f.PNR,
		Airline:      f.Airline,
		FlightNumber: f.FlightNumber,
		FromIATA:     f.FromIATA,
		ToIATA:       f.ToIATA,
		DepScheduled: f.DepScheduled,
		ArrScheduled: f.ArrScheduled,
	}
}

func (f FlightFixture) Persistence() persistence.PaxFlight {
	return persistence.PaxFlight{
		ID:           f.ID,
		PaxName:      f.PaxName,
		FlightDate:   f.FlightDate,
		PNR:          optionalString(f.PNR),
		Airline:      optionalString(f.Airline),
		FlightNumber: f.FlightNumber,
		FromIATA:     f.FromIATA,
		ToIATA:       f.ToIATA,
		DepScheduled: f.DepScheduled,
		ArrScheduled: f.ArrScheduled,
	}
}

// PaxState groups flight fixtures into a traveler state, keeping the order
// in which travelers first appear.
func PaxState(selected string, flights ...FlightFixture) application.PaxState {
	state := application.PaxState{SelectedPax: selected, Flights: map[string][]itinerary.Flight{}}
	for _, flight := range flights {
		if _, ok := state.Flights[flight.PaxName]; !ok {
			state.PaxNames = append(state.PaxNames, flight.PaxName)
		}
		state.Flights[flight.PaxName] = append(state.Flights[flight.PaxName], flight.Itinerary())
	}
	return state
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	v := value
	return &v
}
