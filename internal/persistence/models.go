package persistence

import "time"

// Category groups appointments under a colored label.
type Category struct {
	ID        string
	Name      string
	Color     string
	Icon      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is the stored form of an appointment. The wall-clock strings
// are kept alongside the instants they resolved to.
type Appointment struct {
	ID             string
	Title          string
	Date           string
	StartTime      string
	EndTime        *string
	CategoryID     string
	Location       *string
	Notes          *string
	Status         string
	TimeMode       string
	TimeZone       *string
	TimeZoneSource *string
	StartUTCMillis int64
	EndUTCMillis   *int64
	SourceKey      *string
	SourcePax      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaxFlight is one cached flight of a traveler.
type PaxFlight struct {
	ID           string
	PaxName      string
	FlightDate   string
	PNR          *string
	Airline      *string
	FlightNumber string
	FromIATA     string
	ToIATA       string
	DepScheduled string
	ArrScheduled string
}

// PaxState is the stored traveler selection and per-traveler flight caches.
type PaxState struct {
	SelectedPax *string
	PaxNames    []string
	Flights     []PaxFlight
}

// Snapshot is the full data set used by export and import.
type Snapshot struct {
	Categories   []Category
	Appointments []Appointment
	Preferences  map[string]string
	Pax          PaxState
}
