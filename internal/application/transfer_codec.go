package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/appointment-planner/internal/itinerary"
	"github.com/example/appointment-planner/internal/timeresolver"
)

// ErrInvalidSnapshot is returned when an import document cannot be decoded.
var ErrInvalidSnapshot = errors.New("application: invalid snapshot document")

type snapshotDocument struct {
	Version      int                   `json:"version"`
	ExportedAt   *time.Time            `json:"exported_at,omitempty"`
	Categories   []categoryDocument    `json:"categories"`
	Appointments []appointmentDocument `json:"appointments"`
	Preferences  map[string]any        `json:"preferences"`
	Pax          paxDocument           `json:"pax"`
}

type categoryDocument struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	Icon      string     `json:"icon"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type appointmentDocument struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Date           string     `json:"date"`
	StartTime      string     `json:"start_time"`
	EndTime        string     `json:"end_time,omitempty"`
	CategoryID     string     `json:"category_id"`
	Location       string     `json:"location,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	Status         string     `json:"status"`
	TimeMode       string     `json:"time_mode"`
	TimeZone       string     `json:"time_zone,omitempty"`
	TimeZoneSource string     `json:"time_zone_source,omitempty"`
	StartUTCMillis int64      `json:"start_utc_ms"`
	EndUTCMillis   *int64     `json:"end_utc_ms,omitempty"`
	SourceKey      string     `json:"source_key,omitempty"`
	SourcePax      string     `json:"source_pax,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type paxDocument struct {
	SelectedPax string             `json:"selected_pax,omitempty"`
	PaxNames    []string           `json:"pax_names"`
	Flights     []itinerary.Flight `json:"flights"`
}

// EncodeSnapshot renders a snapshot as an indented JSON export document.
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	doc := snapshotDocument{
		Version:      snapshot.Version,
		Categories:   make([]categoryDocument, 0, len(snapshot.Categories)),
		Appointments: make([]appointmentDocument, 0, len(snapshot.Appointments)),
		Preferences:  preferenceDocument(snapshot.Preferences),
		Pax:          paxDocument{SelectedPax: snapshot.Pax.SelectedPax, PaxNames: append([]string{}, snapshot.Pax.PaxNames...), Flights: []itinerary.Flight{}},
	}
	if !snapshot.ExportedAt.IsZero() {
		exported := snapshot.ExportedAt.UTC()
		doc.ExportedAt = &exported
	}
	for _, category := range snapshot.Categories {
		doc.Categories = append(doc.Categories, categoryDocument{
			ID:        category.ID,
			Name:      category.Name,
			Color:     category.Color,
			Icon:      category.Icon,
			CreatedAt: timePtr(category.CreatedAt),
			UpdatedAt: timePtr(category.UpdatedAt),
		})
	}
	for _, appointment := range snapshot.Appointments {
		doc.Appointments = append(doc.Appointments, appointmentDocument{
			ID:             appointment.ID,
			Title:          appointment.Title,
			Date:           appointment.Date,
			StartTime:      appointment.StartTime,
			EndTime:        appointment.EndTime,
			CategoryID:     appointment.CategoryID,
			Location:       appointment.Location,
			Notes:          appointment.Notes,
			Status:         string(appointment.Status),
			TimeMode:       string(appointment.TimeMode),
			TimeZone:       appointment.TimeZone,
			TimeZoneSource: string(appointment.TimeZoneSource),
			StartUTCMillis: appointment.StartUTC,
			EndUTCMillis:   appointment.EndUTC,
			SourceKey:      appointment.SourceKey,
			SourcePax:      appointment.SourcePax,
			CreatedAt:      timePtr(appointment.CreatedAt),
			UpdatedAt:      timePtr(appointment.UpdatedAt),
		})
	}
	for _, name := range snapshot.Pax.PaxNames {
		doc.Pax.Flights = append(doc.Pax.Flights, snapshot.Pax.Flights[name]...)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// DecodeSnapshot reads an export document. Values are taken as written;
// TransferService.Import normalizes and validates them.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var doc snapshotDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if doc.Categories == nil || doc.Appointments == nil {
		return Snapshot{}, fmt.Errorf("%w: categories and appointments are required", ErrInvalidSnapshot)
	}

	snapshot := Snapshot{
		Version:     doc.Version,
		Preferences: preferencesFromDocument(doc.Preferences),
		Pax: PaxState{
			SelectedPax: doc.Pax.SelectedPax,
			PaxNames:    doc.Pax.PaxNames,
			Flights:     flightsByPax(doc.Pax.Flights),
		},
	}
	if doc.ExportedAt != nil {
		snapshot.ExportedAt = *doc.ExportedAt
	}
	for _, category := range doc.Categories {
		snapshot.Categories = append(snapshot.Categories, Category{
			ID:        category.ID,
			Name:      category.Name,
			Color:     category.Color,
			Icon:      category.Icon,
			CreatedAt: timeValue(category.CreatedAt),
			UpdatedAt: timeValue(category.UpdatedAt),
		})
	}
	for _, appointment := range doc.Appointments {
		snapshot.Appointments = append(snapshot.Appointments, Appointment{
			ID:             appointment.ID,
			Title:          appointment.Title,
			Date:           appointment.Date,
			StartTime:      appointment.StartTime,
			EndTime:        appointment.EndTime,
			CategoryID:     appointment.CategoryID,
			Location:       appointment.Location,
			Notes:          appointment.Notes,
			Status:         Status(appointment.Status),
			TimeMode:       timeresolver.Mode(appointment.TimeMode),
			TimeZone:       appointment.TimeZone,
			TimeZoneSource: timeresolver.Source(appointment.TimeZoneSource),
			StartUTC:       appointment.StartUTCMillis,
			EndUTC:         appointment.EndUTCMillis,
			SourceKey:      appointment.SourceKey,
			SourcePax:      appointment.SourcePax,
			CreatedAt:      timeValue(appointment.CreatedAt),
			UpdatedAt:      timeValue(appointment.UpdatedAt),
		})
	}
	return snapshot, nil
}

func preferenceDocument(prefs Preferences) map[string]any {
	return map[string]any{
		preferenceTheme:            string(prefs.Theme),
		preferenceShowPast:         prefs.ShowPast,
		preferenceTimeMode:         string(prefs.TimeMode),
		preferenceCalendarViewMode: string(prefs.CalendarViewMode),
		preferenceCalendarGridMode: string(prefs.CalendarGridMode),
	}
}

func preferencesFromDocument(values map[string]any) Preferences {
	flat := make(map[string]string, len(values))
	for key, value := range values {
		switch v := value.(type) {
		case string:
			flat[key] = v
		case bool:
			flat[key] = fmt.Sprint(v)
		}
	}
	return PreferencesFromValues(flat)
}

func timePtr(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	utc := value.UTC()
	return &utc
}

func timeValue(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}
