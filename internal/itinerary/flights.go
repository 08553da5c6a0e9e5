package itinerary

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/appointment-planner/internal/airports"
	"github.com/example/appointment-planner/internal/timeresolver"
)

// Flight is one cached flight of a traveler.
type Flight struct {
	ID           string `json:"id"`
	PaxName      string `json:"pax_name"`
	FlightDate   string `json:"flight_date"`
	PNR          string `json:"pnr,omitempty"`
	Airline      string `json:"airline,omitempty"`
	FlightNumber string `json:"flight_number"`
	FromIATA     string `json:"from_iata"`
	ToIATA       string `json:"to_iata"`
	DepScheduled string `json:"dep_scheduled"`
	ArrScheduled string `json:"arr_scheduled"`
}

// DedupKey identifies the flight for a traveler on a day.
func (f Flight) DedupKey() string {
	return DedupKey(f.PaxName, f.FlightDate, f.FlightNumber)
}

// Record rebuilds the normalized record for the cached flight.
func (f Flight) Record() Record {
	return Record{
		PaxNames:     []string{f.PaxName},
		PNR:          f.PNR,
		FlightDate:   f.FlightDate,
		Airline:      f.Airline,
		FlightNumber: f.FlightNumber,
		FromIATA:     f.FromIATA,
		ToIATA:       f.ToIATA,
		DepScheduled: f.DepScheduled,
		ArrScheduled: f.ArrScheduled,
	}
}

// FlightSource links an appointment back to the flight it was created from.
type FlightSource struct {
	PaxName      string `json:"pax_name"`
	FlightNumber string `json:"flight_number"`
	FromIATA     string `json:"from_iata"`
	ToIATA       string `json:"to_iata"`
	DepScheduled string `json:"dep_scheduled"`
	ArrScheduled string `json:"arr_scheduled"`
}

// Draft is an appointment proposed for an imported flight. Times are shown
// in the departure zone.
type Draft struct {
	Title     string
	Date      string
	StartTime string
	EndTime   string
	Location  string
	Notes     string
	TimeZone  string
	StartUTC  int64
	EndUTC    *int64
	DedupKey  string
	Source    FlightSource
}

// ImportedFlight pairs the cached flight with its appointment draft.
type ImportedFlight struct {
	Flight      Flight
	Appointment Draft
}

// BuildImportedFlight prepares the cache entry and appointment draft for one
// traveler's flight. Departure zones off the supported list fall back to
// defaultZone. It reports false when the departure time cannot be read.
//
// The draft's date is the departure date in the departure zone, not the
// record's flightDate, so that date, start time and zone always resolve back
// to StartUTC. The flightDate still keys the cached flight and DedupKey.
func BuildImportedFlight(rec Record, paxName, defaultZone string, newID func() string) (ImportedFlight, bool) {
	depZone := displayZone(airports.Lookup(rec.FromIATA), defaultZone)
	if depZone == "" {
		return ImportedFlight{}, false
	}
	arrZone := displayZone(airports.Lookup(rec.ToIATA), depZone)

	dep, ok := ParseScheduled(rec.DepScheduled, depZone)
	if !ok {
		return ImportedFlight{}, false
	}

	draft := Draft{
		Title:     fmt.Sprintf("Flight %s %s → %s", rec.FlightNumber, rec.FromIATA, rec.ToIATA),
		Date:      dep.Moment.Date,
		StartTime: dep.Moment.Time,
		Location:  fmt.Sprintf("%s → %s", rec.FromIATA, rec.ToIATA),
		Notes:     flightNotes(rec),
		TimeZone:  depZone,
		StartUTC:  dep.UTC,
		DedupKey:  DedupKey(paxName, rec.FlightDate, rec.FlightNumber),
		Source: FlightSource{
			PaxName:      paxName,
			FlightNumber: rec.FlightNumber,
			FromIATA:     rec.FromIATA,
			ToIATA:       rec.ToIATA,
			DepScheduled: rec.DepScheduled,
			ArrScheduled: rec.ArrScheduled,
		},
	}
	if arr, ok := ParseScheduled(rec.ArrScheduled, arrZone); ok && arr.UTC >= dep.UTC {
		end := arr.UTC
		draft.EndUTC = &end
		draft.EndTime = timeresolver.UTCToZoned(end, depZone).Time
	}

	var id string
	if newID != nil {
		id = newID()
	}
	return ImportedFlight{
		Flight: Flight{
			ID:           id,
			PaxName:      paxName,
			FlightDate:   rec.FlightDate,
			PNR:          rec.PNR,
			Airline:      rec.Airline,
			FlightNumber: rec.FlightNumber,
			FromIATA:     rec.FromIATA,
			ToIATA:       rec.ToIATA,
			DepScheduled: rec.DepScheduled,
			ArrScheduled: rec.ArrScheduled,
		},
		Appointment: draft,
	}, true
}

func displayZone(info airports.Info, fallback string) string {
	if zone := timeresolver.NormalizeZone(info.TimeZone); zone != "" {
		return zone
	}
	return timeresolver.NormalizeZone(fallback)
}

// Scheduled is a parsed scheduled time.
type Scheduled struct {
	UTC    int64
	Moment timeresolver.Moment
}

var (
	offsetSuffix     = regexp.MustCompile(`([zZ]|[+-]\d{2}:?\d{2})$`)
	dateTimePattern  = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})[T\s](\d{2}):(\d{2})`)
	offsetTimeLayout = []string{
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05.999999999Z07:00",
		"2006-01-02T15:04Z0700",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02 15:04Z07:00",
		"2006-01-02 15:04:05Z07:00",
	}
)

// ParseScheduled reads a scheduled timestamp. Values carrying an offset are
// absolute; values without one are read as wall-clock time in zone. The
// returned moment is rendered in zone either way.
func ParseScheduled(value, zone string) (Scheduled, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Scheduled{}, false
	}

	if offsetSuffix.MatchString(value) {
		if strings.HasSuffix(value, "z") {
			value = strings.TrimSuffix(value, "z") + "Z"
		}
		for _, layout := range offsetTimeLayout {
			parsed, err := time.Parse(layout, value)
			if err != nil {
				continue
			}
			utc := parsed.UnixMilli()
			return Scheduled{UTC: utc, Moment: timeresolver.UTCToZoned(utc, zone)}, true
		}
		return Scheduled{}, false
	}

	parts := dateTimePattern.FindStringSubmatch(value)
	if parts == nil || timeresolver.NormalizeZone(zone) == "" {
		return Scheduled{}, false
	}
	moment := timeresolver.Moment{Date: parts[1], Time: parts[2] + ":" + parts[3]}
	utc, ok := timeresolver.ZonedToUTC(moment, zone)
	if !ok {
		return Scheduled{}, false
	}
	return Scheduled{UTC: utc, Moment: moment}, true
}

func flightNotes(rec Record) string {
	var lines []string
	if rec.Airline != "" {
		lines = append(lines, "Airline: "+rec.Airline)
	}
	if rec.PNR != "" {
		lines = append(lines, "PNR: "+rec.PNR)
	}
	if from := joinNonEmpty(rec.FromCityName, rec.FromAirportName, rec.FromIATA); from != "" {
		lines = append(lines, "From: "+from)
	}
	if to := joinNonEmpty(rec.ToCityName, rec.ToAirportName, rec.ToIATA); to != "" {
		lines = append(lines, "To: "+to)
	}
	return strings.Join(lines, "\n")
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ", ")
}

// DedupKey builds the traveler/day/flight key used to skip repeat imports.
func DedupKey(paxName, flightDate, flightNumber string) string {
	return paxName + "__" + flightDate + "__" + flightNumber
}

// Dedupe keeps the first flight per dedup key, preserving order.
func Dedupe(flights []Flight) []Flight {
	seen := make(map[string]struct{}, len(flights))
	out := make([]Flight, 0, len(flights))
	for _, flight := range flights {
		key := flight.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, flight)
	}
	return out
}

// Legs converts cached flights to itinerary legs with airport regions.
func Legs(flights []Flight) []timeresolver.Leg {
	legs := make([]timeresolver.Leg, 0, len(flights))
	for _, flight := range flights {
		legs = append(legs, timeresolver.Leg{
			PaxName:   flight.PaxName,
			Date:      flight.FlightDate,
			From:      region(flight.FromIATA),
			To:        region(flight.ToIATA),
			Departure: clockTime(flight.DepScheduled),
			Arrival:   clockTime(flight.ArrScheduled),
		})
	}
	return legs
}

var clockPattern = regexp.MustCompile(`(\d{2}):(\d{2})`)

func clockTime(scheduled string) string {
	return clockPattern.FindString(scheduled)
}

func region(iata string) timeresolver.Region {
	info := airports.Lookup(iata)
	return timeresolver.Region{Code: info.CountryCode, Name: info.CountryName}
}
