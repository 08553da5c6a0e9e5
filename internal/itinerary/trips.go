package itinerary

import (
	"errors"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidDocument is returned when the trip export is not valid JSON.
	ErrInvalidDocument = errors.New("itinerary: invalid trip document")
	// ErrNoTrips is returned when the document holds no trip list.
	ErrNoTrips = errors.New("itinerary: trip list not found")
)

// Trip is one exported trip with its records left raw until normalized.
type Trip struct {
	Name    string
	Records []gjson.Result
}

// Stats summarises what an import would bring in.
type Stats struct {
	TripCount   int `json:"trip_count"`
	RecordCount int `json:"record_count"`
	FlightCount int `json:"flight_count"`
}

// ParseTrips reads a trip export. The document is either an array of trips
// or an object with a "trips" array.
func ParseTrips(raw []byte) ([]Trip, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidDocument
	}
	doc := gjson.ParseBytes(raw)

	list := doc
	if !doc.IsArray() {
		list = doc.Get("trips")
		if !list.IsArray() {
			return nil, ErrNoTrips
		}
	}

	items := list.Array()
	trips := make([]Trip, 0, len(items))
	for _, item := range items {
		trip := Trip{Name: item.Get("name").String()}
		if records := item.Get("records"); records.IsArray() {
			trip.Records = records.Array()
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

// ExtractPaxNames lists every traveler on a usable flight, sorted.
func ExtractPaxNames(trips []Trip) []string {
	seen := make(map[string]struct{})
	for _, trip := range trips {
		for _, raw := range trip.Records {
			rec, ok := NormalizeRecord(raw)
			if !ok {
				continue
			}
			for _, name := range rec.PaxNames {
				seen[name] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TripStats counts trips, raw records, and usable flights.
func TripStats(trips []Trip) Stats {
	stats := Stats{TripCount: len(trips)}
	for _, trip := range trips {
		stats.RecordCount += len(trip.Records)
		for _, raw := range trip.Records {
			if _, ok := NormalizeRecord(raw); ok {
				stats.FlightCount++
			}
		}
	}
	return stats
}

// FlightsForPax returns the normalized flights name travels on, in export order.
func FlightsForPax(trips []Trip, name string) []Record {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	var out []Record
	for _, trip := range trips {
		for _, raw := range trip.Records {
			rec, ok := NormalizeRecord(raw)
			if !ok || !rec.HasPax(name) {
				continue
			}
			out = append(out, rec)
		}
	}
	return out
}
