package itinerary

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Shape tags which raw layout a record was normalized from.
type Shape int

const (
	ShapeFlat Shape = iota + 1
	ShapeRouted
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeRouted:
		return "routed"
	default:
		return "unknown"
	}
}

// Record is a flight record in normalized form.
type Record struct {
	Shape           Shape
	PaxNames        []string
	PNR             string
	FlightDate      string
	Airline         string
	FlightNumber    string
	FromIATA        string
	ToIATA          string
	DepScheduled    string
	ArrScheduled    string
	FromAirportName string
	FromCityName    string
	ToAirportName   string
	ToCityName      string
}

// HasPax reports whether name travels on the record.
func (r Record) HasPax(name string) bool {
	for _, pax := range r.PaxNames {
		if pax == name {
			return true
		}
	}
	return false
}

var scheduledDatePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// NormalizeRecord converts a raw record to a Record. It reports false for
// records that are not usable flights, such as hotel entries.
func NormalizeRecord(raw gjson.Result) (Record, bool) {
	if !raw.IsObject() {
		return Record{}, false
	}
	if isFlat(raw) {
		return normalizeFlat(raw)
	}
	return normalizeRouted(raw)
}

func isFlat(raw gjson.Result) bool {
	if !raw.Get("paxNames").IsArray() {
		return false
	}
	for _, field := range []string{"flightNumber", "fromIata", "toIata", "depScheduled", "arrScheduled"} {
		if raw.Get(field).Type != gjson.String {
			return false
		}
	}
	return true
}

func normalizeFlat(raw gjson.Result) (Record, bool) {
	paxNames := paxNamesOf(raw)
	if len(paxNames) == 0 {
		return Record{}, false
	}
	depScheduled := raw.Get("depScheduled").String()
	flightDate := flightDateOf(raw, depScheduled)
	if flightDate == "" {
		return Record{}, false
	}
	return Record{
		Shape:           ShapeFlat,
		PaxNames:        paxNames,
		PNR:             optionalString(raw, "pnr"),
		FlightDate:      flightDate,
		Airline:         optionalString(raw, "airline"),
		FlightNumber:    strings.TrimSpace(raw.Get("flightNumber").String()),
		FromIATA:        strings.ToUpper(strings.TrimSpace(raw.Get("fromIata").String())),
		ToIATA:          strings.ToUpper(strings.TrimSpace(raw.Get("toIata").String())),
		DepScheduled:    depScheduled,
		ArrScheduled:    raw.Get("arrScheduled").String(),
		FromAirportName: optionalString(raw, "fromAirportName"),
		FromCityName:    optionalString(raw, "fromCityName"),
		ToAirportName:   optionalString(raw, "toAirportName"),
		ToCityName:      optionalString(raw, "toCityName"),
	}, true
}

func normalizeRouted(raw gjson.Result) (Record, bool) {
	paxNames := paxNamesOf(raw)
	if len(paxNames) == 0 {
		return Record{}, false
	}

	route := raw.Get("route")
	departure := route.Get("departure")
	arrival := route.Get("arrival")

	flightNumber := strings.TrimSpace(firstPresent(raw, "route.flightNumber", "flight.flightNumber"))
	if flightNumber == "" {
		return Record{}, false
	}

	rec := Record{
		Shape:           ShapeRouted,
		PaxNames:        paxNames,
		PNR:             optionalString(raw, "pnr"),
		Airline:         strings.TrimSpace(firstPresent(raw, "route.airline", "flight.airline.name")),
		FlightNumber:    flightNumber,
		FromIATA:        upperString(departure.Get("iata")),
		ToIATA:          upperString(arrival.Get("iata")),
		DepScheduled:    stringValue(departure.Get("scheduled")),
		ArrScheduled:    stringValue(arrival.Get("scheduled")),
		FromAirportName: firstPresent(departure, "airportName", "airport"),
		FromCityName:    optionalString(departure, "cityName"),
		ToAirportName:   firstPresent(arrival, "airportName", "airport"),
		ToCityName:      optionalString(arrival, "cityName"),
	}
	if rec.FromIATA == "" || rec.ToIATA == "" || rec.DepScheduled == "" || rec.ArrScheduled == "" {
		return Record{}, false
	}
	rec.FlightDate = flightDateOf(raw, rec.DepScheduled)
	if rec.FlightDate == "" {
		return Record{}, false
	}
	return rec, true
}

func paxNamesOf(raw gjson.Result) []string {
	value := raw.Get("paxNames")
	if !value.IsArray() {
		return nil
	}
	names := make([]string, 0, len(value.Array()))
	for _, item := range value.Array() {
		if item.Type != gjson.String {
			continue
		}
		if name := strings.TrimSpace(item.String()); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func flightDateOf(raw gjson.Result, depScheduled string) string {
	if value := raw.Get("flightDate"); value.Type == gjson.String {
		if date := strings.TrimSpace(value.String()); date != "" {
			return date
		}
	}
	return scheduledDatePattern.FindString(depScheduled)
}

// firstPresent returns the first path holding a non-null value.
func firstPresent(raw gjson.Result, paths ...string) string {
	for _, path := range paths {
		value := raw.Get(path)
		if value.Exists() && value.Type != gjson.Null {
			return value.String()
		}
	}
	return ""
}

func optionalString(raw gjson.Result, path string) string {
	return firstPresent(raw, path)
}

func stringValue(value gjson.Result) string {
	if value.Type != gjson.String {
		return ""
	}
	return value.String()
}

func upperString(value gjson.Result) string {
	return strings.ToUpper(strings.TrimSpace(stringValue(value)))
}
