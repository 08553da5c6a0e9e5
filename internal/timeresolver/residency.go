package timeresolver

import (
	"sort"
	"strings"
)

// Region identifies the country an airport belongs to.
type Region struct {
	Code string `json:"country_code"`
	Name string `json:"country_name"`
}

// Leg is one flight segment of a named traveler.
type Leg struct {
	PaxName   string
	Date      string
	From      Region
	To        Region
	Departure string
	Arrival   string
}

// CountryForTravelerOnDate estimates where the traveler is on date.
//
// Before the first travel day the traveler is at the first origin. On a travel
// day they are at that day's first origin. Between travel days, and after the
// last one, they are at the destination of the latest leg on or before date.
func CountryForTravelerOnDate(legs []Leg, date string) (Region, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return Region{}, false
	}

	ordered := make([]Leg, 0, len(legs))
	for _, leg := range legs {
		if leg.Date == "" || leg.PaxName == "" {
			continue
		}
		ordered = append(ordered, leg)
	}
	if len(ordered) == 0 {
		return Region{}, false
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Date != ordered[j].Date {
			return ordered[i].Date < ordered[j].Date
		}
		return departureMinutes(ordered[i]) < departureMinutes(ordered[j])
	})

	if date < ordered[0].Date {
		return ordered[0].From, true
	}

	// days holds the index range of each travel day within ordered.
	type day struct{ first, last int }
	days := make([]day, 0, len(ordered))
	for i := range ordered {
		if i > 0 && ordered[i].Date == ordered[i-1].Date {
			days[len(days)-1].last = i
			continue
		}
		days = append(days, day{first: i, last: i})
	}

	for i, d := range days {
		current := ordered[d.first].Date
		if date == current {
			return ordered[d.first].From, true
		}
		if i+1 == len(days) || date < ordered[days[i+1].first].Date {
			return ordered[d.last].To, true
		}
	}
	return ordered[len(ordered)-1].To, true
}

// InferZoneFromItinerary maps the traveler's country on date to its default
// supported zone, or "" when nothing can be inferred.
func InferZoneFromItinerary(legs []Leg, date string) string {
	region, ok := CountryForTravelerOnDate(legs, date)
	if !ok || region.Code == "" {
		return ""
	}
	return ZoneForCountry(region.Code)
}

func departureMinutes(leg Leg) int {
	minutes, ok := TimeToMinutes(leg.Departure)
	if !ok {
		return 0
	}
	return minutes
}
