package timeresolver

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database
)

// ZoneOption is one entry of the supported timezone list.
type ZoneOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var supportedZones = []ZoneOption{
	{ID: "Europe/London", Label: "London"},
	{ID: "Europe/Dublin", Label: "Dublin"},
	{ID: "Europe/Lisbon", Label: "Lisbon"},
	{ID: "Atlantic/Reykjavik", Label: "Reykjavik"},
	{ID: "Atlantic/Canary", Label: "Canary Islands"},
	{ID: "Atlantic/Madeira", Label: "Madeira"},
	{ID: "Atlantic/Azores", Label: "Azores"},
	{ID: "Europe/Paris", Label: "Paris"},
	{ID: "Europe/Berlin", Label: "Berlin"},
	{ID: "Europe/Zurich", Label: "Zurich"},
	{ID: "Europe/Rome", Label: "Rome"},
	{ID: "Europe/Madrid", Label: "Madrid"},
	{ID: "Europe/Amsterdam", Label: "Amsterdam"},
	{ID: "Europe/Brussels", Label: "Brussels"},
	{ID: "Europe/Luxembourg", Label: "Luxembourg"},
	{ID: "Europe/Vienna", Label: "Vienna"},
	{ID: "Europe/Prague", Label: "Prague"},
	{ID: "Europe/Bratislava", Label: "Bratislava"},
	{ID: "Europe/Warsaw", Label: "Warsaw"},
	{ID: "Europe/Budapest", Label: "Budapest"},
	{ID: "Europe/Stockholm", Label: "Stockholm"},
	{ID: "Europe/Oslo", Label: "Oslo"},
	{ID: "Europe/Copenhagen", Label: "Copenhagen"},
	{ID: "Europe/Zagreb", Label: "Zagreb"},
	{ID: "Europe/Ljubljana", Label: "Ljubljana"},
	{ID: "Europe/Belgrade", Label: "Belgrade"},
	{ID: "Europe/Malta", Label: "Malta"},
	{ID: "Europe/Gibraltar", Label: "Gibraltar"},
	{ID: "Europe/Helsinki", Label: "Helsinki"},
	{ID: "Europe/Tallinn", Label: "Tallinn"},
	{ID: "Europe/Riga", Label: "Riga"},
	{ID: "Europe/Vilnius", Label: "Vilnius"},
	{ID: "Europe/Athens", Label: "Athens"},
	{ID: "Europe/Bucharest", Label: "Bucharest"},
	{ID: "Europe/Sofia", Label: "Sofia"},
	{ID: "Europe/Kyiv", Label: "Kyiv"},
	{ID: "Asia/Nicosia", Label: "Nicosia"},
	{ID: "Europe/Istanbul", Label: "Istanbul"},
}

var supportedZoneSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(supportedZones))
	for _, zone := range supportedZones {
		set[zone.ID] = struct{}{}
	}
	return set
}()

// countryZones maps ISO 3166-1 alpha-2 codes to the zone a traveler in that
// country is assumed to keep.
var countryZones = map[string]string{
	"CY": "Asia/Nicosia",
	"GB": "Europe/London",
	"IE": "Europe/Dublin",
	"FR": "Europe/Paris",
	"DE": "Europe/Berlin",
	"CH": "Europe/Zurich",
	"IT": "Europe/Rome",
	"ES": "Europe/Madrid",
	"PT": "Europe/Lisbon",
	"NL": "Europe/Amsterdam",
	"BE": "Europe/Brussels",
	"AT": "Europe/Vienna",
	"CZ": "Europe/Prague",
	"SK": "Europe/Bratislava",
	"PL": "Europe/Warsaw",
	"HU": "Europe/Budapest",
	"SE": "Europe/Stockholm",
	"NO": "Europe/Oslo",
	"DK": "Europe/Copenhagen",
	"FI": "Europe/Helsinki",
	"GR": "Europe/Athens",
	"HR": "Europe/Zagreb",
	"SI": "Europe/Ljubljana",
	"EE": "Europe/Tallinn",
	"LV": "Europe/Riga",
	"LT": "Europe/Vilnius",
	"LU": "Europe/Luxembourg",
	"MT": "Europe/Malta",
	"IS": "Atlantic/Reykjavik",
	"RO": "Europe/Bucharest",
	"BG": "Europe/Sofia",
	"RS": "Europe/Belgrade",
	"TR": "Europe/Istanbul",
}

// SupportedZones returns a copy of the allow-list in display order.
func SupportedZones() []ZoneOption {
	out := make([]ZoneOption, len(supportedZones))
	copy(out, supportedZones)
	return out
}

// IsSupportedZone reports whether zone is on the allow-list.
func IsSupportedZone(zone string) bool {
	_, ok := supportedZoneSet[strings.TrimSpace(zone)]
	return ok
}

// NormalizeZone returns the trimmed zone when supported and "" otherwise.
func NormalizeZone(zone string) string {
	zone = strings.TrimSpace(zone)
	if _, ok := supportedZoneSet[zone]; !ok {
		return ""
	}
	return zone
}

// ZoneForCountry returns the default supported zone for a country code.
func ZoneForCountry(countryCode string) string {
	return NormalizeZone(countryZones[strings.ToUpper(strings.TrimSpace(countryCode))])
}

// Files consulted when time.Local carries no IANA name, which is the case
// whenever TZ is unset and the zone was loaded from /etc/localtime.
const (
	timezoneFile  = "/etc/timezone"
	localtimeFile = "/etc/localtime"
)

// DeviceZone reports the host's ambient zone when it is supported.
func DeviceZone() string {
	return hostZone(time.Local.String(), os.Getenv("TZ"), timezoneFile, localtimeFile)
}

// hostZone tries, in order, the name of the local location, the TZ variable,
// the zone name in timezonePath and the zoneinfo path localtimePath links to.
// The first supported candidate wins.
func hostZone(localName, tz, timezonePath, localtimePath string) string {
	if localName != "Local" {
		if zone := NormalizeZone(localName); zone != "" {
			return zone
		}
	}
	if zone := NormalizeZone(zoneinfoName(strings.TrimPrefix(strings.TrimSpace(tz), ":"))); zone != "" {
		return zone
	}
	if raw, err := os.ReadFile(timezonePath); err == nil {
		line, _, _ := strings.Cut(string(raw), "\n")
		if zone := NormalizeZone(line); zone != "" {
			return zone
		}
	}
	if target, err := os.Readlink(localtimePath); err == nil {
		return NormalizeZone(zoneinfoName(target))
	}
	return ""
}

// zoneinfoName strips a zoneinfo directory prefix, turning
// /usr/share/zoneinfo/Europe/Paris into Europe/Paris.
func zoneinfoName(path string) string {
	if _, name, ok := strings.Cut(path, "zoneinfo/"); ok {
		return name
	}
	return path
}
