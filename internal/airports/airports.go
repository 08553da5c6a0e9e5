// Package airports resolves IATA airport codes to their country and zone.
package airports

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
)

//go:embed airports.csv
var airportsCSV []byte

// UnknownCountryCode marks airports missing from the directory.
const UnknownCountryCode = "UN"

// Info describes one airport.
type Info struct {
	IATA        string `json:"iata"`
	Name        string `json:"name,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	TimeZone    string `json:"time_zone,omitempty"`
}

// overrides correct directory rows whose zone does not match the one the
// planner keeps for that country.
var overrides = map[string]Info{
	"LCA": {CountryCode: "CY", CountryName: "Cyprus", TimeZone: "Asia/Nicosia"},
	"PFO": {CountryCode: "CY", CountryName: "Cyprus", TimeZone: "Asia/Nicosia"},
	"ECN": {CountryCode: "CY", CountryName: "Cyprus", TimeZone: "Asia/Nicosia"},
}

var (
	loadOnce  sync.Once
	directory map[string]Info
	loadErr   error
)

func load() (map[string]Info, error) {
	loadOnce.Do(func() {
		directory, loadErr = parseDirectory(bytes.NewReader(airportsCSV))
	})
	return directory, loadErr
}

func parseDirectory(r io.Reader) (map[string]Info, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("airports: read header: %w", err)
	}
	if header[0] != "iata" {
		return nil, fmt.Errorf("airports: unexpected header %q", strings.Join(header, ","))
	}

	out := make(map[string]Info)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("airports: read row: %w", err)
		}
		code := strings.ToUpper(strings.TrimSpace(record[0]))
		out[code] = Info{
			IATA:        code,
			Name:        record[1],
			City:        record[2],
			CountryCode: record[3],
			CountryName: record[4],
			TimeZone:    record[5],
		}
	}
	return out, nil
}

// Lookup returns the airport for an IATA code. Unknown codes resolve to the
// "UN" country with no zone.
func Lookup(iata string) Info {
	code := strings.ToUpper(strings.TrimSpace(iata))
	if code == "" {
		return unknown(code)
	}

	info, found := Info{}, false
	if entries, err := load(); err == nil {
		info, found = entries[code]
	}
	if override, ok := overrides[code]; ok {
		if !found {
			info = Info{IATA: code}
		}
		info.CountryCode = override.CountryCode
		info.CountryName = override.CountryName
		info.TimeZone = override.TimeZone
		return info
	}
	if !found {
		return unknown(code)
	}
	return info
}

// Known reports whether the code is present in the directory.
func Known(iata string) bool {
	return Lookup(iata).CountryCode != UnknownCountryCode
}

func unknown(code string) Info {
	return Info{IATA: code, CountryCode: UnknownCountryCode, CountryName: "Unknown"}
}

// Flag renders a two letter country code as a regional indicator emoji pair.
// Invalid codes and "UN" yield "".
func Flag(countryCode string) string {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if len(code) != 2 || code == UnknownCountryCode {
		return ""
	}
	const base = 0x1F1E6
	var b strings.Builder
	for i := 0; i < 2; i++ {
		c := code[i]
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(rune(base + int(c-'A')))
	}
	return b.String()
}
