// Package timeresolver converts wall-clock appointment moments to UTC
// instants and back, resolves "today" and "now" per time mode, and infers a
// traveler's timezone from itinerary legs.
//
// Every function is pure apart from the per-zone location cache. Malformed
// input yields sentinel results (ok=false, nil pointers, empty strings) and
// never an error.
package timeresolver
