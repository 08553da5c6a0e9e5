// Package itinerary turns raw trip exports into per-traveler flights,
// itinerary legs, and flight appointment drafts.
//
// Trip exports come in two record shapes. Flat records carry the flight
// fields at the top level; routed records nest them under route.departure
// and route.arrival. NormalizeRecord collapses both into Record.
package itinerary
