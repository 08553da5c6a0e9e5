// Package http provides HTTP handlers and middleware for the appointment planner API.
//
// The router exposes the following endpoints:
//   - GET /healthz: liveness probe, never behind authentication.
//   - GET /api/categories, POST /api/categories, GET|PUT|DELETE /api/categories/{id}:
//     category catalog exchanging the `categoryDTO` payload defined in
//     category_handler.go. Deleting a category in use fails with 409.
//   - GET /api/appointments, POST /api/appointments, GET|PUT|DELETE /api/appointments/{id}:
//     appointment management exchanging `appointmentDTO`. Lists accept q, category,
//     from, to, sort and show_past. Saves return conflict warnings next to the
//     appointment; conflicts never block a save.
//   - GET /api/agenda, /api/calendar/week?date=, /api/calendar/month?year=&month=:
//     calendar views grouped by date key.
//   - GET /api/calendar.ics?from_ms=&to_ms=: iCalendar feed of the appointments.
//   - GET|PUT /api/preferences: display and time mode settings. PUT applies only the
//     fields present in the body.
//   - GET /api/pax, POST /api/pax {"selected_pax"}: traveler selection and cached flights.
//   - POST /api/pax/import: raw trip export JSON; replaces the flight cache.
//   - GET /api/pax/country?pax=&date=: inferred country of a traveler on a date.
//   - POST /api/pax/appointments {"pax_name","category_id"}: turns cached flights into
//     appointments, skipping flights imported before.
//   - GET /api/time/today, /min-start, /span, /zone-state, /zones: the clock questions of
//     the appointment form. They take time_mode, time_zone, date, start_time, end_time,
//     time_zone_source and pax as query parameters.
//   - GET /api/export, POST /api/import: full data set as a versioned JSON document.
//
// When Basic authentication is configured every endpoint except /healthz requires it.
// Errors are JSON objects with error_code and message; validation failures add a
// per-field errors map.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
