// Package ics renders appointments as an iCalendar feed.
package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/appointment-planner/internal/application"
)

// ProductID identifies the feed producer.
const ProductID = "-//appointment-planner//calendar feed//EN"

// propertyTimeZone carries the zone an appointment was entered in. Instants
// in the feed are always UTC.
const propertyTimeZone ical.ComponentProperty = "X-PLANNER-TIME-ZONE"

// Feed describes the calendar being rendered.
type Feed struct {
	Name string
	// Stamp is written as DTSTAMP on every event.
	Stamp time.Time
	// Categories maps category ids to display names.
	Categories map[string]string
}

// Render serializes appointments as a VCALENDAR with one VEVENT each.
func Render(feed Feed, appointments []application.Appointment) string {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)
	if feed.Name != "" {
		cal.SetXWRCalName(feed.Name)
	}

	stamp := feed.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, appointment := range appointments {
		event := cal.AddEvent(eventUID(appointment))
		event.SetDtStampTime(stamp.UTC())
		if !appointment.CreatedAt.IsZero() {
			event.SetCreatedTime(appointment.CreatedAt.UTC())
		}
		if !appointment.UpdatedAt.IsZero() {
			event.SetModifiedAt(appointment.UpdatedAt.UTC())
		}
		event.SetStartAt(time.UnixMilli(appointment.StartUTC).UTC())
		if appointment.EndUTC != nil {
			event.SetEndAt(time.UnixMilli(*appointment.EndUTC).UTC())
		}
		event.SetSummary(appointment.Title)
		if appointment.Location != "" {
			event.SetLocation(appointment.Location)
		}
		if appointment.Notes != "" {
			event.SetDescription(appointment.Notes)
		}
		if name := feed.Categories[appointment.CategoryID]; name != "" {
			event.AddProperty(ical.ComponentPropertyCategories, name)
		}
		event.SetStatus(eventStatus(appointment.Status))
		if appointment.TimeZone != "" {
			event.AddProperty(propertyTimeZone, appointment.TimeZone)
		}
	}

	return cal.Serialize()
}

func eventUID(appointment application.Appointment) string {
	return strings.TrimSpace(appointment.ID) + "@appointment-planner"
}

func eventStatus(status application.Status) ical.ObjectStatus {
	switch status {
	case application.StatusCancelled:
		return ical.ObjectStatusCancelled
	case application.StatusDone:
		return ical.ObjectStatusCompleted
	default:
		return ical.ObjectStatusConfirmed
	}
}
