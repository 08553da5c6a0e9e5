package timeresolver

import "strings"

// SpanInput carries the form values a span is resolved from.
type SpanInput struct {
	Date      string
	StartTime string
	EndTime   string
	Mode      Mode
	Zone      string
}

// Span is the resolved pair of instants. Nil fields are not yet resolvable.
type Span struct {
	StartUTC  *int64
	EndUTC    *int64
	Overnight bool
}

// BuildTimeSpan resolves start and optional end instants. An end earlier than
// the start is moved to the following day, once.
func BuildTimeSpan(in SpanInput) Span {
	if strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.StartTime) == "" {
		return Span{}
	}
	frame := Frame{Mode: in.Mode, Zone: in.Zone}

	start, ok := frame.ToUTC(Moment{Date: in.Date, Time: in.StartTime})
	if !ok {
		return Span{}
	}
	span := Span{StartUTC: &start}
	if strings.TrimSpace(in.EndTime) == "" {
		return span
	}

	end, ok := frame.ToUTC(Moment{Date: in.Date, Time: in.EndTime})
	if !ok {
		return span
	}
	if end < start {
		nextDay, ok := AddDays(in.Date, 1)
		if !ok {
			return span
		}
		end, ok = frame.ToUTC(Moment{Date: nextDay, Time: in.EndTime})
		if !ok {
			return span
		}
		span.Overnight = true
	}
	span.EndUTC = &end
	return span
}
