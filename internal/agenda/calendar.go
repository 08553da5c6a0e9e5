package agenda

import (
	"sort"
	"time"

	"github.com/example/appointment-planner/internal/timeresolver"
)

const dateLayout = "2006-01-02"

// WeekStartsOn is the first weekday of calendar rows.
const WeekStartsOn = time.Monday

// Day is one calendar cell.
type Day struct {
	Date    string `json:"date"`
	Day     int    `json:"day"`
	InMonth bool   `json:"in_month"`
}

// StartOfWeek returns the Monday on or before date.
func StartOfWeek(date time.Time) time.Time {
	diff := (int(date.Weekday()) - int(WeekStartsOn) + 7) % 7
	return time.Date(date.Year(), date.Month(), date.Day()-diff, 0, 0, 0, 0, time.UTC)
}

// WeekRange returns the first and last date keys of the week holding dateKey
// along with its seven days.
func WeekRange(dateKey string) (start, end string, days []string, ok bool) {
	year, month, day, ok := timeresolver.ParseDateKey(dateKey)
	if !ok {
		return "", "", nil, false
	}
	first := StartOfWeek(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	days = make([]string, 7)
	for i := range days {
		days[i] = first.AddDate(0, 0, i).Format(dateLayout)
	}
	return days[0], days[6], days, true
}

// MonthGridDays lists whole weeks covering the month.
func MonthGridDays(year int, month time.Month) []Day {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	gridStart := StartOfWeek(first)
	gridEnd := StartOfWeek(last).AddDate(0, 0, 6)

	var days []Day
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 1) {
		days = append(days, Day{Date: d.Format(dateLayout), Day: d.Day(), InMonth: d.Month() == month})
	}
	return days
}

// DateMap buckets items by date, each bucket ordered by start instant.
func DateMap[T Item](items []T) map[string][]T {
	out := make(map[string][]T)
	for _, item := range items {
		date := item.AgendaFields().Date
		if date == "" {
			continue
		}
		out[date] = append(out[date], item)
	}
	for _, bucket := range out {
		sortByStart(bucket)
	}
	return out
}

// InWeek keeps items dated within [weekStart, weekEnd], dropping items that
// already started unless showPast is set, ordered by start instant.
func InWeek[T Item](items []T, weekStart, weekEnd string, showPast bool, nowMillis int64) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		fields := item.AgendaFields()
		if fields.Date == "" || fields.Date < weekStart || fields.Date > weekEnd {
			continue
		}
		if !showPast && fields.StartUTC < nowMillis {
			continue
		}
		out = append(out, item)
	}
	sortByStart(out)
	return out
}

func sortByStart[T Item](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AgendaFields().StartUTC < items[j].AgendaFields().StartUTC
	})
}
