package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/appointment-planner/internal/agenda"
	"github.com/example/appointment-planner/internal/scheduler"
	"github.com/example/appointment-planner/internal/timeresolver"
)

// CategoryLister supplies category names for category ordering.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]Category, error)
}

// AppointmentList is a filtered, ordered listing with the overlaps among
// its entries.
type AppointmentList struct {
	Appointments  []Appointment
	Warnings      []ConflictWarning
	FiltersActive bool
	Today         string
}

// ListAppointments filters, orders, and annotates appointments for the agenda.
func (s *AppointmentService) ListAppointments(ctx context.Context, params ListAppointmentsParams, categories CategoryLister) (list AppointmentList, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListAppointments", "category_id", params.Filters.CategoryID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list appointments", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var prefs Preferences
	prefs, err = s.currentPreferences(ctx)
	if err != nil {
		return
	}
	showPast := prefs.ShowPast
	if params.ShowPast != nil {
		showPast = *params.ShowPast
	}
	if params.Filters.Sort == "" {
		params.Filters.Sort = agenda.SortDateAsc
	}
	if params.Filters.CategoryID == "" {
		params.Filters.CategoryID = agenda.AllCategories
	}

	list.Today = timeresolver.TodayKey(s.zones.frame(prefs.TimeMode), s.now())
	list.FiltersActive = params.Filters.Active()

	var all []Appointment
	all, err = s.listAll(ctx)
	if err != nil {
		return
	}

	visible := agenda.VisibleFrom(agenda.ApplyFilters(all, params.Filters), list.Today, showPast)

	var names map[string]string
	if params.Filters.Sort == agenda.SortCategory && categories != nil {
		names, err = categoryNames(ctx, categories)
		if err != nil {
			return
		}
	}
	list.Appointments = agenda.Sort(visible, params.Filters.Sort, names)

	key := buildWarningCacheKey(params, list.Today, showPast)
	if cached, ok := s.warnings.Get(key); ok {
		list.Warnings = cached
		return
	}
	list.Warnings = listWarnings(list.Appointments)
	s.warnings.Store(key, list.Warnings)
	return
}

// Agenda groups a listing by date.
func (s *AppointmentService) Agenda(ctx context.Context, params ListAppointmentsParams, categories CategoryLister) ([]AgendaDay, AppointmentList, error) {
	list, err := s.ListAppointments(ctx, params, categories)
	if err != nil {
		return nil, AppointmentList{}, err
	}
	return agenda.GroupByDate(list.Appointments), list, nil
}

// Week returns the Monday-start week containing date. Appointments that
// already started are hidden unless showPast is set.
func (s *AppointmentService) Week(ctx context.Context, date string, showPast *bool) (WeekView, error) {
	if s == nil {
		return WeekView{}, fmt.Errorf("AppointmentService is nil")
	}
	prefs, err := s.currentPreferences(ctx)
	if err != nil {
		return WeekView{}, err
	}
	if date == "" {
		date = timeresolver.TodayKey(s.zones.frame(prefs.TimeMode), s.now())
	}
	start, end, days, ok := agenda.WeekRange(date)
	if !ok {
		return WeekView{}, fieldError("date", "date must be YYYY-MM-DD")
	}
	show := prefs.ShowPast
	if showPast != nil {
		show = *showPast
	}

	all, err := s.listAll(ctx)
	if err != nil {
		return WeekView{}, err
	}
	inWeek := agenda.InWeek(all, start, end, show, s.now().UnixMilli())
	return WeekView{Start: start, End: end, Days: days, Appointments: agenda.DateMap(inWeek)}, nil
}

// Month returns the month grid with every appointment dated inside it.
func (s *AppointmentService) Month(ctx context.Context, year int, month time.Month) (MonthView, error) {
	if s == nil {
		return MonthView{}, fmt.Errorf("AppointmentService is nil")
	}
	if month < time.January || month > time.December || year < 1 || year > 9999 {
		return MonthView{}, fieldError("month", "year and month are out of range")
	}

	days := agenda.MonthGridDays(year, month)
	all, err := s.listAll(ctx)
	if err != nil {
		return MonthView{}, err
	}
	byDate := agenda.DateMap(all)
	inGrid := make(map[string][]Appointment)
	for _, day := range days {
		if bucket, ok := byDate[day.Date]; ok {
			inGrid[day.Date] = bucket
		}
	}
	return MonthView{Year: year, Month: month, Days: days, Appointments: inGrid}, nil
}

func (s *AppointmentService) listAll(ctx context.Context) ([]Appointment, error) {
	if s.appointments == nil {
		return nil, nil
	}
	all, err := s.appointments.ListAppointments(ctx, AppointmentRepositoryFilter{})
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}
	return all, nil
}

// listWarnings reports every colliding pair in the listing once per side,
// ordered by appointment ID.
func listWarnings(appointments []Appointment) []ConflictWarning {
	pairs := scheduler.ConflictingPairs(conflictCandidates(appointments))
	if len(pairs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(pairs))
	for id := range pairs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var warnings []ConflictWarning
	for _, id := range ids {
		for _, conflict := range pairs[id] {
			warnings = append(warnings, ConflictWarning{
				AppointmentID:     id,
				WithAppointmentID: conflict.WithAppointmentID,
				Type:              string(conflict.Type),
				OverlapMinutes:    conflict.OverlapMinutes,
			})
		}
	}
	return warnings
}

func categoryNames(ctx context.Context, categories CategoryLister) (map[string]string, error) {
	list, err := categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(list))
	for _, category := range list {
		names[category.ID] = category.Name
	}
	return names, nil
}
