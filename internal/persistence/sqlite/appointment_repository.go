package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/appointment-planner/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository using SQLite.
type AppointmentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAppointmentRepository creates a new SQLite appointment repository.
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const appointmentColumns = `id, title, date, start_time, end_time, category_id, location, notes, status,
	time_mode, time_zone, time_zone_source, start_utc_ms, end_utc_ms, source_key, source_pax, created_at, updated_at`

// CreateAppointment inserts a new appointment.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.insertAppointment(ctx, tx, appointment)
	})
}

func (r *AppointmentRepository) insertAppointment(ctx context.Context, tx *sql.Tx, appointment persistence.Appointment) error {
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now().UTC()
	}
	if appointment.UpdatedAt.IsZero() {
		appointment.UpdatedAt = appointment.CreatedAt
	}

	query := `INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.ExecTx(ctx, tx, query,
		appointment.ID,
		appointment.Title,
		appointment.Date,
		appointment.StartTime,
		nullString(appointment.EndTime),
		appointment.CategoryID,
		nullString(appointment.Location),
		nullString(appointment.Notes),
		appointment.Status,
		appointment.TimeMode,
		nullString(appointment.TimeZone),
		nullString(appointment.TimeZoneSource),
		appointment.StartUTCMillis,
		nullInt64(appointment.EndUTCMillis),
		nullString(appointment.SourceKey),
		nullString(appointment.SourcePax),
		formatTimestamp(appointment.CreatedAt),
		formatTimestamp(appointment.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateAppointment replaces the editable fields of an appointment. The
// creation timestamp and the import source are left untouched.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrNotFound
	}
	if appointment.UpdatedAt.IsZero() {
		appointment.UpdatedAt = time.Now().UTC()
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE appointments
			SET title = ?, date = ?, start_time = ?, end_time = ?, category_id = ?, location = ?, notes = ?,
				status = ?, time_mode = ?, time_zone = ?, time_zone_source = ?, start_utc_ms = ?, end_utc_ms = ?,
				updated_at = ?
			WHERE id = ?`
		result, err := r.helper.ExecTx(ctx, tx, query,
			appointment.Title,
			appointment.Date,
			appointment.StartTime,
			nullString(appointment.EndTime),
			appointment.CategoryID,
			nullString(appointment.Location),
			nullString(appointment.Notes),
			appointment.Status,
			appointment.TimeMode,
			nullString(appointment.TimeZone),
			nullString(appointment.TimeZoneSource),
			appointment.StartUTCMillis,
			nullInt64(appointment.EndUTCMillis),
			formatTimestamp(appointment.UpdatedAt),
			appointment.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
}

// GetAppointment retrieves an appointment by ID.
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	appointment, err := scanAppointment(row)
	if err != nil {
		return persistence.Appointment{}, r.mapper.MapError(err)
	}
	return appointment, nil
}

// ListAppointments returns appointments matching filter ordered by start instant.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	query, args := r.buildListQuery(filter)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	appointments := make([]persistence.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) buildListQuery(filter persistence.AppointmentFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.StartsFrom != nil {
		conditions = append(conditions, "start_utc_ms >= ?")
		args = append(args, *filter.StartsFrom)
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_utc_ms < ?")
		args = append(args, *filter.StartsBefore)
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, "category_id = ?")
		args = append(args, filter.CategoryID)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_utc_ms ASC, created_at ASC, id ASC"
	return query, args
}

// DeleteAppointment removes an appointment.
func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `DELETE FROM appointments WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
}

// ListSourceKeys returns the dedup keys of appointments created from flights.
func (r *AppointmentRepository) ListSourceKeys(ctx context.Context) ([]string, error) {
	rows, err := r.helper.Query(ctx, `SELECT source_key FROM appointments WHERE source_key IS NOT NULL ORDER BY source_key`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan source key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source keys: %w", err)
	}
	return keys, nil
}

func scanAppointment(row rowScanner) (persistence.Appointment, error) {
	var (
		appointment                                persistence.Appointment
		endTime, location, notes, zone, zoneSource sql.NullString
		sourceKey, sourcePax                       sql.NullString
		endUTC                                     sql.NullInt64
		createdAt, updatedAt                       string
	)
	err := row.Scan(
		&appointment.ID,
		&appointment.Title,
		&appointment.Date,
		&appointment.StartTime,
		&endTime,
		&appointment.CategoryID,
		&location,
		&notes,
		&appointment.Status,
		&appointment.TimeMode,
		&zone,
		&zoneSource,
		&appointment.StartUTCMillis,
		&endUTC,
		&sourceKey,
		&sourcePax,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Appointment{}, persistence.ErrNotFound
		}
		return persistence.Appointment{}, fmt.Errorf("failed to scan appointment: %w", err)
	}

	appointment.EndTime = stringPtr(endTime)
	appointment.Location = stringPtr(location)
	appointment.Notes = stringPtr(notes)
	appointment.TimeZone = stringPtr(zone)
	appointment.TimeZoneSource = stringPtr(zoneSource)
	appointment.EndUTCMillis = int64Ptr(endUTC)
	appointment.SourceKey = stringPtr(sourceKey)
	appointment.SourcePax = stringPtr(sourcePax)

	if appointment.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Appointment{}, err
	}
	return appointment, nil
}
