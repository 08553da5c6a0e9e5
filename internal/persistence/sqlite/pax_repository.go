package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/appointment-planner/internal/persistence"
)

// PaxRepository stores travelers and their cached flights in SQLite.
type PaxRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPaxRepository creates a new SQLite traveler repository.
func NewPaxRepository(pool *ConnectionPool) *PaxRepository {
	return &PaxRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

var _ persistence.PaxRepository = (*PaxRepository)(nil)

const paxFlightColumns = `id, pax_name, flight_date, pnr, airline, flight_number, from_iata, to_iata, dep_scheduled, arr_scheduled`

// GetPaxState returns the selected traveler, the traveler list and every cached flight.
func (r *PaxRepository) GetPaxState(ctx context.Context) (persistence.PaxState, error) {
	var state persistence.PaxState

	var selected sql.NullString
	err := r.helper.QueryRow(ctx, `SELECT selected_pax FROM pax_selection WHERE id = 1`).Scan(&selected)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return persistence.PaxState{}, r.mapper.MapError(err)
	}
	state.SelectedPax = stringPtr(selected)

	names, err := r.listPaxNames(ctx)
	if err != nil {
		return persistence.PaxState{}, err
	}
	state.PaxNames = names

	flights, err := r.queryFlights(ctx, `SELECT `+paxFlightColumns+` FROM pax_flights ORDER BY pax_name, flight_date, dep_scheduled, id`)
	if err != nil {
		return persistence.PaxState{}, err
	}
	state.Flights = flights
	return state, nil
}

// SetSelectedPax stores the selected traveler; nil clears the selection.
func (r *PaxRepository) SetSelectedPax(ctx context.Context, name *string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.setSelectedPax(ctx, tx, name)
	})
}

func (r *PaxRepository) setSelectedPax(ctx context.Context, tx *sql.Tx, name *string) error {
	const query = `
		INSERT INTO pax_selection (id, selected_pax) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET selected_pax = excluded.selected_pax`
	_, err := r.helper.ExecTx(ctx, tx, query, nullString(name))
	return r.mapper.MapError(err)
}

// ReplacePaxFlights swaps the traveler list and all flight caches in one transaction.
func (r *PaxRepository) ReplacePaxFlights(ctx context.Context, names []string, flights []persistence.PaxFlight) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(ctx, tx, `DELETE FROM pax_flights`); err != nil {
			return r.mapper.MapError(err)
		}
		if _, err := r.helper.ExecTx(ctx, tx, `DELETE FROM pax_names`); err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertPax(ctx, tx, names, flights)
	})
}

func (r *PaxRepository) insertPax(ctx context.Context, tx *sql.Tx, names []string, flights []persistence.PaxFlight) error {
	for _, name := range names {
		if _, err := r.helper.ExecTx(ctx, tx, `INSERT INTO pax_names (name) VALUES (?)`, name); err != nil {
			return r.mapper.MapError(err)
		}
	}

	query := `INSERT INTO pax_flights (` + paxFlightColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, flight := range flights {
		_, err := r.helper.ExecTx(ctx, tx, query,
			flight.ID,
			flight.PaxName,
			flight.FlightDate,
			nullString(flight.PNR),
			nullString(flight.Airline),
			flight.FlightNumber,
			flight.FromIATA,
			flight.ToIATA,
			flight.DepScheduled,
			flight.ArrScheduled,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

// ListPaxFlights returns the cached flights of one traveler in travel order.
func (r *PaxRepository) ListPaxFlights(ctx context.Context, paxName string) ([]persistence.PaxFlight, error) {
	return r.queryFlights(ctx,
		`SELECT `+paxFlightColumns+` FROM pax_flights WHERE pax_name = ? ORDER BY flight_date, dep_scheduled, id`,
		paxName,
	)
}

func (r *PaxRepository) listPaxNames(ctx context.Context) ([]string, error) {
	rows, err := r.helper.Query(ctx, `SELECT name FROM pax_names ORDER BY name`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan traveler: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate travelers: %w", err)
	}
	return names, nil
}

func (r *PaxRepository) queryFlights(ctx context.Context, query string, args ...any) ([]persistence.PaxFlight, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	flights := make([]persistence.PaxFlight, 0)
	for rows.Next() {
		var (
			flight       persistence.PaxFlight
			pnr, airline sql.NullString
		)
		err := rows.Scan(
			&flight.ID,
			&flight.PaxName,
			&flight.FlightDate,
			&pnr,
			&airline,
			&flight.FlightNumber,
			&flight.FromIATA,
			&flight.ToIATA,
			&flight.DepScheduled,
			&flight.ArrScheduled,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		flight.PNR = stringPtr(pnr)
		flight.Airline = stringPtr(airline)
		flights = append(flights, flight)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flights: %w", err)
	}
	return flights, nil
}
