package postgres

import (
	"context"
	"database/sql"

	"astroplanner/internal/domain"
)

const locationColumns = "id, name, latitude, longitude, timezone, notes"

func scanLocation(row interface{ Scan(...any) error }) (*domain.Location, error) {
	var l domain.Location
	if err := row.Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude, &l.Timezone, &l.Notes); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLocations returns a user's locations, newest first.
func (d *DB) ListLocations(ctx context.Context, userID int64) ([]domain.Location, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+locationColumns+" FROM locations WHERE owner_id=$1 ORDER BY id DESC;", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// GetLocation returns one of a user's locations.
func (d *DB) GetLocation(ctx context.Context, userID, id int64) (*domain.Location, error) {
	l, err := scanLocation(d.sql.QueryRowContext(ctx,
		"SELECT "+locationColumns+" FROM locations WHERE id=$1 AND owner_id=$2;", id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

// CreateLocation inserts a location.
func (d *DB) CreateLocation(ctx context.Context, userID int64, in domain.LocationInput) (*domain.Location, error) {
	return scanLocation(d.sql.QueryRowContext(ctx,
		"INSERT INTO locations(owner_id, name, latitude, longitude, timezone, notes) VALUES($1, $2, $3, $4, $5, $6) RETURNING "+locationColumns+";",
		userID, in.Name, in.Latitude, in.Longitude, in.Timezone, in.Notes))
}

// UpdateLocation replaces a location's fields.
func (d *DB) UpdateLocation(ctx context.Context, userID, id int64, in domain.LocationInput) (*domain.Location, error) {
	l, err := scanLocation(d.sql.QueryRowContext(ctx,
		"UPDATE locations SET name=$1, latitude=$2, longitude=$3, timezone=$4, notes=$5 WHERE id=$6 AND owner_id=$7 RETURNING "+locationColumns+";",
		in.Name, in.Latitude, in.Longitude, in.Timezone, in.Notes, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

// DeleteLocation removes a location. Sessions and logs go with it through
// ON DELETE CASCADE.
func (d *DB) DeleteLocation(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM locations WHERE id=$1 AND owner_id=$2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
