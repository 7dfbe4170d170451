package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"villarosa/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func scanApartment(row interface{ Scan(...any) error }) (domain.Apartment, error) {
	var (
		a           domain.Apartment
		description sql.NullString
		sleeps      sql.NullInt64
	)
	err := row.Scan(
		&a.ID, &a.Ref.PropID, &a.Ref.RoomID, &a.Name, &a.Currency,
		&a.AdultRate, &a.ChildRate, &a.MinStay, &a.MaxStay,
		&description, &sleeps,
	)
	if err != nil {
		return domain.Apartment{}, err
	}
	if description.Valid {
		a.Description = &description.String
	}
	if sleeps.Valid {
		n := int(sleeps.Int64)
		a.Sleeps = &n
	}
	return a, nil
}

func (r *Repo) GetApartment(ctx context.Context, id string) (domain.Apartment, error) {
	a, err := scanApartment(r.db.QueryRowContext(ctx, getApartmentSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Apartment{}, fmt.Errorf("%w: %s", domain.ErrApartmentNotFound, id)
	}
	if err != nil {
		return domain.Apartment{}, err
	}
	return a, nil
}

func (r *Repo) ListApartments(ctx context.Context) ([]domain.Apartment, error) {
	rows, err := r.db.QueryContext(ctx, listApartmentsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Apartment
	for rows.Next() {
		a, err := scanApartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertApartment is the admin/ops write path for the registry.
func (r *Repo) UpsertApartment(ctx context.Context, a domain.Apartment) error {
	var (
		description any
		sleeps      any
	)
	if a.Description != nil {
		description = *a.Description
	}
	if a.Sleeps != nil {
		sleeps = *a.Sleeps
	}
	_, err := r.db.ExecContext(ctx, upsertApartmentSQL,
		a.ID, a.Ref.PropID, a.Ref.RoomID, a.Name, a.Currency,
		a.AdultRate, a.ChildRate, a.MinStay, a.MaxStay,
		description, sleeps,
	)
	return err
}
