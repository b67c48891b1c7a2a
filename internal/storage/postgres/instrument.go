package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/instrument-catalog/internal/domain/instrument"
)

const (
	listInstrumentsSQL = `SELECT id, name, brand, price, rating, release_year, description, image
		FROM instruments ORDER BY name, id`

	getInstrumentByIDSQL = `SELECT id, name, brand, price, rating, release_year, description, image
		FROM instruments WHERE id = $1`

	upsertInstrumentSQL = `INSERT INTO instruments (id, name, brand, price, rating, release_year, description, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			price = EXCLUDED.price,
			rating = EXCLUDED.rating,
			release_year = EXCLUDED.release_year,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			updated_at = now()`
)

var _ instrument.Repository = (*InstrumentRepository)(nil)

// InstrumentRepository implements instrument.Repository backed by PostgreSQL.
type InstrumentRepository struct {
	pool *pgxpool.Pool
}

// NewInstrumentRepository returns an InstrumentRepository that uses the given pool.
func NewInstrumentRepository(pool *pgxpool.Pool) *InstrumentRepository {
	return &InstrumentRepository{pool: pool}
}

// List returns every instrument ordered by name.
func (r *InstrumentRepository) List(ctx context.Context) ([]instrument.Instrument, error) {
	rows, err := r.pool.Query(ctx, listInstrumentsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list instruments")
	}
	return pgx.CollectRows(rows, scanInstrument)
}

// GetByID returns a single instrument. It returns instrument.ErrNotFound when
// no row matches.
func (r *InstrumentRepository) GetByID(ctx context.Context, id string) (*instrument.Instrument, error) {
	rows, err := r.pool.Query(ctx, getInstrumentByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get instrument %q", id)
	}

	i, err := pgx.CollectExactlyOneRow(rows, scanInstrument)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, instrument.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get instrument %q", id)
	}
	return &i, nil
}

// Upsert inserts or replaces an instrument.
func (r *InstrumentRepository) Upsert(ctx context.Context, i instrument.Instrument) error {
	var price *decimal.Decimal
	if i.Price.Valid {
		price = &i.Price.Decimal
	}
	var image *string
	if i.Image != "" {
		image = &i.Image
	}

	if _, err := r.pool.Exec(ctx, upsertInstrumentSQL,
		i.ID, i.Name, i.Brand, price, i.Rating, i.ReleaseYear, i.Description, image,
	); err != nil {
		return errors.Wrapf(err, "upsert instrument %q", i.ID)
	}
	return nil
}

func scanInstrument(row pgx.CollectableRow) (instrument.Instrument, error) {
	var (
		i     instrument.Instrument
		price *decimal.Decimal
		image *string
	)
	if err := row.Scan(
		&i.ID, &i.Name, &i.Brand, &price, &i.Rating, &i.ReleaseYear, &i.Description, &image,
	); err != nil {
		return i, err
	}
	if price != nil {
		i.Price = decimal.NewNullDecimal(*price)
	}
	if image != nil {
		i.Image = *image
	}
	return i, nil
}
