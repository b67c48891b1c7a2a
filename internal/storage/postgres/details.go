package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/instrument-catalog/internal/domain/details"
)

const (
	getDetailsSQL = `SELECT instrument_id, specifications, faq, buy_links
		FROM instrument_details WHERE instrument_id = $1`

	listDetailIDsSQL = `SELECT instrument_id FROM instrument_details`

	upsertDetailsSQL = `INSERT INTO instrument_details (instrument_id, specifications, faq, buy_links)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (instrument_id) DO UPDATE SET
			specifications = EXCLUDED.specifications,
			faq = EXCLUDED.faq,
			buy_links = EXCLUDED.buy_links,
			updated_at = now()`
)

var _ details.Repository = (*DetailsRepository)(nil)

// DetailsRepository implements details.Repository backed by PostgreSQL.
// Specifications, FAQ and buy links live in JSON columns, which keep key order.
type DetailsRepository struct {
	pool *pgxpool.Pool
}

// NewDetailsRepository returns a DetailsRepository that uses the given pool.
func NewDetailsRepository(pool *pgxpool.Pool) *DetailsRepository {
	return &DetailsRepository{pool: pool}
}

// GetByInstrumentID returns the details of one instrument, or
// details.ErrNotFound when none are stored.
func (r *DetailsRepository) GetByInstrumentID(ctx context.Context, id string) (*details.Details, error) {
	var d details.Details
	var specs, faq, buyLinks []byte
	err := r.pool.QueryRow(ctx, getDetailsSQL, id).Scan(&d.InstrumentID, &specs, &faq, &buyLinks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, details.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get details %q", id)
	}

	if d.Specifications, err = details.DecodeSpecifications(specs); err != nil {
		return nil, errors.Wrapf(err, "decode details %q", id)
	}
	if d.FAQ, err = details.DecodeFAQ(faq); err != nil {
		return nil, errors.Wrapf(err, "decode details %q", id)
	}
	if d.BuyLinks, err = details.DecodeBuyLinks(buyLinks); err != nil {
		return nil, errors.Wrapf(err, "decode details %q", id)
	}
	return &d, nil
}

// ListInstrumentIDs returns the ids of every instrument that has details.
func (r *DetailsRepository) ListInstrumentIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listDetailIDsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list detail ids")
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Upsert inserts or replaces the details of d.InstrumentID. Absent sections
// are stored as NULL.
func (r *DetailsRepository) Upsert(ctx context.Context, d details.Details) error {
	var specs, faq, buyLinks []byte
	if d.Specifications != nil {
		specs = details.Marshal(func(e *jx.Encoder) { details.EncodeSpecifications(e, d.Specifications) })
	}
	if d.FAQ != nil {
		faq = details.Marshal(func(e *jx.Encoder) { details.EncodeFAQ(e, d.FAQ) })
	}
	if d.BuyLinks != nil {
		buyLinks = details.Marshal(func(e *jx.Encoder) { details.EncodeBuyLinks(e, d.BuyLinks) })
	}

	if _, err := r.pool.Exec(ctx, upsertDetailsSQL, d.InstrumentID, specs, faq, buyLinks); err != nil {
		return errors.Wrapf(err, "upsert details %q", d.InstrumentID)
	}
	return nil
}
