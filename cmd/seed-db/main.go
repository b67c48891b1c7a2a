package main

import (
	"context"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/instrument-catalog/db"
	"github.com/xenking/instrument-catalog/internal/domain/details"
	"github.com/xenking/instrument-catalog/internal/domain/instrument"
	"github.com/xenking/instrument-catalog/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		seedDir     string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedDir, "seed-dir", "", "directory with instruments.json and details.json (default: embedded fixtures)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	fsys, err := fs.Sub(db.Seed, "seed")
	if err != nil {
		slog.Error("open embedded seed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if seedDir != "" {
		fsys = os.DirFS(seedDir)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fsys); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, fsys fs.FS) error {
	instruments, err := readInstruments(fsys, "instruments.json")
	if err != nil {
		return errors.Wrap(err, "read instruments")
	}
	records, err := readDetails(fsys, "details.json")
	if err != nil {
		return errors.Wrap(err, "read details")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	instrumentRepo := postgres.NewInstrumentRepository(pool)
	slog.Info("upserting instruments", slog.Int("count", len(instruments)))
	for _, i := range instruments {
		if err := instrumentRepo.Upsert(ctx, i); err != nil {
			return errors.Wrapf(err, "upsert instrument %s", i.ID)
		}
		slog.Info("upserted instrument", slog.String("id", i.ID), slog.String("name", i.Name))
	}

	detailsRepo := postgres.NewDetailsRepository(pool)
	slog.Info("upserting details", slog.Int("count", len(records)))
	for _, d := range records {
		if err := detailsRepo.Upsert(ctx, d); err != nil {
			return errors.Wrapf(err, "upsert details %s", d.InstrumentID)
		}
		slog.Info("upserted details",
			slog.String("instrument_id", d.InstrumentID),
			slog.Int("specifications", len(d.Specifications)),
			slog.Int("faq", len(d.FAQ)),
			slog.Int("buy_links", len(d.BuyLinks)),
		)
	}

	return nil
}

func readInstruments(fsys fs.FS, name string) ([]instrument.Instrument, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var out []instrument.Instrument
	if err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		i, err := decodeInstrument(d)
		if err != nil {
			return err
		}
		out = append(out, i)
		return nil
	}); err != nil {
		return nil, errors.Wrapf(err, "parse %s", name)
	}
	return out, nil
}

// decodeInstrument reads one instrument object. Price may be a string or a
// number; a missing or null price and rating stay unknown.
func decodeInstrument(d *jx.Decoder) (instrument.Instrument, error) {
	var i instrument.Instrument
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch key {
		case "id":
			i.ID, err = d.Str()
		case "name":
			i.Name, err = d.Str()
		case "brand":
			i.Brand, err = d.Str()
		case "price":
			var raw jx.Raw
			if raw, err = d.Raw(); err != nil {
				return err
			}
			var p decimal.Decimal
			if err = p.UnmarshalJSON(raw); err != nil {
				return errors.Wrap(err, "price")
			}
			i.Price = decimal.NewNullDecimal(p)
		case "rating":
			var r float64
			r, err = d.Float64()
			i.Rating = &r
		case "releaseYear":
			i.ReleaseYear, err = d.Int()
		case "description":
			i.Description, err = d.Str()
		case "image":
			i.Image, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return instrument.Instrument{}, err
	}
	if i.ID == "" {
		return instrument.Instrument{}, errors.New("instrument without id")
	}
	return i, nil
}

func readDetails(fsys fs.FS, name string) ([]details.Details, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var out []details.Details
	if err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		rec, err := details.DecodeDetails(raw)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	}); err != nil {
		return nil, errors.Wrapf(err, "parse %s", name)
	}
	return out, nil
}
