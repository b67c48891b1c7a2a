package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/instrument-catalog/internal/domain/details"
	"github.com/xenking/instrument-catalog/internal/storage/postgres"
)

const (
	filePattern   = "*.ndjson.gz"
	progressEvery = 1000
	maxLineBytes  = 4 << 20
)

func main() {
	var (
		dataDir     string
		databaseURL string
		dryRun      bool
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.ndjson.gz details exports")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "parse exports without writing to the database")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, dryRun); err != nil {
		slog.Error("details ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("details ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, dryRun bool) error {
	files, err := filepath.Glob(filepath.Join(dataDir, filePattern))
	if err != nil {
		return errors.Wrap(err, "list exports")
	}
	if len(files) == 0 {
		return errors.Errorf("no %s files in %s", filePattern, dataDir)
	}
	sort.Strings(files)

	slog.Info("reading exports", slog.Int("files", len(files)))

	records, err := readExports(ctx, files)
	if err != nil {
		return errors.Wrap(err, "read exports")
	}

	slog.Info("records merged", slog.Int("instruments", len(records)))

	if dryRun || len(records) == 0 {
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	known, err := postgres.NewInstrumentRepository(pool).List(ctx)
	if err != nil {
		return errors.Wrap(err, "list instruments")
	}
	ids := make(map[string]struct{}, len(known))
	for _, i := range known {
		ids[i.ID] = struct{}{}
	}

	return writeDetails(ctx, postgres.NewDetailsRepository(pool), records, ids)
}

// readExports parses all files concurrently and merges them in file order,
// so a record in a later file replaces the same instrument from an earlier
// one.
func readExports(ctx context.Context, files []string) ([]details.Details, error) {
	perFile := make([]map[string]details.Details, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			recs, err := readExport(ctx, f)
			if err != nil {
				return errors.Wrapf(err, "file %s", filepath.Base(f))
			}
			perFile[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]details.Details)
	for _, recs := range perFile {
		for id, d := range recs {
			merged[id] = d
		}
	}

	out := make([]details.Details, 0, len(merged))
	for _, d := range merged {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstrumentID < out[j].InstrumentID })
	return out, nil
}

// readExport streams one gzip NDJSON export. Blank lines are skipped, later
// lines win within a file.
func readExport(ctx context.Context, path string) (map[string]details.Details, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	out := make(map[string]details.Details)
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var line int
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		d, err := details.DecodeDetails(scanner.Bytes())
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		out[d.InstrumentID] = d
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan %s", path)
	}

	slog.Info("export parsed",
		slog.String("file", filepath.Base(path)),
		slog.Int("lines", line),
		slog.Int("instruments", len(out)),
	)
	return out, nil
}

type detailsWriter interface {
	Upsert(ctx context.Context, d details.Details) error
}

// writeDetails upserts records of known instruments and skips the rest.
func writeDetails(ctx context.Context, w detailsWriter, records []details.Details, known map[string]struct{}) error {
	slog.Info("writing details to database", slog.Int("count", len(records)))

	var written, skipped int
	for _, d := range records {
		if _, ok := known[d.InstrumentID]; !ok {
			skipped++
			slog.Warn("skipping details of unknown instrument", slog.String("instrument_id", d.InstrumentID))
			continue
		}
		if err := w.Upsert(ctx, d); err != nil {
			return errors.Wrapf(err, "upsert details %s", d.InstrumentID)
		}
		written++
		if written%progressEvery == 0 {
			slog.Info("write progress", slog.Int("written", written), slog.Int("total", len(records)))
		}
	}

	slog.Info("details written", slog.Int("written", written), slog.Int("skipped", skipped))
	return nil
}
