package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pill/groceries-etl/internal/deal"
	"github.com/pill/groceries-etl/internal/store"
)

// Storage is the slice of the store the loader needs. *store.Store
// satisfies it; tests substitute an in-memory stub.
type Storage interface {
	GetStoreIDByName(ctx context.Context, name string) (int64, bool, error)
	GetCategoryIDByName(ctx context.Context, name string) (int64, bool, error)
	ResolveCategory(ctx context.Context, name string) (int64, error)
	DealExists(ctx context.Context, externalID string) (bool, error)
	UpsertDeal(ctx context.Context, d deal.Deal, storeID int64, categoryID *int64) (store.UpsertResult, error)
}

// Options configure one load invocation. They are threaded through
// explicitly rather than held as process state.
type Options struct {
	DryRun               bool
	Verbose              bool
	Recursive            bool
	Concurrency          int
	AutoCreateCategories bool
	RecordTimeout        time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.RecordTimeout <= 0 {
		o.RecordTimeout = 10 * time.Second
	}
	return o
}

// Loader drives records through Validate -> Resolve -> Upsert.
type Loader struct {
	storage Storage
	logger  *log.Logger
}

func New(storage Storage, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(os.Stderr, "[LOAD] ", log.LstdFlags)
	}
	return &Loader{storage: storage, logger: logger}
}

// LoadOne loads a single record file. The returned error is non-nil only
// for invocation-level failures; per-record failures land in Result.Err.
func (l *Loader) LoadOne(ctx context.Context, path string, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if _, err := os.Stat(path); err != nil {
		return Result{}, fmt.Errorf("record file: %w", err)
	}
	return l.processFile(ctx, path, opts), nil
}

// LoadDirectory loads every record file under dir. A missing target is an
// immediate error; anything after that is per-record and accumulates into
// the report. Files are processed by a bounded worker pool; cancellation
// stops dispatching new records but lets in-flight upserts finish.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("target %s is not a directory", dir)
	}

	files, skipped, err := collectFiles(dir, opts.Recursive)
	if err != nil {
		return nil, err
	}

	report := &Report{Skipped: skipped}
	l.logger.Printf("found %d record files in %s", len(files), dir)
	if opts.DryRun {
		l.logger.Printf("dry run: no writes will be issued")
	}

	start := time.Now()
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, opts.Concurrency)
	)

dispatch:
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()
			res := l.processFile(ctx, path, opts)
			mu.Lock()
			report.add(res)
			mu.Unlock()
		}(path)
	}
	wg.Wait()
	loadDuration.Observe(time.Since(start).Seconds())

	l.logger.Printf("processed=%d inserted=%d updated=%d skipped=%d errors=%d",
		report.Processed, report.Inserted, report.Updated, report.Skipped, len(report.Errors))
	return report, nil
}

func collectFiles(dir string, recursive bool) (files []string, skipped int, err error) {
	if recursive {
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".json") {
				files = append(files, path)
			} else {
				skipped++
			}
			return nil
		})
		if err != nil {
			return nil, 0, err
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, 0, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(e.Name()), ".json") {
				files = append(files, filepath.Join(dir, e.Name()))
			} else {
				skipped++
			}
		}
	}
	sort.Strings(files)
	return files, skipped, nil
}

func (l *Loader) processFile(ctx context.Context, path string, opts Options) Result {
	res := l.processRecord(ctx, path, opts)
	recordsTotal.WithLabelValues(res.Outcome).Inc()
	if opts.Verbose {
		if res.Err != nil {
			l.logger.Printf("%s", res.Err.String())
		} else {
			l.logger.Printf("%s: %s (external_id=%s)", res.Source, res.Outcome, res.ExternalID)
		}
	}
	return res
}

func (l *Loader) processRecord(ctx context.Context, path string, opts Options) Result {
	res := Result{Source: path}

	buf, err := os.ReadFile(path)
	if err != nil {
		return res.fail(StageRead, "", err.Error())
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return res.fail(StageRead, "", fmt.Sprintf("not a JSON object: %v", err))
	}

	d, err := deal.Validate(raw)
	if err != nil {
		var verr *deal.ValidationError
		if errors.As(err, &verr) {
			return res.fail(StageValidate, verr.Field, verr.Reason)
		}
		return res.fail(StageValidate, "", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, opts.RecordTimeout)
	defer cancel()

	storeID, ok, err := l.storage.GetStoreIDByName(ctx, d.StoreName)
	if err != nil {
		return res.fail(StageResolve, "store_name", err.Error())
	}
	if !ok {
		rerr := &ResolutionError{Entity: "store", Name: d.StoreName}
		return res.fail(StageResolve, "store_name", rerr.Error())
	}

	var categoryID *int64
	if d.CategoryName != "" {
		// Dry runs resolve by lookup only: auto-creating a category is a
		// write, and a dry run must not change any row counts.
		if opts.AutoCreateCategories && !opts.DryRun {
			id, err := l.storage.ResolveCategory(ctx, d.CategoryName)
			if err != nil {
				return res.fail(StageResolve, "category_name", err.Error())
			}
			categoryID = &id
		} else {
			id, ok, err := l.storage.GetCategoryIDByName(ctx, d.CategoryName)
			if err != nil {
				return res.fail(StageResolve, "category_name", err.Error())
			}
			if ok {
				categoryID = &id
			}
			// Unknown category with auto-create off: the deal is simply
			// uncategorized, not an error.
		}
	}

	if d.ExternalID == "" {
		d.ExternalID = deal.DeriveExternalID(d.ProductName, storeID, d.ValidFrom, d.ValidTo)
	}
	res.ExternalID = d.ExternalID

	if opts.DryRun {
		exists, err := l.storage.DealExists(ctx, d.ExternalID)
		if err != nil {
			return res.fail(StageUpsert, "", err.Error())
		}
		if exists {
			res.Outcome = OutcomeUpdated
		} else {
			res.Outcome = OutcomeInserted
		}
		return res
	}

	up, err := l.storage.UpsertDeal(ctx, d, storeID, categoryID)
	if err != nil {
		return res.fail(StageUpsert, "", err.Error())
	}
	res.DealID = up.DealID
	if up.Inserted {
		res.Outcome = OutcomeInserted
	} else {
		res.Outcome = OutcomeUpdated
	}
	return res
}

func (r Result) fail(stage, field, message string) Result {
	r.Outcome = OutcomeError
	r.Err = &LoadError{Source: r.Source, Stage: stage, Field: field, Message: message}
	return r
}
