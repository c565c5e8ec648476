package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/remitflat/internal/cache"
	"github.com/ppiankov/remitflat/internal/document"
	"github.com/ppiankov/remitflat/internal/extract"
	"github.com/ppiankov/remitflat/internal/model"
	"github.com/ppiankov/remitflat/internal/worker"
)

// Pipeline orchestrates batch conversion: parse, extract, combine
type Pipeline struct {
	extractor *extract.Extractor
	cache     cache.Cache // nil when caching is disabled
	workers   int
	columns   model.ColumnPolicy
	logger    *slog.Logger
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		extractor: extract.NewExtractor(),
		workers:   cfg.Concurrency.Workers,
		columns:   model.ColumnPolicy(cfg.Output.Columns),
		logger:    logger,
	}

	if cfg.Cache.Enabled {
		p.cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return p
}

// WithCache replaces the extraction cache; nil disables it
func (p *Pipeline) WithCache(c cache.Cache) *Pipeline {
	p.cache = c
	return p
}

// ItemResult is the outcome of converting one source
type ItemResult struct {
	Name     string
	Path     string
	Rows     []model.Row
	Strategy model.ExtractionPath
	Claims   int
	Warnings []string
	Cached   bool
	Err      error
}

// GetError implements worker.Result
func (r *ItemResult) GetError() error {
	return r.Err
}

// Batch is the combined outcome of a Convert call
type Batch struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	Items     []ItemResult
	Table     model.Table
}

// Succeeded counts items that produced rows without error
func (b *Batch) Succeeded() int {
	n := 0
	for _, it := range b.Items {
		if it.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts items that reported an error
func (b *Batch) Failed() int {
	return len(b.Items) - b.Succeeded()
}

// RowCount is the number of rows in the combined table
func (b *Batch) RowCount() int {
	return len(b.Table.Rows)
}

// Errors returns every item error in input order
func (b *Batch) Errors() []error {
	var errs []error
	for _, it := range b.Items {
		if it.Err != nil {
			errs = append(errs, it.Err)
		}
	}
	return errs
}

// Preview returns the first n rows of the combined table and the total row count
func (b *Batch) Preview(n int) (model.Table, int) {
	return b.Table.Head(n), len(b.Table.Rows)
}

// Convert converts every source and combines the rows in input order.
// A failing source is recorded on its ItemResult and never aborts the batch.
func (p *Pipeline) Convert(ctx context.Context, sources []model.Source) *Batch {
	batch := &Batch{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	jobs := make([]worker.Job, len(sources))
	for i, src := range sources {
		src := src
		jobs[i] = worker.JobFunc(func(ctx context.Context) worker.Result {
			res := p.ConvertSource(src)
			return &res
		})
	}

	results := worker.Run(ctx, p.workers, jobs)

	batch.Items = make([]ItemResult, len(sources))
	var rows []model.Row
	for i, r := range results {
		if r == nil {
			// Never ran: ctx ended before the job was picked up
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			batch.Items[i] = ItemResult{Name: sources[i].Name, Path: sources[i].Path, Err: err}
			continue
		}
		item := *r.(*ItemResult)
		batch.Items[i] = item
		rows = append(rows, item.Rows...)
	}

	batch.Table = model.NewTable(rows, p.columns)
	batch.Elapsed = time.Since(batch.StartedAt)

	p.logger.Info("convert.batch.done",
		"run_id", batch.RunID,
		"items", len(batch.Items),
		"failed", batch.Failed(),
		"rows", batch.RowCount(),
		"elapsed", batch.Elapsed)

	return batch
}

// ConvertSource converts a single source. It never panics; unexpected
// failures are reported as model.ConversionError.
func (p *Pipeline) ConvertSource(src model.Source) (res ItemResult) {
	res = ItemResult{Name: src.Name, Path: src.Path}

	defer func() {
		if r := recover(); r != nil {
			res.Rows = nil
			res.Err = &model.ConversionError{Source: src.Name, Err: fmt.Errorf("panic: %v", r)}
		}
		p.logItem(res)
	}()

	if src.Err != nil {
		res.Err = fmt.Errorf("%s: %w", src.Name, src.Err)
		return res
	}

	var key string
	if p.cache != nil {
		key = cache.CacheKey(src.Data)
		if entry, found := p.cache.Get(key); found {
			res.Rows = entry.Rows
			res.Strategy = entry.Path
			res.Claims = entry.Claims
			res.Warnings = entry.Warnings
			res.Cached = true
			return res
		}
	}

	doc, err := document.Parse(src.Data)
	if err != nil {
		res.Err = &model.ParseError{Source: src.Name, Err: err}
		return res
	}

	out, err := p.extractor.Analyze(doc)
	if err != nil {
		res.Err = &model.ConversionError{Source: src.Name, Err: err}
		return res
	}

	res.Rows = out.Rows
	res.Strategy = out.Path
	res.Claims = out.Claims
	for _, k := range out.Collisions {
		res.Warnings = append(res.Warnings, fmt.Sprintf("key %q written more than once, last value kept", k))
	}

	if p.cache != nil {
		entry := cache.Entry{Path: out.Path, Claims: out.Claims, Rows: out.Rows, Warnings: res.Warnings}
		if err := p.cache.Set(key, entry, 0); err != nil {
			p.logger.Warn("convert.cache.write_failed", "source", src.Name, "err", err)
		}
	}

	return res
}

func (p *Pipeline) logItem(res ItemResult) {
	if res.Err != nil {
		p.logger.Info("convert.item.failed", "source", res.Name, "err", res.Err)
		return
	}
	for _, w := range res.Warnings {
		p.logger.Info("convert.item.collision", "source", res.Name, "detail", w)
	}
	p.logger.Debug("convert.item.ok",
		"source", res.Name,
		"path", string(res.Strategy),
		"rows", len(res.Rows),
		"cached", res.Cached)
}
