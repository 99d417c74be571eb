package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mbertrand/budget-tracker/internal/domain/category"
)

var tracer = otel.Tracer("github.com/mbertrand/budget-tracker/internal/domain/importer")

// ImportRequest carries one uploaded file through the pipeline. The
// transport layer hands it over fully formed; Data is read-only and
// shared across row tasks without copying.
type ImportRequest struct {
	OwnerID uuid.UUID
	Kind    RecordKind
	Dialect Dialect
	Data    []byte
}

// Service orchestrates one import: prime the category cache, stream the
// rows through concurrent decode+resolve tasks, wait for all of them to
// settle, then bulk-write the successes and build the report.
type Service struct {
	ledger     LedgerRepository
	categories category.Repository
	workers    int
	logger     *slog.Logger
}

// NewService creates a new import service
func NewService(ledger LedgerRepository, categories category.Repository, logger *slog.Logger) *Service {
	return &Service{
		ledger:     ledger,
		categories: categories,
		logger:     logger,
	}
}

// WithWorkers overrides the row-task concurrency (default GOMAXPROCS)
func (s *Service) WithWorkers(n int) *Service {
	s.workers = n
	return s
}

type rowJob struct {
	line   int
	fields map[string]string
	err    error // set when the line could not be tokenized
}

// Import runs the whole pipeline for one uploaded file. Row-level
// problems end up in the report; a non-nil error means the import broke
// off without a report.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportReport, error) {
	ctx, span := tracer.Start(ctx, "importer.Import", trace.WithAttributes(
		attribute.String("import.kind", string(req.Kind)),
		attribute.String("import.dialect", string(req.Dialect)),
		attribute.Int("import.bytes", len(req.Data)),
	))
	defer span.End()

	importsStarted.WithLabelValues(string(req.Kind)).Inc()

	// Priming: revenue categories are scoped to the owner, expense
	// categories are shared. One resolver and cache per run.
	var scope *uuid.UUID
	if req.Kind == KindRevenue {
		owner := req.OwnerID
		scope = &owner
	}
	resolver := category.NewResolver(s.categories, scope, s.logger)
	if err := resolver.Prime(ctx); err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(req.Data))
	reader.Comma = req.Dialect.Delimiter()
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headerRecord, err := reader.Read()
	if err != nil {
		// Nothing tokenizable at all: fatal, no report.
		return nil, fmt.Errorf("failed to read header line: %w", err)
	}
	header := NewHeaderMapper(req.Kind).MapHeader(headerRecord)

	outcomes, err := s.streamRows(ctx, reader, header, req.Kind, resolver)
	if err != nil {
		return nil, err
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Line < outcomes[j].Line
	})

	// Writing: one bulk insert of every successfully decoded record.
	var records []*DecodedRow
	var recordOutcomes []RowOutcome
	for _, outcome := range outcomes {
		if outcome.Skipped || outcome.Err != nil {
			continue
		}
		records = append(records, outcome.Record)
		recordOutcomes = append(recordOutcomes, outcome)
	}

	inserted, itemErrors, err := s.ledger.BulkInsert(ctx, req.OwnerID, req.Kind, records)
	if err != nil {
		s.logger.Error("import bulk write failed",
			slog.String("kind", string(req.Kind)),
			slog.Any("error", err))
		return nil, err
	}

	writeErrors := make([]RowError, 0, len(itemErrors))
	for _, itemErr := range itemErrors {
		outcome := recordOutcomes[itemErr.Index]
		writeErrors = append(writeErrors, RowError{
			Line:  outcome.Line,
			Data:  outcome.Fields,
			Error: fmt.Sprintf("failed to store record: %v", itemErr.Err),
		})
	}

	report := buildReport(outcomes, inserted, writeErrors)

	importRowsImported.WithLabelValues(string(req.Kind)).Add(float64(report.ImportedCount))
	importRowsFailed.WithLabelValues(string(req.Kind)).Add(float64(report.ErrorCount))
	s.logger.Info("import finished",
		slog.String("kind", string(req.Kind)),
		slog.Int("total", report.TotalLinesRead),
		slog.Int("imported", report.ImportedCount),
		slog.Int("errors", report.ErrorCount))

	return report, nil
}

// streamRows reads every data line, dispatching decode+resolve tasks to
// a bounded worker pool while the stream is still being read. It returns
// once every dispatched task has settled, one outcome per data line.
func (s *Service) streamRows(ctx context.Context, reader *csv.Reader, header []string, kind RecordKind, resolver *category.Resolver) ([]RowOutcome, error) {
	workerCount := s.workers
	if workerCount <= 0 {
		workerCount = runtime.GOMAXPROCS(0)
	}

	jobs := make(chan rowJob, workerCount*4)
	results := make(chan RowOutcome, workerCount*4)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		g.Go(func() error {
			for job := range jobs {
				outcome := s.processRow(gctx, job, kind, resolver)
				select {
				case results <- outcome:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	// Reader: line numbers are assigned here, at read time, so they
	// reflect physical position regardless of task completion order.
	go func() {
		defer close(jobs)
		line := 0
		for {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			line++
			job := rowJob{line: line}
			if err != nil {
				job.err = fmt.Errorf("unreadable line: %w", err)
			} else {
				job.fields = recordFields(record, header)
			}
			select {
			case jobs <- job:
			case <-gctx.Done():
				return
			}
		}
	}()

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(results)
	}()

	var outcomes []RowOutcome
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}

	if err := <-waitErr; err != nil {
		return nil, fmt.Errorf("import interrupted: %w", err)
	}
	// A cancelled request must not reach the write phase, even when the
	// workers drained their queues before noticing.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("import interrupted: %w", err)
	}
	return outcomes, nil
}

// processRow runs decode + category resolution for one line and always
// produces a terminal outcome.
func (s *Service) processRow(ctx context.Context, job rowJob, kind RecordKind, resolver *category.Resolver) RowOutcome {
	if job.err != nil {
		return RowOutcome{Line: job.line, Fields: job.fields, Err: job.err}
	}

	record, err := Decode(job.fields, kind)
	if err != nil {
		return RowOutcome{Line: job.line, Fields: job.fields, Err: err}
	}
	if record == nil {
		return RowOutcome{Line: job.line, Fields: job.fields, Skipped: true}
	}

	categoryID, err := resolver.Resolve(ctx, record.Category)
	if err != nil {
		return RowOutcome{
			Line:   job.line,
			Fields: job.fields,
			Err:    fmt.Errorf("cannot resolve category %q: %w", record.Category, err),
		}
	}
	record.CategoryID = categoryID

	return RowOutcome{Line: job.line, Fields: job.fields, Record: record}
}

// recordFields builds the canonical-keyed raw field map for one record.
// Cells beyond the header are ignored.
func recordFields(record []string, header []string) map[string]string {
	fields := make(map[string]string, len(header))
	for i, cell := range record {
		if i >= len(header) {
			break
		}
		fields[header[i]] = cell
	}
	return fields
}
