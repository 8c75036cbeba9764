package buyers

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/buyer-lead-intake/internal/observability/metrics"
	"github.com/wolfman30/buyer-lead-intake/pkg/logging"
)

var importTracer = otel.Tracer("buyers/import")

// ImportService runs the CSV batch pipeline: validate everything, persist
// nothing unless every row passed, demote per-row uniqueness conflicts.
type ImportService struct {
	repo    Repository
	logger  *logging.Logger
	metrics *metrics.LeadMetrics
}

// NewImportService creates an import service.
func NewImportService(repo Repository, logger *logging.Logger, m *metrics.LeadMetrics) *ImportService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ImportService{repo: repo, logger: logger, metrics: m}
}

// Import validates all rows and, only when none failed, commits them in one
// atomic unit of work owned by actorID. Exceeding the batch cap rejects the
// whole batch before any row is processed.
func (s *ImportService) Import(ctx context.Context, rows []map[string]string, actorID string) (*ImportResult, error) {
	ctx, span := importTracer.Start(ctx, "import.batch")
	defer span.End()
	span.SetAttributes(attribute.Int("import.total_rows", len(rows)))

	start := time.Now()
	defer func() { s.metrics.ObserveImportDuration(time.Since(start)) }()

	if len(rows) > MaxImportRows {
		return nil, ErrTooManyRows
	}

	result := &ImportResult{
		TotalRows:  len(rows),
		FailedRows: []RowFailure{},
	}

	valid, failed := ValidateBatch(rows)
	if len(failed) > 0 {
		// Pre-check stage: any failure means nothing persists.
		result.FailedRows = failed
		s.metrics.ObserveImportRows("invalid", len(failed))
		s.logger.Info("import rejected at validation",
			"total_rows", len(rows),
			"failed_rows", len(failed),
		)
		return result, nil
	}

	successCount, dupFailures, err := s.repo.ImportAll(ctx, valid, actorID)
	if err != nil {
		s.logger.Error("import transaction failed", "error", err)
		return nil, err
	}
	if dupFailures != nil {
		result.FailedRows = dupFailures
	}
	result.Success = true
	result.SuccessCount = successCount

	s.metrics.ObserveImportRows("imported", successCount)
	s.metrics.ObserveImportRows("duplicate", len(dupFailures))
	span.SetAttributes(attribute.Int("import.success_count", successCount))
	s.logger.Info("import committed",
		"total_rows", len(rows),
		"success_count", successCount,
		"duplicates", len(dupFailures),
	)
	return result, nil
}
