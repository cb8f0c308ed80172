// Package dashboard serves the owner-facing income rollups.
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/contract"
	"github.com/rentflow/backend/internal/domain/dashboard"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxWindow bounds the date range of one query
const maxWindow = 5 * 366 * 24 * time.Hour

// Service aggregates obligations into dashboard views. It never writes.
type Service struct {
	repo     dashboard.Repository
	currency string
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a Service. currency labels the totals; amounts are not converted.
func NewService(repo dashboard.Repository, currency string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		currency: currency,
		logger:   logger.Named("dashboard"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// normalize fills the default window (the last twelve months including the
// current one) and validates the query
func (s *Service) normalize(q dashboard.Query) (dashboard.Query, error) {
	if q.OwnerID == uuid.Nil {
		return q, shared.NewValidationError("owner id is required")
	}
	now := s.now()
	if q.To.IsZero() {
		q.To = monthStart(now).AddDate(0, 1, 0)
	}
	if q.From.IsZero() {
		q.From = monthStart(q.To).AddDate(0, -12, 0)
	}
	q.From, q.To = q.From.UTC(), q.To.UTC()
	if !q.From.Before(q.To) {
		return q, shared.NewValidationError("from must be before to")
	}
	if q.To.Sub(q.From) > maxWindow {
		return q, shared.NewValidationError("date range cannot exceed five years")
	}
	return q, nil
}

// Summary returns collected, pending and overdue totals
func (s *Service) Summary(ctx context.Context, q dashboard.Query) (*dashboard.Totals, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "summary")
	defer span.End()

	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}
	sums, err := s.repo.SumByPropertyAndStatus(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	totals := &dashboard.Totals{
		Collected: dashboard.Bucket{Amount: decimal.Zero},
		Pending:   dashboard.Bucket{Amount: decimal.Zero},
		Overdue:   dashboard.Bucket{Amount: decimal.Zero},
		Currency:  s.currency,
	}
	for _, row := range sums {
		if b := bucketFor(totals, row.Status); b != nil {
			b.Amount = b.Amount.Add(contribution(row))
			b.Count += row.Count
		}
	}
	return totals, nil
}

func bucketFor(t *dashboard.Totals, status string) *dashboard.Bucket {
	switch obligation.Status(status) {
	case obligation.StatusPaid:
		return &t.Collected
	case obligation.StatusPending:
		return &t.Pending
	case obligation.StatusOverdue:
		return &t.Overdue
	}
	return nil
}

// contribution is what a row adds to its bucket. Pending obligations carry no
// fee; paid and overdue ones include it.
func contribution(row dashboard.StatusSum) decimal.Decimal {
	if obligation.Status(row.Status) == obligation.StatusPending {
		return row.Amount
	}
	return row.Amount.Add(row.LateFee)
}

// Properties returns the totals split by property, including properties whose
// contracts have nothing due in the window
func (s *Service) Properties(ctx context.Context, q dashboard.Query) ([]dashboard.PropertyBreakdown, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "properties")
	defer span.End()

	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}

	var (
		sums   []dashboard.StatusSum
		counts []dashboard.ContractCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sums, err = s.repo.SumByPropertyAndStatus(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.repo.CountContractsByProperty(gctx, q.OwnerID)
		return err
	})
	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	byProperty := make(map[uuid.UUID]*dashboard.PropertyBreakdown)
	get := func(id uuid.UUID) *dashboard.PropertyBreakdown {
		p, ok := byProperty[id]
		if !ok {
			p = &dashboard.PropertyBreakdown{
				PropertyID: id,
				Collected:  decimal.Zero,
				Pending:    decimal.Zero,
				Overdue:    decimal.Zero,
			}
			byProperty[id] = p
		}
		return p
	}

	for _, c := range counts {
		p := get(c.PropertyID)
		p.TotalContracts += c.Count
		if contract.Status(c.Status) == contract.StatusActive {
			p.ActiveContracts += c.Count
		}
	}
	for _, row := range sums {
		p := get(row.PropertyID)
		switch obligation.Status(row.Status) {
		case obligation.StatusPaid:
			p.Collected = p.Collected.Add(contribution(row))
		case obligation.StatusPending:
			p.Pending = p.Pending.Add(contribution(row))
		case obligation.StatusOverdue:
			p.Overdue = p.Overdue.Add(contribution(row))
		}
	}

	out := make([]dashboard.PropertyBreakdown, 0, len(byProperty))
	for _, p := range byProperty {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PropertyID.String() < out[j].PropertyID.String()
	})
	return out, nil
}

// Monthly returns collected income per paid month. Months without income are
// present with a zero amount.
func (s *Service) Monthly(ctx context.Context, q dashboard.Query) ([]dashboard.MonthlyIncome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "monthly")
	defer span.End()

	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.PaidRows(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var series []dashboard.MonthlyIncome
	index := make(map[string]int)
	for m := monthStart(q.From); m.Before(q.To); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		index[key] = len(series)
		series = append(series, dashboard.MonthlyIncome{Month: key, Collected: decimal.Zero})
	}
	for _, row := range rows {
		i, ok := index[row.PaidDate.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		series[i].Collected = series[i].Collected.Add(row.Amount).Add(row.LateFee)
		series[i].Count++
	}
	return series, nil
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
