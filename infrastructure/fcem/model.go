package fcem

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-fcem/internal/domain"
	"github.com/ahrav/go-fcem/internal/ports"
)

var _ ports.Estimator = (*Model)(nil)

// sparseAxisPoints is the axis size below which Fit warns that
// interpolation will be coarse.
const sparseAxisPoints = 10

// Model is a three-level FCEM estimator (Goals | Categories | KPIs).
//
// Fitting is configuration driven: Fit samples the membership functions of
// every KPI and binds them to the category and goal weights. Predict then
// evaluates rows of readings against the fitted tables.
//
// Concurrency: Fit takes an exclusive lock and swaps in freshly built
// tables, so concurrent Fit calls serialize. Predict and PredictConcurrent
// only read the fitted state and may run concurrently with each other.
type Model struct {
	// name is the unique identifier for this model instance.
	name string
	// config is the model configuration, copied at construction.
	config domain.Config

	builder    *MembershipBuilder
	aggregator domain.Aggregator
	workers    int
	logger     *slog.Logger
	tracer     trace.Tracer

	mu         sync.RWMutex
	membership *Membership
	evaluator  *FuzzyEvaluator
}

// Option configures optional Model behavior.
type Option func(*Model)

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithAggregator replaces the WeightedSum aggregation operator.
func WithAggregator(agg domain.Aggregator) Option {
	return func(m *Model) {
		if agg != nil {
			m.aggregator = agg
		}
	}
}

// WithWorkers bounds the goroutines used by PredictConcurrent.
// Values below one are ignored.
func WithWorkers(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.workers = n
		}
	}
}

// NewModel creates an unfitted Model. The configuration is copied, so later
// changes to cfg do not affect the model. Configuration is validated by Fit,
// not here, mirroring the construct-then-fit lifecycle.
//
// Returns ErrEmptyModelName if name is empty.
func NewModel(name string, cfg domain.Config, opts ...Option) (*Model, error) {
	if name == "" {
		return nil, ErrEmptyModelName
	}

	m := &Model{
		name:       name,
		config:     cloneConfig(cfg),
		builder:    NewMembershipBuilder(),
		aggregator: WeightedSum{},
		workers:    DefaultWorkers,
		logger:     slog.Default(),
		tracer:     otel.Tracer("fcem-model"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("model", name)

	return m, nil
}

// Name returns the unique identifier for this model instance.
func (m *Model) Name() string { return m.name }

// Config returns a copy of the model configuration.
func (m *Model) Config() domain.Config { return cloneConfig(m.config) }

// Fitted reports whether Fit has completed successfully.
func (m *Model) Fitted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.evaluator != nil
}

// Membership returns the fitted axes and membership tables, or false when
// the model has not been fitted.
func (m *Model) Membership() (*Membership, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.membership, m.membership != nil
}

// Fit validates the configuration, samples every KPI's membership
// functions over its axis and marks the model fitted. Re-fitting discards
// the previous tables. On error the previously fitted state, if any, is
// left in place.
func (m *Model) Fit(ctx context.Context) error {
	_, span := m.tracer.Start(ctx, "Model.Fit",
		trace.WithAttributes(
			attribute.String("model.name", m.name),
			attribute.Int("model.kpis", len(m.config.KPIs)),
			attribute.Int("model.categories", len(m.config.Categories)),
			attribute.Int("model.goals", len(m.config.Goals)),
		),
	)
	defer span.End()

	start := time.Now()

	if err := m.config.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid configuration")
		return domain.NewEvaluationError("fit", -1, err)
	}

	membership, err := m.builder.Build(m.config.KPIs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "membership build failed")
		return domain.NewEvaluationError("fit", -1, err)
	}

	evaluator, err := NewFuzzyEvaluator(membership, m.config, m.aggregator)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluator build failed")
		return domain.NewEvaluationError("fit", -1, err)
	}

	for k, kpi := range m.config.KPIs {
		if n := len(membership.Axis(k)); n < sparseAxisPoints {
			m.logger.Warn("sparse evaluation axis", "kpi", kpi.Name, "points", n, "step", kpi.Step)
		}
	}

	m.mu.Lock()
	m.membership = membership
	m.evaluator = evaluator
	m.mu.Unlock()

	m.logger.Debug("model fitted",
		"kpis", len(m.config.KPIs),
		"labels", m.config.LabelCount(),
		"categories", len(m.config.Categories),
		"goals", len(m.config.Goals),
		"elapsed", time.Since(start),
	)
	span.SetStatus(codes.Ok, "fitted")

	return nil
}

// Predict evaluates rows sequentially. Each row holds one reading per KPI
// in configuration order. The first failing row aborts the call and its
// index is reported in the returned *domain.EvaluationError.
func (m *Model) Predict(ctx context.Context, rows [][]float64) ([]domain.Evaluation, error) {
	_, span := m.tracer.Start(ctx, "Model.Predict",
		trace.WithAttributes(
			attribute.String("model.name", m.name),
			attribute.Int("predict.rows", len(rows)),
		),
	)
	defer span.End()

	evaluator, err := m.fittedEvaluator()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "not fitted")
		return nil, err
	}

	out := make([]domain.Evaluation, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return nil, err
		}

		eval, err := evaluator.Evaluate(row)
		if err != nil {
			evalErr := domain.NewEvaluationError("predict", i, err)
			span.RecordError(evalErr)
			span.SetStatus(codes.Error, evalErr.Kind().String())
			return nil, evalErr
		}
		out = append(out, eval)
	}

	span.SetStatus(codes.Ok, "predicted")
	return out, nil
}

// PredictConcurrent evaluates rows on a bounded pool of goroutines. Rows are
// independent, so results are identical to Predict and are returned in
// input order. When several rows fail, the error of whichever failure is
// observed first is returned.
func (m *Model) PredictConcurrent(ctx context.Context, rows [][]float64) ([]domain.Evaluation, error) {
	ctx, span := m.tracer.Start(ctx, "Model.PredictConcurrent",
		trace.WithAttributes(
			attribute.String("model.name", m.name),
			attribute.Int("predict.rows", len(rows)),
			attribute.Int("predict.workers", m.workers),
		),
	)
	defer span.End()

	evaluator, err := m.fittedEvaluator()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "not fitted")
		return nil, err
	}

	out := make([]domain.Evaluation, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			eval, err := evaluator.Evaluate(row)
			if err != nil {
				return domain.NewEvaluationError("predict", i, err)
			}
			out[i] = eval
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.KindOf(err).String())
		return nil, err
	}

	span.SetStatus(codes.Ok, "predicted")
	return out, nil
}

func (m *Model) fittedEvaluator() (*FuzzyEvaluator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.evaluator == nil {
		return nil, domain.NewEvaluationError("predict", -1, fmt.Errorf("%w: call Fit before Predict", domain.ErrNotFitted))
	}
	return m.evaluator, nil
}

// cloneConfig deep-copies every slice of cfg.
func cloneConfig(cfg domain.Config) domain.Config {
	out := domain.Config{
		KPIs:                     make([]domain.KPI, len(cfg.KPIs)),
		CategoryMapping:          slices.Clone(cfg.CategoryMapping),
		Categories:               make([]domain.Category, len(cfg.Categories)),
		Goals:                    make([]domain.Goal, len(cfg.Goals)),
		RequireNormalizedWeights: cfg.RequireNormalizedWeights,
	}
	for i, kpi := range cfg.KPIs {
		out.KPIs[i] = domain.KPI{Name: kpi.Name, Labels: slices.Clone(kpi.Labels), Step: kpi.Step}
	}
	for i, c := range cfg.Categories {
		out.Categories[i] = domain.Category{Name: c.Name, Weights: slices.Clone(c.Weights)}
	}
	for i, g := range cfg.Goals {
		out.Goals[i] = domain.Goal{Name: g.Name, Weights: slices.Clone(g.Weights)}
	}
	return out
}
