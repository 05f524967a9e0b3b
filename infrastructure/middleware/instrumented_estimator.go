package middleware

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-fcem/internal/domain"
	"github.com/ahrav/go-fcem/internal/ports"
)

var _ ports.Estimator = (*InstrumentedEstimator)(nil)

// configurer is implemented by estimators that expose their configuration.
// When available, goal and label names are used as metric labels.
type configurer interface {
	Config() domain.Config
}

// InstrumentedEstimator decorates an Estimator with OpenTelemetry spans,
// metrics and structured logs. It adds no behavior of its own: results and
// errors from the wrapped estimator are returned unchanged.
type InstrumentedEstimator struct {
	next    ports.Estimator
	metrics ports.MetricsCollector
	logger  *slog.Logger
	tracer  trace.Tracer

	goalNames  []string
	labelNames []string
}

// NewInstrumentedEstimator wraps next. A nil metrics collector disables
// metrics; a nil logger falls back to slog.Default().
func NewInstrumentedEstimator(next ports.Estimator, metrics ports.MetricsCollector, logger *slog.Logger) *InstrumentedEstimator {
	if logger == nil {
		logger = slog.Default()
	}

	ie := &InstrumentedEstimator{
		next:    next,
		metrics: metrics,
		logger:  logger.With("model", next.Name()),
		tracer:  otel.Tracer("fcem-middleware"),
	}

	if c, ok := next.(configurer); ok {
		cfg := c.Config()
		ie.labelNames = cfg.LabelNames()
		for _, g := range cfg.Goals {
			ie.goalNames = append(ie.goalNames, g.Name)
		}
	}

	return ie
}

// Name implements ports.Estimator.
func (ie *InstrumentedEstimator) Name() string { return ie.next.Name() }

// Fit implements ports.Estimator.
func (ie *InstrumentedEstimator) Fit(ctx context.Context) error {
	ctx, span := ie.tracer.Start(ctx, "InstrumentedEstimator.Fit",
		trace.WithAttributes(attribute.String("model.name", ie.Name())),
	)
	defer span.End()

	start := time.Now()
	err := ie.next.Fit(ctx)
	elapsed := time.Since(start)

	ie.observe("fit", elapsed, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.KindOf(err).String())
		ie.logger.Error("fit failed", "error", err, "elapsed", elapsed)
		return err
	}

	if ie.metrics != nil {
		ie.metrics.RecordGauge("fitted", 1, ie.labels())
	}
	span.SetStatus(codes.Ok, "fitted")
	ie.logger.Info("model fitted", "elapsed", elapsed)

	return nil
}

// Predict implements ports.Estimator.
func (ie *InstrumentedEstimator) Predict(ctx context.Context, rows [][]float64) ([]domain.Evaluation, error) {
	ctx, span := ie.tracer.Start(ctx, "InstrumentedEstimator.Predict",
		trace.WithAttributes(
			attribute.String("model.name", ie.Name()),
			attribute.Int("predict.rows", len(rows)),
		),
	)
	defer span.End()

	start := time.Now()
	evals, err := ie.next.Predict(ctx, rows)
	elapsed := time.Since(start)

	ie.observe("predict", elapsed, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.KindOf(err).String())
		ie.logger.Warn("predict failed", "error", err, "rows", len(rows), "kind", domain.KindOf(err).String())
		return nil, err
	}

	if ie.metrics != nil {
		ie.metrics.RecordCounter(MetricRowsEvaluated, float64(len(evals)), ie.labels())
		ie.recordGoalScores(evals)
	}

	span.SetAttributes(attribute.Int64("predict.latency_ms", elapsed.Milliseconds()))
	span.SetStatus(codes.Ok, "predicted")
	ie.logger.Debug("rows evaluated", "rows", len(evals), "elapsed", elapsed)

	return evals, nil
}

// observe records latency and the success or failure counter of op.
func (ie *InstrumentedEstimator) observe(op string, elapsed time.Duration, err error) {
	if ie.metrics == nil {
		return
	}

	labels := ie.labels()
	ie.metrics.RecordLatency(op, elapsed, labels)

	if err != nil {
		labels["operation"] = op
		labels["kind"] = domain.KindOf(err).String()
		ie.metrics.RecordCounter(MetricErrors, 1, labels)
		return
	}
	ie.metrics.RecordCounter(op, 1, labels)
}

// recordGoalScores observes the dominant label score of every goal.
func (ie *InstrumentedEstimator) recordGoalScores(evals []domain.Evaluation) {
	for _, eval := range evals {
		for g, scores := range eval.Goals {
			best := domain.DominantLabel(scores)
			if best < 0 {
				continue
			}
			labels := ie.labels()
			labels["goal"] = nameAt(ie.goalNames, g, "goal_")
			labels["label"] = nameAt(ie.labelNames, best, "label_")
			ie.metrics.RecordHistogram(MetricGoalScore, scores[best], labels)
		}
	}
}

func (ie *InstrumentedEstimator) labels() map[string]string {
	return map[string]string{"model": ie.Name()}
}

// nameAt returns names[i], or prefix followed by i when names is too short.
func nameAt(names []string, i int, prefix string) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return prefix + strconv.Itoa(i)
}
