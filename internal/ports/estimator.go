// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-fcem/internal/domain"
)

// Estimator represents a configuration-driven fuzzy evaluation model.
// Fitting derives the membership tables from configuration alone; no
// training data is involved.
type Estimator interface {
	// Name returns the identifier of the model, used for logging and
	// metric labels.
	Name() string

	// Fit builds the evaluation axes and membership tables. Calling Fit
	// again discards the previous tables and rebuilds them from scratch.
	// It returns an error wrapping domain.ErrInvalidConfiguration when the
	// configuration is inconsistent.
	Fit(ctx context.Context) error

	// Predict evaluates each row of KPI readings into a three-tier
	// domain.Evaluation. Results are in input order. It fails with
	// domain.ErrNotFitted before a successful Fit, and with
	// domain.ErrShapeMismatch or domain.ErrInvalidReading when a row is
	// malformed; a failing row aborts the whole call.
	//
	// Example:
	//
	//	if err := model.Fit(ctx); err != nil {
	//	    return err
	//	}
	//	evals, err := model.Predict(ctx, [][]float64{{50, 12.5}})
	Predict(ctx context.Context, rows [][]float64) ([]domain.Evaluation, error)
}
