// Package fcem provides the three-level Fuzzy Comprehensive Evaluation
// Methodology estimator: trapezoidal membership construction over sampled
// axes, per-KPI membership evaluation, and weighted aggregation of KPIs into
// categories and categories into goals.
package fcem

import (
	"errors"
)

// Common errors returned by the estimator components.
var (
	// ErrEmptyModelName is returned when attempting to create a model with an empty name.
	ErrEmptyModelName = errors.New("model name cannot be empty")

	// ErrNoMembers is returned when an aggregation receives no members.
	ErrNoMembers = errors.New("no members provided for aggregation")
)

// DefaultWorkers bounds the goroutines PredictConcurrent uses when no
// explicit worker count is configured.
const DefaultWorkers = 4
