// Package application provides configuration loading, validation and input
// mapping for FCEM models.
package application

import (
	"github.com/ahrav/go-fcem/internal/domain"
)

// ModelConfig defines the complete description of a three-level FCEM
// model and serves as the primary configuration entry point for the system.
// It is decoded from YAML and converted to a domain.Config with ToDomain.
type ModelConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the model.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// KPIs lists the indicators in the order readings are supplied.
	KPIs []KPIConfig `yaml:"kpis" validate:"required,min=1,dive"`
	// CategoryMapping holds, for each KPI position, the index of the
	// category that KPI belongs to.
	CategoryMapping []int `yaml:"category_mapping" validate:"required,min=1,dive,min=0"`
	// Categories define the weights applied to the KPIs mapped to each
	// category, in KPI order.
	Categories []CategoryConfig `yaml:"categories" validate:"required,min=1,dive"`
	// Goals define the weights applied to the categories, in category order.
	Goals []GoalConfig `yaml:"goals" validate:"required,min=1,dive"`
	// Options tune validation and execution.
	Options Options `yaml:"options"`
}

// Metadata provides descriptive information about a model.
type Metadata struct {
	// Name is the human-readable identifier for the model and is used as
	// the model name in logs and metrics.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description provides a detailed explanation of the model's purpose.
	Description string `yaml:"description" validate:"max=1000"`
	// Tags are categorical labels that enable filtering and grouping.
	Tags []string `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
}

// KPIConfig defines one indicator and its fuzzy labels.
type KPIConfig struct {
	// Name identifies the KPI in results and named input rows.
	Name string `yaml:"name" validate:"required,min=1,max=100"`
	// Step is the spacing of the sampled evaluation axis.
	Step float64 `yaml:"step" validate:"gt=0,finite"`
	// Labels lists the membership functions in ascending semantic order.
	Labels []LabelConfig `yaml:"labels" validate:"required,min=1,dive"`
}

// LabelConfig defines one trapezoidal membership function.
type LabelConfig struct {
	Name string `yaml:"name" validate:"required,min=1,max=100"`
	// Breakpoints are the four ascending points [a, b, c, d].
	Breakpoints []float64 `yaml:"breakpoints" validate:"len=4,ascending,dive,finite"`
}

// CategoryConfig defines the weights of one category.
type CategoryConfig struct {
	Name    string    `yaml:"name" validate:"required,min=1,max=100"`
	Weights []float64 `yaml:"weights" validate:"required,min=1,dive,finite"`
}

// GoalConfig defines the weights of one goal.
type GoalConfig struct {
	Name    string    `yaml:"name" validate:"required,min=1,max=100"`
	Weights []float64 `yaml:"weights" validate:"required,min=1,dive,finite"`
}

// Options controls validation strictness and prediction concurrency.
type Options struct {
	// RequireNormalizedWeights rejects weight vectors that do not sum to 1.
	RequireNormalizedWeights bool `yaml:"require_normalized_weights"`
	// Workers bounds concurrent row evaluation; 0 keeps the default.
	Workers int `yaml:"workers" validate:"omitempty,min=1,max=256"`
	// DefaultReadings supplies readings for KPIs missing from named input
	// rows, keyed by KPI name.
	DefaultReadings map[string]float64 `yaml:"default_readings" validate:"max=1000"`
}

// ToDomain converts the decoded configuration into a domain.Config.
// Breakpoint slices must already hold exactly four values.
func (c *ModelConfig) ToDomain() domain.Config {
	cfg := domain.Config{
		KPIs:                     make([]domain.KPI, len(c.KPIs)),
		CategoryMapping:          append([]int(nil), c.CategoryMapping...),
		Categories:               make([]domain.Category, len(c.Categories)),
		Goals:                    make([]domain.Goal, len(c.Goals)),
		RequireNormalizedWeights: c.Options.RequireNormalizedWeights,
	}

	for i, kpi := range c.KPIs {
		labels := make([]domain.Label, len(kpi.Labels))
		for j, l := range kpi.Labels {
			var shape domain.Trapezoid
			copy(shape[:], l.Breakpoints)
			labels[j] = domain.Label{Name: l.Name, Shape: shape}
		}
		cfg.KPIs[i] = domain.KPI{Name: kpi.Name, Labels: labels, Step: kpi.Step}
	}
	for i, cat := range c.Categories {
		cfg.Categories[i] = domain.Category{Name: cat.Name, Weights: append([]float64(nil), cat.Weights...)}
	}
	for i, goal := range c.Goals {
		cfg.Goals[i] = domain.Goal{Name: goal.Name, Weights: append([]float64(nil), goal.Weights...)}
	}

	return cfg
}

// KPINames returns the KPI names in configuration order.
func (c *ModelConfig) KPINames() []string {
	names := make([]string, len(c.KPIs))
	for i, kpi := range c.KPIs {
		names[i] = kpi.Name
	}
	return names
}
