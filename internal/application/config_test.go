package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-fcem/internal/domain"
)

// validModelYAML describes two KPIs with three labels each, feeding one
// category and one goal.
const validModelYAML = `
version: "1.0.0"
metadata:
  name: "service-health"
  description: "Service health scoring"
  tags: ["sre"]
kpis:
  - name: availability
    step: 1
    labels:
      - {name: low, breakpoints: [0, 0, 25, 50]}
      - {name: medium, breakpoints: [25, 50, 50, 75]}
      - {name: high, breakpoints: [50, 75, 100, 100]}
  - name: latency
    step: 1
    labels:
      - {name: low, breakpoints: [0, 0, 25, 50]}
      - {name: medium, breakpoints: [25, 50, 50, 75]}
      - {name: high, breakpoints: [50, 75, 100, 100]}
category_mapping: [0, 0]
categories:
  - name: service
    weights: [0.5, 0.5]
goals:
  - name: overall
    weights: [1]
options:
  workers: 2
  default_readings:
    latency: 50
`

// TestModelConfig_UnmarshalYAML tests the YAML unmarshaling of ModelConfig.
// It focuses on decoding itself, not validation.
func TestModelConfig_UnmarshalYAML(t *testing.T) {
	var cfg ModelConfig
	require.NoError(t, yaml.Unmarshal([]byte(validModelYAML), &cfg))

	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "service-health", cfg.Metadata.Name)
	assert.Equal(t, []string{"sre"}, cfg.Metadata.Tags)
	require.Len(t, cfg.KPIs, 2)
	assert.Equal(t, "latency", cfg.KPIs[1].Name)
	assert.Equal(t, 1.0, cfg.KPIs[0].Step)
	require.Len(t, cfg.KPIs[0].Labels, 3)
	assert.Equal(t, []float64{25, 50, 50, 75}, cfg.KPIs[0].Labels[1].Breakpoints)
	assert.Equal(t, []int{0, 0}, cfg.CategoryMapping)
	assert.Equal(t, []float64{0.5, 0.5}, cfg.Categories[0].Weights)
	assert.Equal(t, 2, cfg.Options.Workers)
	assert.Equal(t, map[string]float64{"latency": 50}, cfg.Options.DefaultReadings)
	assert.False(t, cfg.Options.RequireNormalizedWeights)
}

func TestModelConfig_ToDomain(t *testing.T) {
	var cfg ModelConfig
	require.NoError(t, yaml.Unmarshal([]byte(validModelYAML), &cfg))
	cfg.Options.RequireNormalizedWeights = true

	d := cfg.ToDomain()

	require.Len(t, d.KPIs, 2)
	assert.Equal(t, "availability", d.KPIs[0].Name)
	assert.Equal(t, domain.Trapezoid{50, 75, 100, 100}, d.KPIs[0].Labels[2].Shape)
	assert.Equal(t, "high", d.KPIs[0].Labels[2].Name)
	assert.Equal(t, []int{0, 0}, d.CategoryMapping)
	assert.Equal(t, "service", d.Categories[0].Name)
	assert.Equal(t, []float64{1}, d.Goals[0].Weights)
	assert.True(t, d.RequireNormalizedWeights)
	require.NoError(t, d.Validate())

	// The conversion copies slices.
	d.Categories[0].Weights[0] = 9
	d.CategoryMapping[0] = 7
	assert.Equal(t, 0.5, cfg.Categories[0].Weights[0])
	assert.Equal(t, 0, cfg.CategoryMapping[0])
}

func TestModelConfig_KPINames(t *testing.T) {
	var cfg ModelConfig
	require.NoError(t, yaml.Unmarshal([]byte(validModelYAML), &cfg))

	assert.Equal(t, []string{"availability", "latency"}, cfg.KPINames())
}
