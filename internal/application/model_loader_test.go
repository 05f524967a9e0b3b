package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-fcem/internal/domain"
	"github.com/ahrav/go-fcem/internal/ports"
)

func newTestLoader(t *testing.T) *ModelLoader {
	t.Helper()
	loader, err := NewModelLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return loader
}

func TestModelLoader_LoadFromReader(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	loaded, err := loader.LoadFromReader(ctx, strings.NewReader(validModelYAML))
	require.NoError(t, err)

	assert.Equal(t, "service-health", loaded.Model.Name())
	assert.True(t, loaded.Model.Fitted())
	assert.Len(t, loaded.Hash, 64)
	assert.Equal(t, []string{"availability", "latency"}, loaded.Mapper.Names())

	evals, err := loaded.Model.Predict(ctx, [][]float64{{60, 90}})
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.InDeltaSlice(t, []float64{0, 0.3, 0.7}, evals[0].Goals[0], 1e-9)

	// Defaults from the configuration fill the missing latency reading.
	row, err := loaded.Mapper.Row(map[string]float64{"Availability": 60})
	require.NoError(t, err)
	evals, err = loaded.Model.Predict(ctx, [][]float64{row})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.8, 0.2}, evals[0].Goals[0], 1e-9)
}

func TestModelLoader_Cache(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	first, err := loader.LoadFromReader(ctx, strings.NewReader(validModelYAML))
	require.NoError(t, err)

	// Comments and whitespace do not change the normalized hash.
	reformatted := "# service health model\n" + strings.ReplaceAll(validModelYAML, "weights: [1]", "weights:   [1]   # single category")
	second, err := loader.LoadFromReader(ctx, strings.NewReader(reformatted))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.CacheSize())

	loader.ClearCache()
	assert.Equal(t, 0, loader.CacheSize())

	third, err := loader.LoadFromReader(ctx, strings.NewReader(validModelYAML))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first.Hash, third.Hash)
}

func TestModelLoader_ConcurrentLoadsShareModel(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	const goroutines = 8
	results := make([]*LoadedModel, goroutines)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loaded, err := loader.LoadFromReader(ctx, strings.NewReader(validModelYAML))
			assert.NoError(t, err)
			results[i] = loaded
		}()
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, loader.CacheSize())
}

func TestModelLoader_LoadFromFile(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "model.yaml")
		require.NoError(t, os.WriteFile(path, []byte(validModelYAML), 0o600))

		loaded, err := loader.LoadFromFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "service-health", loaded.Config.Metadata.Name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.LoadFromFile(ctx, filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ports.ErrConfigNotFound)

		var cfgErr *ports.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})
}

func TestModelLoader_InvalidConfigurations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantMsg string
	}{
		{
			name: "bad version",
			mutate: func(s string) string {
				return strings.Replace(s, `version: "1.0.0"`, `version: "1.0"`, 1)
			},
			wantMsg: "semver",
		},
		{
			name: "unknown field",
			mutate: func(s string) string {
				return strings.Replace(s, "  workers: 2", "  workers: 2\n  wrokers: 3", 1)
			},
			wantMsg: "wrokers",
		},
		{
			name: "descending breakpoints",
			mutate: func(s string) string {
				return strings.Replace(s, "[25, 50, 50, 75]", "[25, 50, 40, 75]", 1)
			},
			wantMsg: "ascending",
		},
		{
			name: "three breakpoints",
			mutate: func(s string) string {
				return strings.Replace(s, "[0, 0, 25, 50]", "[0, 25, 50]", 1)
			},
			wantMsg: "breakpoints",
		},
		{
			name: "zero step",
			mutate: func(s string) string {
				return strings.Replace(s, "step: 1", "step: 0", 1)
			},
			wantMsg: "step",
		},
		{
			name: "non-finite weight",
			mutate: func(s string) string {
				return strings.Replace(s, "weights: [0.5, 0.5]", "weights: [.nan, 0.5]", 1)
			},
			wantMsg: "finite",
		},
		{
			name: "duplicate KPI name",
			mutate: func(s string) string {
				return strings.Replace(s, "name: latency", "name: Availability", 1)
			},
			wantMsg: "duplicate KPI name",
		},
		{
			name: "default for unknown KPI",
			mutate: func(s string) string {
				return strings.Replace(s, "    latency: 50", "    latncy: 50", 1)
			},
			wantMsg: `did you mean "latency"`,
		},
		{
			name: "mapping out of range",
			mutate: func(s string) string {
				return strings.Replace(s, "category_mapping: [0, 0]", "category_mapping: [0, 1]", 1)
			},
			wantMsg: "out of range",
		},
		{
			name: "category weight count",
			mutate: func(s string) string {
				return strings.Replace(s, "weights: [0.5, 0.5]", "weights: [1]", 1)
			},
			wantMsg: "has 1 weights but 2 mapped KPIs",
		},
		{
			name: "unnormalized weights when required",
			mutate: func(s string) string {
				s = strings.Replace(s, "weights: [0.5, 0.5]", "weights: [0.5, 0.6]", 1)
				return strings.Replace(s, "  workers: 2", "  workers: 2\n  require_normalized_weights: true", 1)
			},
			wantMsg: "must sum to 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t)
			input := tt.mutate(validModelYAML)
			require.NotEqual(t, validModelYAML, input, "mutation must change the fixture")

			_, err := loader.LoadFromReader(context.Background(), strings.NewReader(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, 0, loader.CacheSize())

			_, err = loader.Parse([]byte(input))
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}
}

func TestModelLoader_Parse(t *testing.T) {
	loader := newTestLoader(t)

	cfg, err := loader.Parse([]byte(validModelYAML))
	require.NoError(t, err)
	assert.Equal(t, "service-health", cfg.Metadata.Name)
	assert.Equal(t, 0, loader.CacheSize())

	_, err = loader.Parse([]byte("version: [unterminated"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}
