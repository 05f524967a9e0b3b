package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-fcem/infrastructure/fcem"
	"github.com/ahrav/go-fcem/internal/domain"
	"github.com/ahrav/go-fcem/internal/ports"
)

// LoadedModel bundles a fitted model with the configuration it was built
// from and a RowMapper for its KPI names.
type LoadedModel struct {
	// Config is the decoded source configuration.
	Config *ModelConfig
	// Model is fitted and ready for prediction.
	Model *fcem.Model
	// Mapper converts named readings into rows in KPI order.
	Mapper *RowMapper
	// Hash is the SHA256 of the normalized configuration.
	Hash string
}

// ModelLoader provides YAML configuration parsing, validation, and caching
// for FCEM models, turning declarative YAML into fitted models.
// Use ModelLoader to load models from files or readers while benefiting
// from SHA256-based caching and comprehensive validation.
type ModelLoader struct {
	// validator performs struct field validation and the custom
	// semver, ascending and finite rules.
	validator *validator.Validate
	// logger receives debug output about cache hits and fits.
	logger *slog.Logger
	// opts are applied to every model built by this loader.
	opts []fcem.Option
	// cache stores fitted models indexed by SHA256 hash of the normalized
	// configuration to avoid refitting identical configurations.
	cache   map[string]*LoadedModel
	cacheMu sync.RWMutex
	// sf prevents duplicate fitting when multiple goroutines request the
	// same configuration simultaneously.
	sf singleflight.Group
}

// NewModelLoader creates a loader with registered custom validators and an
// empty cache. A nil logger falls back to slog.Default(). opts are passed
// to fcem.NewModel for every model the loader builds.
func NewModelLoader(logger *slog.Logger, opts ...fcem.Option) (*ModelLoader, error) {
	v := validator.New()
	if err := RegisterModelValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ModelLoader{
		validator: v,
		logger:    logger,
		opts:      opts,
		cache:     make(map[string]*LoadedModel),
	}, nil
}

// LoadFromFile loads, validates and fits a model from a YAML file.
// A missing file yields an error wrapping ports.ErrConfigNotFound; invalid
// configuration yields an error wrapping domain.ErrInvalidConfiguration.
func (ml *ModelLoader) LoadFromFile(ctx context.Context, path string) (*LoadedModel, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.NewConfigError(cleanPath, fmt.Errorf("%w: %w", ports.ErrConfigNotFound, err))
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ml.load(ctx, data)
}

// LoadFromReader loads, validates and fits a model from an io.Reader.
func (ml *ModelLoader) LoadFromReader(ctx context.Context, r io.Reader) (*LoadedModel, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return ml.load(ctx, data)
}

// Parse decodes and validates YAML without building a model.
func (ml *ModelLoader) Parse(data []byte) (*ModelConfig, error) {
	config, err := ml.parseYAML(data)
	if err != nil {
		return nil, err
	}
	if err := ml.validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// load is the common implementation for loading models from byte data.
// The returned LoadedModel may be shared with other callers and must not be
// mutated.
func (ml *ModelLoader) load(ctx context.Context, data []byte) (*LoadedModel, error) {
	config, err := ml.parseYAML(data)
	if err != nil {
		return nil, err
	}

	// Hash the normalized config, not raw bytes.
	hash, err := ml.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, shared := ml.sf.Do(hash, func() (any, error) {
		if loaded, ok := ml.getCachedModel(hash); ok {
			ml.logger.Debug("model cache hit", "model", config.Metadata.Name, "hash", hash[:12])
			return loaded, nil
		}

		if err := ml.validateConfig(config); err != nil {
			return nil, err
		}

		loaded, err := ml.buildModel(ctx, config, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to build model: %w", err)
		}

		ml.cacheModel(hash, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		ml.logger.Debug("model load shared with concurrent caller", "hash", hash[:12])
	}

	return v.(*LoadedModel), nil
}

// parseYAML uses strict decoding so that unknown fields, usually typos,
// are rejected rather than silently ignored.
func (ml *ModelLoader) parseYAML(data []byte) (*ModelConfig, error) {
	var config ModelConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("%w: YAML decode failed: %w", domain.ErrInvalidConfiguration, err)
	}
	return &config, nil
}

// validateConfig runs struct tag validation, cross-field checks and
// finally the domain configuration rules.
func (ml *ModelLoader) validateConfig(config *ModelConfig) error {
	if err := ml.validator.Struct(config); err != nil {
		return fmt.Errorf("%w: struct validation failed: %w", domain.ErrInvalidConfiguration, err)
	}

	if err := ml.validateSemantics(config); err != nil {
		return fmt.Errorf("%w: semantic validation failed: %w", domain.ErrInvalidConfiguration, err)
	}

	if err := config.ToDomain().Validate(); err != nil {
		return err
	}

	return nil
}

// validateSemantics enforces name uniqueness within each level and checks
// that default readings reference known KPIs.
func (ml *ModelLoader) validateSemantics(config *ModelConfig) error {
	if err := uniqueNames("KPI", config.KPINames()); err != nil {
		return err
	}

	categories := make([]string, len(config.Categories))
	for i, c := range config.Categories {
		categories[i] = c.Name
	}
	if err := uniqueNames("category", categories); err != nil {
		return err
	}

	goals := make([]string, len(config.Goals))
	for i, g := range config.Goals {
		goals[i] = g.Name
	}
	if err := uniqueNames("goal", goals); err != nil {
		return err
	}

	if len(config.Options.DefaultReadings) > 0 {
		if _, err := NewRowMapper(config.KPINames(), WithDefaults(config.Options.DefaultReadings)); err != nil {
			return fmt.Errorf("default_readings: %w", err)
		}
	}

	return nil
}

func uniqueNames(entity string, names []string) error {
	seen := make(map[string]int, len(names))
	for i, name := range names {
		key := foldName(name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("duplicate %s name %q at positions %d and %d", entity, name, prev, i)
		}
		seen[key] = i
	}
	return nil
}

// buildModel constructs and fits a model from a validated configuration.
func (ml *ModelLoader) buildModel(ctx context.Context, config *ModelConfig, hash string) (*LoadedModel, error) {
	// Loader options come last so callers can override the file.
	opts := []fcem.Option{fcem.WithLogger(ml.logger)}
	if config.Options.Workers > 0 {
		opts = append(opts, fcem.WithWorkers(config.Options.Workers))
	}
	opts = append(opts, ml.opts...)

	model, err := fcem.NewModel(config.Metadata.Name, config.ToDomain(), opts...)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(ctx); err != nil {
		return nil, err
	}

	mapper, err := NewRowMapper(config.KPINames(), WithDefaults(config.Options.DefaultReadings))
	if err != nil {
		return nil, err
	}

	ml.logger.Debug("model loaded",
		"model", config.Metadata.Name,
		"version", config.Version,
		"kpis", len(config.KPIs),
		"hash", hash[:12],
	)

	return &LoadedModel{Config: config, Model: model, Mapper: mapper, Hash: hash}, nil
}

// calculateConfigHash computes the SHA256 hash of a normalized ModelConfig
// so that semantically identical configurations share a cache entry
// regardless of whitespace or comments.
func (ml *ModelLoader) calculateConfigHash(config *ModelConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

func (ml *ModelLoader) getCachedModel(hash string) (*LoadedModel, bool) {
	ml.cacheMu.RLock()
	defer ml.cacheMu.RUnlock()

	loaded, ok := ml.cache[hash]
	return loaded, ok
}

func (ml *ModelLoader) cacheModel(hash string, loaded *LoadedModel) {
	ml.cacheMu.Lock()
	defer ml.cacheMu.Unlock()

	ml.cache[hash] = loaded
}

// ClearCache removes all cached models, forcing subsequent loads to refit.
func (ml *ModelLoader) ClearCache() {
	ml.cacheMu.Lock()
	defer ml.cacheMu.Unlock()

	ml.cache = make(map[string]*LoadedModel)
}

// CacheSize returns the number of cached models.
func (ml *ModelLoader) CacheSize() int {
	ml.cacheMu.RLock()
	defer ml.cacheMu.RUnlock()

	return len(ml.cache)
}
