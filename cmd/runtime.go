package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/embedding"
	"github.com/spigell/skillgap/internal/embedding/gemini"
	"github.com/spigell/skillgap/internal/logger"
	"github.com/spigell/skillgap/internal/scoring"
	"github.com/spigell/skillgap/internal/secrets"
	"github.com/spigell/skillgap/internal/semantic"
	"github.com/spigell/skillgap/internal/taxonomy"
)

const (
	providerHashing = "hashing"
	providerGemini  = "gemini"
	providerNone    = "none"
)

// runtime is what every scoring command needs, built once from the config.
type runtime struct {
	config   *Config
	logger   *zap.Logger
	taxonomy *taxonomy.Taxonomy
	scorer   *scoring.Scorer
	// embedder is nil when semantic scoring is switched off.
	embedder embedding.Embedder
}

// setup builds the logger and config. Failures are fatal.
func setup() (*Config, *zap.Logger) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return config, logger
}

func newRuntime(ctx context.Context, withEmbedder bool) *runtime {
	config, log := setup()

	rt := &runtime{
		config:   config,
		logger:   log,
		taxonomy: loadTaxonomy(config.Taxonomy, log),
	}

	scorer, err := newScorer(config.Scoring)
	if err != nil {
		log.Fatal("creating a scorer", zap.Error(err))
	}
	rt.scorer = scorer

	if !withEmbedder {
		return rt
	}

	embedder, err := newEmbedder(ctx, config.Embedding, log)
	if err != nil {
		log.Fatal("creating an embedder",
			zap.Error(err),
			zap.String("hint", "set embedding.provider to hashing or none, or configure embedding.gemini.api-key-file"),
		)
	}
	rt.embedder = embedder

	return rt
}

// semanticScorer returns nil when no embedder is configured.
func (rt *runtime) semanticScorer() *semantic.Scorer {
	if rt.embedder == nil {
		return nil
	}

	scorer, err := semantic.NewScorer(rt.embedder, rt.taxonomy)
	if err != nil {
		rt.logger.Fatal("creating a semantic scorer", zap.Error(err))
	}
	return scorer
}

// loadTaxonomy falls back to an empty taxonomy when the file cannot be read.
func loadTaxonomy(path string, log *zap.Logger) *taxonomy.Taxonomy {
	path = strings.TrimSpace(path)
	if path == "" {
		log.Warn("taxonomy is not configured, no skills will be extracted")
		return taxonomy.Empty()
	}

	taxo, err := taxonomy.LoadFile(path)
	if err != nil {
		log.Warn("loading taxonomy failed, no skills will be extracted", zap.String("path", path), zap.Error(err))
		return taxonomy.Empty()
	}

	log.Info("taxonomy loaded", zap.String("path", path), zap.Int("skills", taxo.Len()))
	return taxo
}

func newScorer(cfg *ScoringConfig) (*scoring.Scorer, error) {
	if cfg == nil {
		return scoring.Default(), nil
	}
	return scoring.NewScorer(cfg.Weights, cfg.ExperienceScale)
}

func newEmbedder(ctx context.Context, cfg *EmbeddingConfig, log *zap.Logger) (embedding.Embedder, error) {
	if cfg == nil {
		return embedding.NewHashing(embedding.DefaultDimension), nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", providerHashing:
		log.Info("using offline hashing embeddings", logger.CommonFields(providerHashing, "")...)
		return embedding.NewHashing(cfg.Dimension), nil
	case providerNone:
		log.Info("semantic scoring is disabled")
		return nil, nil
	case providerGemini:
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gcfg.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set embedding.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithCommonFields(log, providerGemini, gcfg.Model).With(
		zap.Int("embedding_retry_attempts", gcfg.MaxRetries),
	)

	return gemini.New(ctx, gemini.Config{
		APIKey:       apiKey,
		Model:        gcfg.Model,
		Dimension:    cfg.Dimension,
		MaxRetries:   gcfg.MaxRetries,
		MaxLogLength: gcfg.MaxLogLength,
	}, genLogger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
