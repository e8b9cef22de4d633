package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/skillgap/internal/embedding"
	"github.com/spigell/skillgap/internal/embedding/gemini"
	"github.com/spigell/skillgap/internal/scoring"
	"github.com/spigell/skillgap/internal/server"
)

const (
	app = "skillgap"

	defaultTaxonomy = "data/skills.csv"
)

type Config struct {
	Taxonomy  string           `mapstructure:"taxonomy"`
	Scoring   *ScoringConfig   `mapstructure:"scoring"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	Rank      *RankConfig      `mapstructure:"rank"`
	Serve     server.Config    `mapstructure:"serve"`
}

type ScoringConfig struct {
	Weights         scoring.Weights `mapstructure:"weights"`
	ExperienceScale float64         `mapstructure:"experience-scale"`
}

type EmbeddingConfig struct {
	// Provider is one of hashing, gemini or none.
	Provider  string        `mapstructure:"provider"`
	Dimension int           `mapstructure:"dimension"`
	Gemini    *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type RankConfig struct {
	MinimumFitScore      float64 `mapstructure:"minimum-fit-score"`
	MinimumSemanticScore float64 `mapstructure:"minimum-semantic-score"`
	RequireRoleMatch     bool    `mapstructure:"require-role-match"`
	ExcludeFile          string  `mapstructure:"exclude-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "skillgap extracts skills from resumes and job descriptions and scores how well they fit",
	}
)

// Execute executes the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	if err := viper.BindEnv("taxonomy", "SKILLGAP_TAXONOMY"); err != nil {
		log.Fatalf("binding SKILLGAP_TAXONOMY environment variable: %v", err)
	}
	if err := viper.BindEnv("embedding.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is skillgap.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("taxonomy", "t", "", "skills taxonomy csv (default is "+defaultTaxonomy+")")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("taxonomy", rootCmd.PersistentFlags().Lookup("taxonomy"))
}

func setDefaults() {
	viper.SetDefault("taxonomy", defaultTaxonomy)

	viper.SetDefault("scoring.weights.skills", scoring.DefaultSkillsWeight)
	viper.SetDefault("scoring.weights.experience", scoring.DefaultExperienceWeight)
	viper.SetDefault("scoring.weights.role", scoring.DefaultRoleWeight)
	viper.SetDefault("scoring.experience-scale", scoring.DefaultExperienceScale)

	viper.SetDefault("embedding.provider", providerHashing)
	viper.SetDefault("embedding.dimension", embedding.DefaultDimension)
	viper.SetDefault("embedding.gemini.model", gemini.DefaultModel)
	viper.SetDefault("embedding.gemini.max-retries", 2)
	viper.SetDefault("embedding.gemini.max-log-length", 200)

	viper.SetDefault("rank.minimum-fit-score", 0)
	viper.SetDefault("rank.minimum-semantic-score", 0)
	viper.SetDefault("rank.require-role-match", false)
	viper.SetDefault("rank.exclude-file", "")

	viper.SetDefault("serve.address", server.DefaultAddress)
	viper.SetDefault("serve.max-upload-bytes", server.DefaultMaxUploadBytes)
}

func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The default config file is optional, an explicit one is not.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
