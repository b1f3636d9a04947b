package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"github.com/spigell/jobboard-assistant/internal/ai/gemini"
	"github.com/spigell/jobboard-assistant/internal/logger"
	"github.com/spigell/jobboard-assistant/internal/secrets"
)

const (
	app       = "jobboard-assistant"
	envPrefix = "JOBBOARD"
)

type Config struct {
	Server *ServerConfig `mapstructure:"server"`
	AI     *AIConfig     `mapstructure:"ai"`
	Search *SearchConfig `mapstructure:"search"`
}

type ServerConfig struct {
	Listen          string        `mapstructure:"listen" validate:"required"`
	CORSOrigins     []string      `mapstructure:"cors-origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" validate:"gte=0"`
	MaxUploadBytes  int64         `mapstructure:"max-upload-bytes" validate:"gte=0"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini" validate:"required"`
}

type GeminiConfig struct {
	APIKey          string        `mapstructure:"api-key" json:"-"`
	APIKeyFile      string        `mapstructure:"api-key-file"`
	Model           string        `mapstructure:"model"`
	Temperature     *float32      `mapstructure:"temperature" validate:"omitempty,gte=0,lte=2"`
	TopP            *float32      `mapstructure:"top-p" validate:"omitempty,gte=0,lte=1"`
	TopK            *float32      `mapstructure:"top-k" validate:"omitempty,gte=0"`
	MaxOutputTokens int32         `mapstructure:"max-output-tokens" validate:"gte=0"`
	RequestTimeout  time.Duration `mapstructure:"request-timeout" validate:"gte=0"`
	MaxLogLength    int           `mapstructure:"max-log-length" validate:"gte=0"`
}

type SearchConfig struct {
	MinimumMatchScore int `mapstructure:"minimum-match-score" validate:"gte=0,lte=100"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobboard-assistant turns resumes, jobs and search queries into structured data with a generative model",
	}

	validate = validator.New()
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobboard-assistant.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.cors-origins", []string{})
	viper.SetDefault("server.shutdown-timeout", "10s")
	viper.SetDefault("server.max-upload-bytes", 10<<20)
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", gemini.DefaultModel)
	viper.SetDefault("ai.gemini.max-output-tokens", 0)
	viper.SetDefault("ai.gemini.request-timeout", "60s")
	viper.SetDefault("ai.gemini.max-log-length", 200)
	viper.SetDefault("search.minimum-match-score", 0)

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	// Sampling keys have no default so an explicit zero can be told apart from unset.
	for _, key := range []string{"ai.gemini.temperature", "ai.gemini.top-p", "ai.gemini.top-k"} {
		if err := viper.BindEnv(key); err != nil {
			log.Fatalf("binding %s environment variable: %v", key, err)
		}
	}
}

func initConfig() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// Defaults and environment are enough when no config file exists.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}

	// We can't proceed if the config file parsed with error.
	log.Fatal(err)
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is required")
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func newLogger() (*zap.Logger, error) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	return l, nil
}

// newAssistant builds the Gemini backed assistant. The returned interface is
// nil together with an error when no api key is available.
func newAssistant(ctx context.Context, cfg *GeminiConfig, log *zap.Logger) (ai.Assistant, error) {
	if cfg == nil {
		return nil, errors.New("ai.gemini section is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}
	log.Debug("gemini api key loaded", zap.String("key", secrets.Mask(apiKey)))

	var httpClient *http.Client
	if cfg.RequestTimeout > 0 {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Options{
		APIKey:          apiKey,
		Model:           cfg.Model,
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		TopK:            cfg.TopK,
		MaxOutputTokens: cfg.MaxOutputTokens,
		HTTPClient:      httpClient,
		Logger:          log,
	})
	if err != nil {
		return nil, err
	}

	return gemini.NewAssistant(generator, logger.WithCommonFields(log, "gemini", generator.Model()), cfg.MaxLogLength), nil
}

// optionalAssistant keeps the caller running without a model.
func optionalAssistant(ctx context.Context, cfg *Config, log *zap.Logger) ai.Assistant {
	assistant, err := newAssistant(ctx, cfg.AI.Gemini, log)
	if err != nil {
		log.Warn("ai features are disabled", zap.Error(err))
		return nil
	}
	return assistant
}
