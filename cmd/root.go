package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/hyresense/internal/store"
)

const (
	app       = "hyresense"
	envPrefix = "HYRESENSE"
)

type Config struct {
	AI        *AIConfig        `mapstructure:"ai"`
	Storage   store.Config     `mapstructure:"storage"`
	Source    *SourceConfig    `mapstructure:"source"`
	Analysis  *AnalysisConfig  `mapstructure:"analysis"`
	Sweep     *SweepConfig     `mapstructure:"sweep"`
	Screening *ScreeningConfig `mapstructure:"screening"`
}

type AIConfig struct {
	Provider          string          `mapstructure:"provider"`
	Model             string          `mapstructure:"model"`
	Temperature       float32         `mapstructure:"temperature"`
	MaxOutputTokens   int             `mapstructure:"max-output-tokens"`
	MaxAttempts       int             `mapstructure:"max-attempts"`
	Backoff           time.Duration   `mapstructure:"backoff"`
	AttemptTimeout    time.Duration   `mapstructure:"attempt-timeout"`
	RequestsPerMinute int             `mapstructure:"requests-per-minute"`
	MaxLogLength      int             `mapstructure:"max-log-length"`
	Gemini            *ProviderConfig `mapstructure:"gemini"`
	OpenAI            *ProviderConfig `mapstructure:"openai"`
}

type ProviderConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
}

type SourceConfig struct {
	CatalogFile string `mapstructure:"catalog-file"`
	APIURL      string `mapstructure:"api-url"`
	Token       string `mapstructure:"token"`
	TokenFile   string `mapstructure:"token-file"`
}

type AnalysisConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxSkills   int `mapstructure:"max-skills"`
	MaxEntries  int `mapstructure:"max-entries"`
}

type ScreeningConfig struct {
	ExcludeFile string `mapstructure:"exclude-file"`
}

type SweepConfig struct {
	Schedule     string        `mapstructure:"schedule"`
	PendingAfter time.Duration `mapstructure:"pending-after"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "hyresense scores how well candidates fit job posts with an LLM and keeps the results",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hyresense.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.max-output-tokens", 2000)
	v.SetDefault("ai.max-attempts", 3)
	v.SetDefault("ai.backoff", "1s")
	v.SetDefault("ai.attempt-timeout", "60s")
	v.SetDefault("ai.requests-per-minute", 0)
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.openai.api-key-file", "")
	v.SetDefault("ai.openai.base-url", "")

	v.SetDefault("storage.driver", store.DriverSQLite)
	v.SetDefault("storage.dsn", store.DefaultSQLitePath)
	v.SetDefault("storage.redis-url", "")
	v.SetDefault("storage.cache-ttl", store.DefaultCacheTTL.String())

	v.SetDefault("source.catalog-file", "")
	v.SetDefault("source.api-url", "")
	v.SetDefault("source.token-file", "")

	v.SetDefault("analysis.concurrency", 1)
	v.SetDefault("analysis.max-skills", 50)
	v.SetDefault("analysis.max-entries", 10)

	v.SetDefault("screening.exclude-file", "")

	v.SetDefault("sweep.schedule", "@every 1h")
	v.SetDefault("sweep.pending-after", "10m")
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// Without an explicit --config the file is optional: env and defaults are enough.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
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
