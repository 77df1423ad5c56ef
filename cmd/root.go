package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-seeker/internal/ai"
	"github.com/spigell/job-seeker/internal/ai/gemini"
	"github.com/spigell/job-seeker/internal/pipeline"
	"github.com/spigell/job-seeker/internal/profile"
	"github.com/spigell/job-seeker/internal/report"
	"github.com/spigell/job-seeker/internal/scheduler"
	"github.com/spigell/job-seeker/internal/search"
	"github.com/spigell/job-seeker/internal/store"
)

const (
	appName = "job-seeker"
)

type Config struct {
	Profile      string        `mapstructure:"profile" validate:"required"`
	Database     string        `mapstructure:"database" validate:"required"`
	ReportFile   string        `mapstructure:"report-file" validate:"required"`
	StrategyFile string        `mapstructure:"strategy-file" validate:"required"`
	RunsDir      string        `mapstructure:"runs-dir" validate:"required"`
	Schedule     string        `mapstructure:"schedule"`
	Search       *SearchConfig `mapstructure:"search" validate:"required"`
	Serper       *SerperConfig `mapstructure:"serper"`
	AI           *AIConfig     `mapstructure:"ai"`
}

type SearchConfig struct {
	Query      string        `mapstructure:"query"`
	Sites      []string      `mapstructure:"sites" validate:"dive,required"`
	MaxResults int           `mapstructure:"max-results" validate:"gte=1,lte=100"`
	Delay      time.Duration `mapstructure:"delay" validate:"gte=0"`
	UserAgent  string        `mapstructure:"user-agent"`
	APIURL     string        `mapstructure:"api-url" validate:"omitempty,url"`
}

type SerperConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=gemini openai"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
	OpenAI   *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries" validate:"gte=0"`
}

type OpenAIConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url" validate:"omitempty,url"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "job-seeker searches job boards, scores postings against your profile and writes a report",
		Long: `job-seeker runs a five stage pipeline: search job boards through the Serper API,
score every posting against your profile, store them in a local SQLite database,
render a markdown report and write an application strategy.`,
		SilenceUsage: true,
	}
)

// Execute executes the root command. Long running commands stop when ctx is done.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	for key, env := range map[string]string{
		"serper.api-key":      "SERPER_API_KEY",
		"serper.api-key-file": "SERPER_API_KEY_FILE",
		"profile":             "JOB_SEEKER_PROFILE",
		"database":            "JOB_SEEKER_DATABASE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-seeker.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("profile", profile.DefaultPath, "path to the profile JSON document")
	rootCmd.PersistentFlags().String("database", store.DefaultPath, "path to the SQLite database")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))
}

func setDefaults() {
	viper.SetDefault("profile", profile.DefaultPath)
	viper.SetDefault("database", store.DefaultPath)
	viper.SetDefault("report-file", report.DefaultReportFile)
	viper.SetDefault("strategy-file", report.DefaultStrategyFile)
	viper.SetDefault("runs-dir", pipeline.DefaultRunsDir)
	viper.SetDefault("schedule", scheduler.DefaultSpec)

	viper.SetDefault("search.sites", search.DefaultSites)
	viper.SetDefault("search.max-results", search.DefaultMaxResults)
	viper.SetDefault("search.delay", search.DefaultDelay)

	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", ai.ProviderGemini)
	viper.SetDefault("ai.gemini.model", gemini.DefaultModel)
	viper.SetDefault("ai.gemini.max-retries", gemini.DefaultMaxRetries)
}

func initConfig() {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(appName)
	}

	// The config file is optional unless it was requested explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}
	if config.Search == nil {
		config.Search = &SearchConfig{MaxResults: search.DefaultMaxResults, Delay: search.DefaultDelay}
	}
	if config.Serper == nil {
		config.Serper = &SerperConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// sites picks the explicit list, then the configured one, then the defaults.
func (c *Config) sites(override []string) []string {
	for _, candidate := range [][]string{override, c.Search.Sites} {
		cleaned := make([]string, 0, len(candidate))
		for _, site := range candidate {
			if site = strings.TrimSpace(site); site != "" {
				cleaned = append(cleaned, site)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return append([]string(nil), search.DefaultSites...)
}
