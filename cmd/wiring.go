package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/ai"
	"github.com/spigell/job-seeker/internal/ai/gemini"
	"github.com/spigell/job-seeker/internal/ai/openai"
	"github.com/spigell/job-seeker/internal/coordination"
	"github.com/spigell/job-seeker/internal/logger"
	"github.com/spigell/job-seeker/internal/pipeline"
	"github.com/spigell/job-seeker/internal/profile"
	"github.com/spigell/job-seeker/internal/scoring"
	"github.com/spigell/job-seeker/internal/search"
	"github.com/spigell/job-seeker/internal/secrets"
	"github.com/spigell/job-seeker/internal/store"
)

// application holds every component a command may need. Close releases the database.
type application struct {
	logger   *zap.Logger
	config   *Config
	profile  *profile.UserProfile
	store    *store.Store
	recorder *pipeline.Recorder
	pipeline *pipeline.Pipeline
}

// overrides replace config values for a single command invocation.
type overrides struct {
	database     string
	reportFile   string
	strategyFile string
	runsDir      string
	model        string
	maxResults   int
}

func newLogger() *zap.Logger {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return logger
}

// setup loads the config and the profile and builds the pipeline around them.
func setup(ctx context.Context, logger *zap.Logger, o overrides) (*application, error) {
	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	applyOverrides(config, o)

	userProfile, err := profile.Load(config.Profile)
	if err != nil {
		return nil, fmt.Errorf("loading profile %q: %w", config.Profile, err)
	}

	db, err := store.Open(config.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", config.Database, err)
	}

	recorder := pipeline.NewRecorder(config.RunsDir)

	deps := pipeline.Deps{
		Logger:       logger,
		Profile:      userProfile,
		Searcher:     newSearcher(config, logger),
		Evaluator:    scoring.NewScorer(userProfile, logger),
		Store:        db,
		Coordinator:  coordination.NewStrategist(newGenerator(ctx, config, logger), logger),
		ReportFile:   config.ReportFile,
		StrategyFile: config.StrategyFile,
	}

	return &application{
		logger:   logger,
		config:   config,
		profile:  userProfile,
		store:    db,
		recorder: recorder,
		pipeline: pipeline.New(deps, recorder),
	}, nil
}

func (a *application) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing database", zap.Error(err))
	}
}

func applyOverrides(config *Config, o overrides) {
	if o.database != "" {
		config.Database = o.database
	}
	if o.reportFile != "" {
		config.ReportFile = o.reportFile
	}
	if o.strategyFile != "" {
		config.StrategyFile = o.strategyFile
	}
	if o.runsDir != "" {
		config.RunsDir = o.runsDir
	}
	if o.maxResults > 0 {
		config.Search.MaxResults = o.maxResults
	}
	if o.model == "" {
		return
	}

	// A named model implies the AI coordinator is wanted.
	config.AI.Enabled = true
	switch config.AI.Provider {
	case ai.ProviderOpenAI:
		if config.AI.OpenAI == nil {
			config.AI.OpenAI = &OpenAIConfig{}
		}
		config.AI.OpenAI.Model = o.model
	default:
		if config.AI.Gemini == nil {
			config.AI.Gemini = &GeminiConfig{}
		}
		config.AI.Gemini.Model = o.model
	}
}

// newSearcher returns an aggregator over Serper. Without an API key every site
// falls back to placeholder postings.
func newSearcher(config *Config, logger *zap.Logger) *search.Aggregator {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "serper api key",
		Value: config.Serper.APIKey,
		Env:   "SERPER_API_KEY",
		File:  config.Serper.APIKeyFile,
	})

	var provider search.Provider
	if err != nil {
		logger.Warn("search provider is disabled, placeholder postings will be used",
			zap.Error(err),
			zap.String("hint", "set SERPER_API_KEY or the 'serper.api-key-file' key in the configuration file"),
		)
	} else {
		client := search.NewClient(apiKey, logger)
		if config.Search.UserAgent != "" {
			client.UserAgent = config.Search.UserAgent
		}
		if config.Search.APIURL != "" {
			client.APIURL = strings.TrimRight(config.Search.APIURL, "/")
		}
		provider = client
	}

	aggregator := search.NewAggregator(provider, logger)
	aggregator.Delay = config.Search.Delay
	if config.Search.MaxResults > 0 {
		aggregator.MaxResults = config.Search.MaxResults
	}
	return aggregator
}

// newGenerator returns the configured LLM or nil, in which case the strategy
// is rendered from the static template.
func newGenerator(ctx context.Context, config *Config, logger *zap.Logger) ai.Generator {
	if config.AI == nil || !config.AI.Enabled {
		return nil
	}

	switch config.AI.Provider {
	case ai.ProviderOpenAI:
		settings := config.AI.OpenAI
		if settings == nil {
			settings = &OpenAIConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{Name: "openai api key", Env: "OPENAI_API_KEY", File: settings.APIKeyFile})
		if err != nil {
			logger.Warn("ai coordinator is disabled", zap.Error(err))
			return nil
		}
		generator, err := openai.NewGenerator(apiKey, settings.Model, settings.BaseURL, logger)
		if err != nil {
			logger.Warn("ai coordinator is disabled", zap.Error(err))
			return nil
		}
		return generator
	default:
		settings := config.AI.Gemini
		if settings == nil {
			settings = &GeminiConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{Name: "gemini api key", Env: "GEMINI_API_KEY", File: settings.APIKeyFile})
		if err != nil {
			logger.Warn("ai coordinator is disabled", zap.Error(err))
			return nil
		}
		generator, err := gemini.NewGenerator(ctx, apiKey, settings.Model, settings.MaxRetries, logger)
		if err != nil {
			logger.Warn("ai coordinator is disabled", zap.Error(err))
			return nil
		}
		return generator
	}
}

// parseSites accepts a JSON list of sites.
func parseSites(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var sites []string
	if err := json.Unmarshal([]byte(raw), &sites); err != nil {
		return nil, fmt.Errorf("sites must be a JSON list of strings: %w", err)
	}
	return sites, nil
}

func defaultQuery(config *Config, p *profile.UserProfile) string {
	if q := strings.TrimSpace(config.Search.Query); q != "" {
		return q
	}
	return p.SearchQuery()
}
