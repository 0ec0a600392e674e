package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"job-radar/internal/ai"
	"job-radar/internal/ai/gemini"
	"job-radar/internal/corpus"
	"job-radar/internal/embedding"
	"job-radar/internal/firecrawl"
	"job-radar/internal/logger"
	"job-radar/internal/matching"
	"job-radar/internal/profile"
	"job-radar/internal/runstore"
	"job-radar/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const runsSubdir = "runs"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full triage pipeline: fetch postings, score them against the resume, persist and render the result",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume", "r", "", "path to the resume markdown document")
	runCmd.Flags().StringP("query", "q", "", "search query")
	runCmd.Flags().IntP("workers", "w", 0, "number of concurrent scoring workers")

	viper.BindPFlag("resume-file", runCmd.Flags().Lookup("resume"))
	viper.BindPFlag("query", runCmd.Flags().Lookup("query"))
	viper.BindPFlag("workers", runCmd.Flags().Lookup("workers"))
}

// run is the main command for the cli.
func run(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-radar run", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	geminiKey, err := resolveGeminiKey(config)
	if err != nil {
		logger.Fatal(
			"loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or the 'gemini' key in the configuration file"),
		)
	}

	prof, err := profile.ParseFile(config.ResumeFile)
	if err != nil {
		logger.Fatal("parsing resume", zap.Error(err))
	}

	logger.Info("parsed resume profile",
		zap.Int("sections", len(prof.Sections)),
		zap.Int("skills", len(prof.Skills)),
	)

	groups, err := collectCorpus(ctx, config, logger)
	if err != nil {
		logger.Fatal("collecting posting corpus", zap.Error(err))
	}

	total := 0
	for _, group := range groups {
		total += len(group.Jobs)
	}
	logger.Info("collected posting corpus", zap.Int("groups", len(groups)), zap.Int("postings", total))

	engine := buildEngine(ctx, config, geminiKey, logger)

	meta := runstore.Meta{
		RunID:     runstore.NewRunID(),
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Query:     config.Query,
		Status:    "started",
	}

	matches, err := engine.MatchAll(ctx, groups, prof)
	if err != nil {
		logger.Fatal("matching failed", zap.Error(err))
	}

	meta.Status = "finished"

	store := runstore.New(filepath.Join(config.DataDir, runsSubdir))
	result := &runstore.Result{Meta: meta, Matches: matches}

	jsonPath, err := store.Save(result)
	if err != nil {
		logger.Fatal("persisting run result", zap.Error(err))
	}

	htmlPath, err := store.WriteHTML(result)
	if err != nil {
		logger.Fatal("rendering run result", zap.Error(err))
	}

	logger.Info("run finished",
		zap.String("run_id", meta.RunID),
		zap.String("json", jsonPath),
		zap.String("html", htmlPath),
	)
}

// collectCorpus fetches postings through Firecrawl when a key is configured
// and falls back to previously scraped files in the data dir otherwise.
func collectCorpus(ctx context.Context, config *Config, logger *zap.Logger) ([]corpus.Group, error) {
	key, err := resolveFirecrawlKey(config)
	if err != nil {
		logger.Info("firecrawl key not configured, loading stored corpus",
			zap.String("data_dir", config.DataDir),
		)
		return corpus.LoadDir(config.DataDir)
	}

	client := firecrawl.New(ctx, logger, key)

	limit := 0
	if config.Firecrawl != nil {
		limit = config.Firecrawl.Limit
		client.ScrapeResults = config.Firecrawl.ScrapeResults
	}

	return client.FetchAll(config.Countries, config.Query, limit), nil
}

// buildEngine wires the embedding provider and, when enabled, the LLM judge
// into the matching engine. The judge being nil disables LLM judging; the
// embedder is constructed lazily and its failure is fatal at match time.
func buildEngine(ctx context.Context, config *Config, geminiKey string, logger *zap.Logger) *matching.Engine {
	embedModel := ""
	if config.Embedding != nil {
		embedModel = config.Embedding.Model
	}

	provider := embedding.NewProvider(func(ctx context.Context) (embedding.Embedder, error) {
		return gemini.NewEmbedder(ctx, geminiKey, embedModel)
	})

	if config.Embedding != nil {
		provider.StrictAffineRemap = config.Embedding.StrictAffineRemap
		if config.Embedding.TextLimit > 0 {
			provider.TextLimit = config.Embedding.TextLimit
		}
	}

	var judge ai.Judge
	if config.AI != nil && config.AI.Enabled {
		j, err := buildJudge(ctx, config.AI, geminiKey, logger)
		if err != nil {
			logger.Warn("disabling LLM judging", zap.Error(err))
		} else {
			judge = j
		}
	}

	return matching.NewEngine(provider, judge, matching.Config{Workers: config.Workers}, logger)
}

func buildJudge(ctx context.Context, cfg *AIConfig, geminiKey string, logger *zap.Logger) (ai.Judge, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	generator, err := gemini.NewGenerator(ctx, geminiKey, cfg.Model)
	if err != nil {
		return nil, err
	}

	return gemini.NewJudge(generator, logger, gemini.JudgeOptions{
		JobTextLimit:    cfg.JobTextLimit,
		ResumeTextLimit: cfg.ResumeTextLimit,
		MaxLogLength:    cfg.MaxLogLength,
	}), nil
}

func resolveGeminiKey(config *Config) (string, error) {
	src := secrets.Source{Name: "gemini api key"}
	if config.Gemini != nil {
		src.Value = config.Gemini.APIKey
		src.File = config.Gemini.APIKeyFile
	}

	// Env-bound values do not survive viper.Unmarshal; read them directly.
	if src.Value == "" {
		src.Value = viper.GetString("gemini.api-key")
	}
	if src.File == "" {
		src.File = viper.GetString("gemini.api-key-file")
	}

	return secrets.Load(src)
}

func resolveFirecrawlKey(config *Config) (string, error) {
	src := secrets.Source{Name: "firecrawl api key"}
	if config.Firecrawl != nil {
		src.Value = config.Firecrawl.APIKey
		src.File = config.Firecrawl.APIKeyFile
	}

	if src.Value == "" {
		src.Value = viper.GetString("firecrawl.api-key")
	}

	return secrets.Load(src)
}
