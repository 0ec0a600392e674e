package cmd

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "job-radar"
)

type Config struct {
	Query      string   `mapstructure:"query"`
	ResumeFile string   `mapstructure:"resume-file"`
	DataDir    string   `mapstructure:"data-dir"`
	Countries  []string `mapstructure:"countries"`
	Workers    int      `mapstructure:"workers"`

	Gemini    *GeminiConfig    `mapstructure:"gemini"`
	AI        *AIConfig        `mapstructure:"ai"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	Firecrawl *FirecrawlConfig `mapstructure:"firecrawl"`
	Serve     *ServeConfig     `mapstructure:"serve"`
}

// GeminiConfig carries the shared Gemini credential used by both the judge
// and the embedder.
type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

// AIConfig controls the optional LLM judgment signal.
type AIConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Provider        string `mapstructure:"provider"`
	Model           string `mapstructure:"model"`
	JobTextLimit    int    `mapstructure:"job-text-limit"`
	ResumeTextLimit int    `mapstructure:"resume-text-limit"`
	MaxLogLength    int    `mapstructure:"max-log-length"`
}

type EmbeddingConfig struct {
	Model             string `mapstructure:"model"`
	TextLimit         int    `mapstructure:"text-limit"`
	StrictAffineRemap bool   `mapstructure:"strict-affine-remap"`
}

type FirecrawlConfig struct {
	APIKey        string `mapstructure:"api-key"`
	APIKeyFile    string `mapstructure:"api-key-file"`
	Limit         int    `mapstructure:"limit"`
	ScrapeResults bool   `mapstructure:"scrape-results"`
}

type ServeConfig struct {
	Port int `mapstructure:"port"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-radar scrapes job postings, scores them against a resume and reports the ranked results",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Credentials can arrive via a .env written by the setup command.
	_ = godotenv.Load()

	if err := viper.BindEnv("gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("firecrawl.api-key", "FIRECRAWL_API_KEY"); err != nil {
		log.Fatalf("binding FIRECRAWL_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("query", "JOB_RADAR_QUERY"); err != nil {
		log.Fatalf("binding JOB_RADAR_QUERY environment variable: %v", err)
	}
	if err := viper.BindEnv("resume-file", "JOB_RADAR_RESUME"); err != nil {
		log.Fatalf("binding JOB_RADAR_RESUME environment variable: %v", err)
	}

	viper.SetDefault("query", "data engineer")
	viper.SetDefault("resume-file", "resume.md")
	viper.SetDefault("data-dir", "stored_data")
	viper.SetDefault("countries", []string{"sweden", "denmark", "norway", "finland", "germany"})
	viper.SetDefault("workers", 1)
	viper.SetDefault("serve.port", 8000)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-radar.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config file matters only for the run and serve commands.
	if runCmd.CalledAs() == "" && serveCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Defaults plus the .env written by setup are enough to run; a
		// parse error in a present file is still fatal.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
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
