package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all pipeline configuration
type Config struct {
	Version  int            `toml:"version"`
	Data     DataConfig     `toml:"data"`
	Enrich   EnrichConfig   `toml:"enrich"`
	AI       AIConfig       `toml:"ai"`
	Graph    GraphConfig    `toml:"graph"`
	Schedule ScheduleConfig `toml:"schedule"`
}

// DataConfig locates the flat JSON datasets and the image directory. All
// paths are relative to the working directory unless absolute.
type DataConfig struct {
	Threads    string `toml:"threads"`
	Enriched   string `toml:"enriched"`
	Books      string `toml:"books"`
	Categories string `toml:"categories"`
	Summaries  string `toml:"summaries"`
	Exams      string `toml:"exams"`
	Graph      string `toml:"graph"`
	ImageDir   string `toml:"image_dir"`

	// AuthorURL is backfilled onto posts that predate the author field and
	// used to derive canonical thread URLs.
	AuthorURL string `toml:"author_url"`
}

type EnrichConfig struct {
	Concurrency    int    `toml:"concurrency"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
	ResolveCache   string `toml:"resolve_cache"`
}

type AIConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

type GraphConfig struct {
	MaxRelated int `toml:"max_related"`
}

type ScheduleConfig struct {
	Cron     string `toml:"cron"`
	Timezone string `toml:"timezone"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Data: DataConfig{
			Threads:    "db/tweets.json",
			Enriched:   "db/tweets_enriched.json",
			Books:      "db/books.json",
			Categories: "db/tweets_map.json",
			Summaries:  "db/tweets_summary.json",
			Exams:      "db/tweets_exam.json",
			Graph:      "db/processed_graph_data.json",
			ImageDir:   "public/metadata",
			AuthorURL:  "https://x.com/Recuenco",
		},
		Enrich: EnrichConfig{
			Concurrency:    4,
			TimeoutSeconds: 15,
			UserAgent:      "Mozilla/5.0 (compatible; turrero-pipeline/1.0)",
			ResolveCache:   "db/resolve_cache.db",
		},
		AI: AIConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   1024,
			Temperature: 0.2,
		},
		Graph: GraphConfig{
			MaxRelated: 5,
		},
		Schedule: ScheduleConfig{
			Cron:     "0 7 * * 4",
			Timezone: "Europe/Madrid",
		},
	}
}

// Load reads config from the given path
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.AI.APIKey = key
	}

	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
