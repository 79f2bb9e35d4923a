package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thomas-vilte/changelens/internal/models"
)

type (
	Config struct {
		Language       string                      `json:"language"`
		PathFile       string                      `json:"path_file"`
		StateDir       string                      `json:"state_dir"`
		AIProviders    map[string]AIProviderConfig `json:"ai_providers"`
		AIConfig       AIConfig                    `json:"ai_config"`
		Classification ClassificationConfig        `json:"classification"`
	}

	AIProviderConfig struct {
		APIKey string `json:"api_key,omitempty"`
	}

	AIConfig struct {
		ActiveAI AI           `json:"active_ai"`
		Models   map[AI]Model `json:"models"`
	}

	ClassificationConfig struct {
		IntervalSeconds          int      `json:"interval_seconds"`
		DebounceSeconds          int      `json:"debounce_seconds"`
		ClassifierTimeoutSeconds int      `json:"classifier_timeout_seconds"`
		Categories               []string `json:"categories"`
		Precedence               []string `json:"precedence,omitempty"`
		Scope                    string   `json:"scope"`
	}
)

const (
	configDirName  = ".changelens"
	configFileName = "config.json"
	stateDirName   = "state"

	// EnvGeminiAPIKey overrides the stored Gemini key when set.
	EnvGeminiAPIKey = "GEMINI_API_KEY"

	defaultLang                     = "en"
	defaultIntervalSeconds          = 30 * 60
	defaultDebounceSeconds          = 60
	defaultClassifierTimeoutSeconds = 120
	defaultScope                    = string(models.ScopeDiff)
)

func LoadConfig(path string) (*Config, error) {
	var configPath string

	if filepath.Ext(path) == ".json" {
		configPath = path
	} else {
		configDir := filepath.Join(path, configDirName)
		configPath = filepath.Join(configDir, configFileName)

		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			if err := os.MkdirAll(configDir, 0755); err != nil {
				return nil, fmt.Errorf("error creating config directory: %w", err)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error decoding config JSON: %w", err)
	}

	config.PathFile = configPath
	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("loaded configuration is invalid: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig(path string) *Config {
	config := &Config{PathFile: path}
	applyDefaults(config)
	return config
}

func createDefaultConfig(path string) (*Config, error) {
	config := DefaultConfig(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("error saving default config: %w", err)
	}

	return config, nil
}

func SaveConfig(config *Config) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration to save is invalid: %w", err)
	}

	if config.PathFile == "" {
		return errors.New("config file path is not set")
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if err := os.WriteFile(config.PathFile, data, 0600); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	return nil
}

// applyDefaults fills zero values so older config files keep working.
func applyDefaults(config *Config) {
	if config.Language == "" {
		config.Language = defaultLang
	}
	if config.StateDir == "" && config.PathFile != "" {
		config.StateDir = filepath.Join(filepath.Dir(config.PathFile), stateDirName)
	}
	if config.AIProviders == nil {
		config.AIProviders = make(map[string]AIProviderConfig)
	}
	if config.AIConfig.ActiveAI == "" {
		config.AIConfig.ActiveAI = AIGemini
	}
	if config.AIConfig.Models == nil {
		config.AIConfig.Models = make(map[AI]Model)
	}
	if config.AIConfig.Models[config.AIConfig.ActiveAI] == "" {
		config.AIConfig.Models[config.AIConfig.ActiveAI] = DefaultModelForAI(config.AIConfig.ActiveAI)
	}

	c := &config.Classification
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = defaultIntervalSeconds
	}
	if c.DebounceSeconds == 0 {
		c.DebounceSeconds = defaultDebounceSeconds
	}
	if c.ClassifierTimeoutSeconds == 0 {
		c.ClassifierTimeoutSeconds = defaultClassifierTimeoutSeconds
	}
	if len(c.Categories) == 0 {
		for _, cat := range models.DefaultCategories() {
			c.Categories = append(c.Categories, string(cat))
		}
	}
	if c.Scope == "" {
		c.Scope = defaultScope
	}
}

func validateConfig(config *Config) error {
	if config.Language == "" {
		return errors.New("language cannot be empty")
	}

	c := config.Classification
	if c.IntervalSeconds <= 0 {
		return errors.New("classification.interval_seconds must be greater than 0")
	}
	if c.DebounceSeconds <= 0 {
		return errors.New("classification.debounce_seconds must be greater than 0")
	}
	if !models.Scope(c.Scope).Valid() {
		return fmt.Errorf("unsupported classification.scope: %s", c.Scope)
	}
	if _, err := c.CategoryList(); err != nil {
		return err
	}
	if _, err := c.PrecedenceList(); err != nil {
		return err
	}

	for _, ai := range SupportedAIs() {
		if config.AIConfig.ActiveAI == ai {
			return nil
		}
	}
	return fmt.Errorf("unsupported AI provider: %s", config.AIConfig.ActiveAI)
}

// GeminiAPIKey returns the key from the environment or the stored config.
func (c *Config) GeminiAPIKey() string {
	if key := os.Getenv(EnvGeminiAPIKey); key != "" {
		return key
	}
	return c.AIProviders[string(AIGemini)].APIKey
}

// ActiveModel returns the configured model of the active provider.
func (c *Config) ActiveModel() Model {
	if m := c.AIConfig.Models[c.AIConfig.ActiveAI]; m != "" {
		return m
	}
	return DefaultModelForAI(c.AIConfig.ActiveAI)
}

func (c ClassificationConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c ClassificationConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceSeconds) * time.Second
}

// ClassifierTimeout is zero when per-call timeouts are disabled, which a
// negative classifier_timeout_seconds requests. Zero means the default.
func (c ClassificationConfig) ClassifierTimeout() time.Duration {
	if c.ClassifierTimeoutSeconds < 0 {
		return 0
	}
	return time.Duration(c.ClassifierTimeoutSeconds) * time.Second
}

func (c ClassificationConfig) ScopeValue() models.Scope {
	return models.Scope(c.Scope)
}

// CategoryList parses the configured categories, one classifier each.
func (c ClassificationConfig) CategoryList() ([]models.Category, error) {
	if len(c.Categories) == 0 {
		return nil, errors.New("classification.categories cannot be empty")
	}
	return parseCategories("classification category", c.Categories)
}

// PrecedenceList is the tie-break order used when two categories answer
// with the same confidence. It follows Categories unless set. Active
// categories missing from it rank after the listed ones.
func (c ClassificationConfig) PrecedenceList() ([]models.Category, error) {
	if len(c.Precedence) == 0 {
		return c.CategoryList()
	}
	return parseCategories("classification precedence", c.Precedence)
}

func parseCategories(what string, raw []string) ([]models.Category, error) {
	seen := make(map[models.Category]bool, len(raw))
	out := make([]models.Category, 0, len(raw))
	for _, r := range raw {
		cat, ok := models.ParseCategory(r)
		if !ok || cat == models.CategoryUnclear {
			return nil, fmt.Errorf("unsupported %s: %q", what, r)
		}
		if seen[cat] {
			return nil, fmt.Errorf("duplicated %s: %q", what, r)
		}
		seen[cat] = true
		out = append(out, cat)
	}
	return out, nil
}
