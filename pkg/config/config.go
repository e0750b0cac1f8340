package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// AppealsTable is the name of the single remote table holding both
// appeal and turn records. Field names in that table are contractual.
const AppealsTable = "Dialogues"

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Airtable AirtableConfig `mapstructure:"airtable"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Prompts  PromptsConfig  `mapstructure:"prompts"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type AirtableConfig struct {
	Token  string `mapstructure:"token"`
	BaseID string `mapstructure:"base_id"`
}

// StorageConfig selects the store backend: airtable (default),
// postgres, or memory.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type PromptsConfig struct {
	SystemPromptFile string `mapstructure:"system_prompt_file"`
	InstructionsFile string `mapstructure:"instructions_file"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("storage.backend", "airtable")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1024)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("prompts.system_prompt_file", "system_prompt.txt")
	v.SetDefault("prompts.instructions_file", "instructions.md")

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file when present; environment variables alone
	// are enough to run.
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Environment variables override file values
	if token := v.GetString("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if token := v.GetString("AIRTABLE_PERSONAL_ACCESS_TOKEN"); token != "" {
		config.Airtable.Token = token
	}
	if baseID := v.GetString("AIRTABLE_BASE_ID"); baseID != "" {
		config.Airtable.BaseID = baseID
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate enforces the hard startup requirements. Prompt files are
// deliberately absent here: those degrade at load time instead.
func (c *Config) validate() error {
	var missing []string
	if c.Telegram.Token == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Storage.Backend == "airtable" {
		if c.Airtable.Token == "" {
			missing = append(missing, "AIRTABLE_PERSONAL_ACCESS_TOKEN")
		}
		if c.Airtable.BaseID == "" {
			missing = append(missing, "AIRTABLE_BASE_ID")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
