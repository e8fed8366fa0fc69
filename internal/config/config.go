// Package config loads server settings from .env, an optional config file
// and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	AllowedOrigins []string

	DataDir        string
	KnowledgeWatch bool

	OwnerName     string
	HistoryWindow int

	// Profile names for the structured and streaming endpoints.
	ChatProfile   string
	StreamProfile string

	SessionTTL time.Duration

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAITimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("data_dir", "./data")
	v.SetDefault("knowledge_watch", false)
	v.SetDefault("owner_name", "Vishrut")
	v.SetDefault("history_window", 5)
	v.SetDefault("chat_profile", "strict")
	v.SetDefault("stream_profile", "lenient")
	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4.1-mini")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("openai_timeout", 60*time.Second)
}

// Load reads .env (if present), then configFile (if non-empty, otherwise a
// config.yaml in the working directory if present), then the environment.
// Keys map to upper-case environment variables: data_dir -> DATA_DIR.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		Port:           v.GetString("port"),
		GinMode:        v.GetString("gin_mode"),
		LogLevel:       v.GetString("log_level"),
		AllowedOrigins: splitList(v.GetStringSlice("allowed_origins")),
		DataDir:        v.GetString("data_dir"),
		KnowledgeWatch: v.GetBool("knowledge_watch"),
		OwnerName:      v.GetString("owner_name"),
		HistoryWindow:  v.GetInt("history_window"),
		ChatProfile:    v.GetString("chat_profile"),
		StreamProfile:  v.GetString("stream_profile"),
		SessionTTL:     v.GetDuration("session_ttl"),
		OpenAIAPIKey:   v.GetString("openai_api_key"),
		OpenAIModel:    v.GetString("openai_model"),
		OpenAIBaseURL:  v.GetString("openai_base_url"),
		OpenAITimeout:  v.GetDuration("openai_timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("history_window must be positive, got %d", c.HistoryWindow)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
