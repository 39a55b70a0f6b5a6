package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Extract  ExtractConfig
	Summary  SummaryConfig
	Entities EntitiesConfig
	Search   SearchConfig
	LLM      LLMConfig
	Feedback FeedbackConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host       string
	Port       int
	Password   string
	DB         int
	SessionTTL int
}

type ExtractConfig struct {
	UserAgent  string
	TimeoutSec int
}

type SummaryConfig struct {
	Endpoint   string
	Model      string
	APIKey     string
	MaxLength  int
	MinLength  int
	Threshold  int
	TimeoutSec int
}

type EntitiesConfig struct {
	Max       int
	Threshold int
}

type SearchConfig struct {
	Endpoint       string
	APIKey         string
	MaxResults     int
	TimeoutSec     int
	SkipEmptyQuery bool
}

type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type FeedbackConfig struct {
	Path string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/factlens")

	viper.SetEnvPrefix("FACTLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/factlens.db")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.sessionTTL", 3600)

	viper.SetDefault("extract.userAgent", "Mozilla/5.0")
	viper.SetDefault("extract.timeoutSec", 10)

	viper.SetDefault("summary.endpoint", "https://api-inference.huggingface.co/models")
	viper.SetDefault("summary.model", "facebook/bart-large-cnn")
	viper.SetDefault("summary.maxLength", 100)
	viper.SetDefault("summary.minLength", 10)
	viper.SetDefault("summary.threshold", 15)
	viper.SetDefault("summary.timeoutSec", 10)

	viper.SetDefault("entities.max", 5)
	viper.SetDefault("entities.threshold", 10)

	viper.SetDefault("search.endpoint", "https://serpapi.com/search")
	viper.SetDefault("search.maxResults", 10)
	viper.SetDefault("search.timeoutSec", 10)
	viper.SetDefault("search.skipEmptyQuery", false)

	viper.SetDefault("llm.baseURL", "")
	viper.SetDefault("llm.model", "meta-llama/Llama-3.3-70B-Instruct")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.maxTokens", 500)
	viper.SetDefault("llm.timeoutSec", 10)

	viper.SetDefault("feedback.path", "./data/training.jsonl")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
