// Package config loads and holds the application configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Conf is the global configuration loaded from the config file.
var Conf Config

// Config mirrors the structure of configs/config.yaml.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Corpus      CorpusConfig      `mapstructure:"corpus"`
	Classifier  ClassifierConfig  `mapstructure:"classifier"`
	Vectorstore VectorstoreConfig `mapstructure:"vectorstore"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Redis       RedisConfig       `mapstructure:"redis"`
	MySQL       MySQLConfig       `mapstructure:"mysql"`
	MinIO       MinIOConfig       `mapstructure:"minio"`
	Elastic     ElasticConfig     `mapstructure:"elasticsearch"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	JWT         JWTConfig         `mapstructure:"jwt"`
}

// ServerConfig holds the HTTP server settings. InitTimeoutMinutes bounds
// the cold start (classifier reload or training) before the server listens.
type ServerConfig struct {
	Port               string `mapstructure:"port"`
	Mode               string `mapstructure:"mode"`
	InitTimeoutMinutes int    `mapstructure:"init_timeout_minutes"`
}

// LogConfig holds logging settings. LogQueries controls whether raw query
// text appears in logs; the default logs only query lengths.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	LogQueries bool   `mapstructure:"log_queries"`
}

// CorpusConfig selects where the tabular corpus comes from.
// Source is one of "file", "minio" or "mysql".
type CorpusConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
	Bucket string `mapstructure:"bucket"`
	Object string `mapstructure:"object"`
	Table  string `mapstructure:"table"`
}

// ClassifierConfig holds training and persistence settings for the
// domain classifier.
type ClassifierConfig struct {
	ModelPath string  `mapstructure:"model_path"`
	TestSize  float64 `mapstructure:"test_size"`
	Seed      int64   `mapstructure:"seed"`
}

// VectorstoreConfig holds the per-domain index settings.
// Backend is "local" or "elasticsearch". RebuildPolicy is "all" or "missing"
// and controls the scope of a lazy rebuild on index miss.
type VectorstoreConfig struct {
	Backend       string `mapstructure:"backend"`
	Dir           string `mapstructure:"dir"`
	IndexPrefix   string `mapstructure:"index_prefix"`
	TopK          int    `mapstructure:"top_k"`
	RebuildPolicy string `mapstructure:"rebuild_policy"`
}

// EmbeddingConfig holds the embedding model settings.
type EmbeddingConfig struct {
	APIKey     string               `mapstructure:"api_key"`
	BaseURL    string               `mapstructure:"base_url"`
	Model      string               `mapstructure:"model"`
	Dimensions int                  `mapstructure:"dimensions"`
	Cache      EmbeddingCacheConfig `mapstructure:"cache"`
}

// EmbeddingCacheConfig enables the redis-backed embedding cache.
type EmbeddingCacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLMinutes int  `mapstructure:"ttl_minutes"`
}

// LLMConfig holds the generation model settings.
type LLMConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MySQLConfig holds the MySQL connection settings.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MinIOConfig holds the object storage settings.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// ElasticConfig holds the Elasticsearch connection settings.
type ElasticConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

// KafkaConfig holds the prediction-event producer settings.
// An empty Brokers value disables the producer.
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// JWTConfig holds the admin service-token settings.
type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	TokenExpireHours int    `mapstructure:"token_expire_hours"`
}

// Init reads the YAML config at configPath into Conf.
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("failed to read config file: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("failed to unmarshal config: %w", err))
	}

	applyDefaults(&Conf)
}

func applyDefaults(c *Config) {
	if c.Server.InitTimeoutMinutes == 0 {
		c.Server.InitTimeoutMinutes = 10
	}
	if c.Corpus.Source == "" {
		c.Corpus.Source = "file"
	}
	if c.Classifier.ModelPath == "" {
		c.Classifier.ModelPath = "models/classifier_pipeline.gob"
	}
	if c.Classifier.TestSize == 0 {
		c.Classifier.TestSize = 0.2
	}
	if c.Classifier.Seed == 0 {
		c.Classifier.Seed = 42
	}
	if c.Vectorstore.Backend == "" {
		c.Vectorstore.Backend = "local"
	}
	if c.Vectorstore.Dir == "" {
		c.Vectorstore.Dir = "vectorstores"
	}
	if c.Vectorstore.TopK == 0 {
		c.Vectorstore.TopK = 3
	}
	if c.Vectorstore.RebuildPolicy == "" {
		c.Vectorstore.RebuildPolicy = "all"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 150
	}
}
