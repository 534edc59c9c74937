// Package config loads the pipeline configuration from the process
// environment, layered over an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultOllamaAPI      = "http://localhost:11434/api/embeddings"
	DefaultOllamaHost     = "http://localhost:11434"
	DefaultModelName      = "nomic-embed-text"
	DefaultChatModel      = "llama3.2"
	DefaultCollectionName = "markdown_documents"
	DefaultMaxChunkSize   = 512
	DefaultTopK           = 5
)

const (
	BackendChromem  = "chromem"
	BackendPostgres = "postgres"
)

var (
	ErrMissingSetting = errors.New("missing required setting")
	ErrInvalidSetting = errors.New("invalid setting")
)

type Config struct {
	PersistDirectory string      `yaml:"persist_directory"`
	FilesPath        string      `yaml:"md_files_path"`
	OllamaAPI        string      `yaml:"ollama_api"`
	OllamaHost       string      `yaml:"ollama_host"`
	ModelName        string      `yaml:"model_name"`
	ChatModel        string      `yaml:"chat_model"`
	CollectionName   string      `yaml:"collection_name"`
	MaxChunkSize     int         `yaml:"max_chunk_size"`
	TopK             int         `yaml:"top_k"`
	Store            StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
	DatabaseKey string `yaml:"database_key"`
	Debug       bool   `yaml:"debug"`
}

// Load builds the configuration once at startup. Precedence: environment
// variables override the optional YAML file named by CONFIG_FILE, which
// overrides built-in defaults. The returned value is treated as immutable
// and passed into every component.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setEnv(&cfg.PersistDirectory, "PERSIST_DIRECTORY")
	setEnv(&cfg.FilesPath, "MD_FILES_PATH")
	setEnv(&cfg.OllamaAPI, "OLLAMA_API")
	setEnv(&cfg.OllamaHost, "OLLAMA_HOST")
	setEnv(&cfg.ModelName, "MODEL_NAME")
	setEnv(&cfg.ChatModel, "CHAT_MODEL")
	setEnv(&cfg.CollectionName, "COLLECTION_NAME")
	setEnv(&cfg.Store.Backend, "STORE_BACKEND")
	setEnv(&cfg.Store.DatabaseURL, "DATABASE_URL")
	setEnv(&cfg.Store.DatabaseKey, "DATABASE_KEY")

	if err := setEnvInt(&cfg.MaxChunkSize, "MAX_CHUNK_SIZE"); err != nil {
		return err
	}
	if err := setEnvInt(&cfg.TopK, "TOP_K"); err != nil {
		return err
	}
	return setEnvBool(&cfg.Store.Debug, "DATABASE_DEBUG")
}

func setEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setEnvInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidSetting, key, v)
	}
	*dst = n
	return nil
}

func setEnvBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidSetting, key, v)
	}
	*dst = b
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.OllamaAPI == "" {
		cfg.OllamaAPI = DefaultOllamaAPI
	}
	if cfg.OllamaHost == "" {
		cfg.OllamaHost = DefaultOllamaHost
	}
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = DefaultCollectionName
	}
	if cfg.MaxChunkSize == 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	if cfg.TopK == 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendChromem
	}
}

// Validate reports the first fatal configuration problem.
func (cfg *Config) Validate() error {
	if cfg.PersistDirectory == "" {
		return fmt.Errorf("%w: PERSIST_DIRECTORY", ErrMissingSetting)
	}
	if cfg.FilesPath == "" {
		return fmt.Errorf("%w: MD_FILES_PATH", ErrMissingSetting)
	}
	if cfg.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: MAX_CHUNK_SIZE must be positive", ErrInvalidSetting)
	}
	if cfg.TopK <= 0 {
		return fmt.Errorf("%w: TOP_K must be positive", ErrInvalidSetting)
	}

	switch cfg.Store.Backend {
	case BackendChromem:
	case BackendPostgres:
		if cfg.Store.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres backend", ErrMissingSetting)
		}
	default:
		return fmt.Errorf("%w: STORE_BACKEND=%q", ErrInvalidSetting, cfg.Store.Backend)
	}
	return nil
}
