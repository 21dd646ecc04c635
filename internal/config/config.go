package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	Server    ServerConfig              `json:"server"`
	Paths     PathsConfig               `json:"paths"`
	Engine    EngineConfig              `json:"engine"`
	Batch     BatchConfig               `json:"batch"`
	Providers map[string]ProviderConfig `json:"providers"`
	Embedding EmbeddingConfig           `json:"embedding"`
	Redis     RedisConfig               `json:"redis"`
	Databases map[string]DatabaseConfig `json:"databases"`
}

type ServerConfig struct {
	Address     string   `json:"address"`
	CORSOrigins []string `json:"cors_origins"`
}

type PathsConfig struct {
	InputDir   string `json:"input_dir"`
	WorkingDir string `json:"working_dir"`
	OutputDir  string `json:"output_dir"`
}

// EngineConfig holds the process-wide engine settings. The per-modality
// toggles are fixed at startup, not per call.
type EngineConfig struct {
	Provider          string  `json:"provider"`
	Parser            string  `json:"parser"`
	ParseMethod       string  `json:"parse_method"`
	EnableImages      bool    `json:"enable_image_processing"`
	EnableTables      bool    `json:"enable_table_processing"`
	EnableEquations   bool    `json:"enable_equation_processing"`
	DisplayStats      bool    `json:"display_content_stats"`
	TopK              int     `json:"top_k"`
	ChunkSize         int     `json:"chunk_size"`
	Temperature       float64 `json:"temperature"`
	AnswerCacheTTLMin int     `json:"answer_cache_ttl_minutes"`
}

type BatchConfig struct {
	MaxWorkers int `json:"max_workers"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type EmbeddingConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"dbname"`
	Params   string `json:"params"`
}

// Load reads configuration from the provided path (defaults to config.json)
// and fills unset fields with defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration usable without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8000"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Paths.InputDir == "" {
		c.Paths.InputDir = "./uploads"
	}
	if c.Paths.WorkingDir == "" {
		c.Paths.WorkingDir = "./rag_storage"
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = "./output"
	}
	if c.Engine.Provider == "" {
		c.Engine.Provider = "openai"
	}
	if c.Engine.Parser == "" {
		c.Engine.Parser = "mineru"
	}
	if c.Engine.ParseMethod == "" {
		c.Engine.ParseMethod = "auto"
	}
	if c.Engine.TopK <= 0 {
		c.Engine.TopK = 5
	}
	if c.Engine.ChunkSize <= 0 {
		c.Engine.ChunkSize = 1200
	}
	if c.Batch.MaxWorkers <= 0 {
		c.Batch.MaxWorkers = 8
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-large"
	}
}

// EnsureDirs creates the scratch, working and output directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.InputDir, c.Paths.WorkingDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
