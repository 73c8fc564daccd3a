package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full settings surface required to boot the
// Strands controller, CLI, and HTTP API.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers []ProviderConfig `yaml:"providers"`
	Graph     GraphConfig     `yaml:"graph"`
	Vector    VectorConfig    `yaml:"vector"`
	Metrics   MetricsSourceConfig `yaml:"metrics"`
	Generator GeneratorConfig `yaml:"generator"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
	Controller ControllerConfig `yaml:"controller"`
	Auth      AuthConfig      `yaml:"auth"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ProviderConfig configures one alert provider (PROVIDER_* env
// surface, spec.md section 6).
type ProviderConfig struct {
	Name        string            `yaml:"name"`
	Enabled     bool              `yaml:"enabled"`
	Endpoint    string            `yaml:"endpoint"`
	Timeout     time.Duration     `yaml:"timeoutS"`
	Retries     int               `yaml:"retries"`
	Priority    int               `yaml:"priority"`
	SeverityMap map[string]string `yaml:"severityMap"`
}

// GraphConfig configures the Neo4j-backed graph store (GRAPH_URL).
type GraphConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// VectorConfig configures the pgvector-backed vector store (VECTOR_URL).
type VectorConfig struct {
	URL   string `yaml:"url"`
	Table string `yaml:"table"`
}

// MetricsSourceConfig configures the metrics/alerts source (METRICS_URL).
type MetricsSourceConfig struct {
	BaseURL          string        `yaml:"baseURL"`
	MetricsPath      string        `yaml:"metricsPath"`
	LogsPath         string        `yaml:"logsPath"`
	ServiceGraphPath string        `yaml:"serviceGraphPath"`
	Timeout          time.Duration `yaml:"timeout"`
}

// GeneratorConfig configures the text-generation/embedding adapter
// (GENERATOR_URL maps to the genai API key env var by convention).
type GeneratorConfig struct {
	APIKey        string `yaml:"apiKey"`
	EmbedModel    string `yaml:"embedModel"`
	GenerateModel string `yaml:"generateModel"`
}

// LoggingConfig controls structured logging (LOG_LEVEL).
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Valkey-backed caching of expensive lookups.
type CacheConfig struct {
	Enabled             bool          `yaml:"enabled"`
	Addr                string        `yaml:"addr"`
	Username            string        `yaml:"username"`
	Password            string        `yaml:"password"`
	DB                  int           `yaml:"db"`
	DialTimeout         time.Duration `yaml:"dialTimeout"`
	ReadTimeout         time.Duration `yaml:"readTimeout"`
	WriteTimeout        time.Duration `yaml:"writeTimeout"`
	MaxRetries          int           `yaml:"maxRetries"`
	TLS                 bool          `yaml:"tls"`
	SimilarIncidentsTTL time.Duration `yaml:"similarIncidentsTTL"`
	ServiceGraphTTL     time.Duration `yaml:"serviceGraphTTL"`
	PatternsTTL         time.Duration `yaml:"patternsTTL"`
	PlaybookLookupTTL   time.Duration `yaml:"playbookLookupTTL"`
}

// ControllerConfig controls C11's tick loop (TICK_INTERVAL_S,
// GLOBAL_DEADLINE_S, POLICY_NAME, MODEL_VERSION, WEIGHTS_FILE).
type ControllerConfig struct {
	TickInterval   time.Duration `yaml:"tickIntervalS"`
	GlobalDeadline time.Duration `yaml:"globalDeadlineS"`
	PolicyName     string        `yaml:"policyName"`
	ModelVersion   string        `yaml:"modelVersion"`
	WeightsFile    string        `yaml:"weightsFile"`
	SystemIdentity string        `yaml:"systemIdentity"`
}

// AuthConfig configures JWT-based reviewer authentication.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

// Load initialises Config from a YAML file and optional environment
// overrides, falling back to STRANDS_CONFIG for the file path exactly
// as the teacher's MIRADOR_RCA_CONFIG fallback does.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("STRANDS_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Metrics: MetricsSourceConfig{
			MetricsPath:      "/api/v1/rca/metrics",
			LogsPath:         "/api/v1/rca/logs",
			ServiceGraphPath: "/api/v1/rca/service-graph",
			Timeout:          5 * time.Second,
		},
		Graph:  GraphConfig{Database: "neo4j"},
		Vector: VectorConfig{Table: "incident_embeddings"},
		Generator: GeneratorConfig{
			EmbedModel:    "text-embedding-004",
			GenerateModel: "gemini-1.5-flash",
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:             false,
			SimilarIncidentsTTL: 2 * time.Minute,
			ServiceGraphTTL:     5 * time.Minute,
			PatternsTTL:         10 * time.Minute,
			PlaybookLookupTTL:   1 * time.Minute,
			DialTimeout:         2 * time.Second,
			ReadTimeout:         500 * time.Millisecond,
			WriteTimeout:        500 * time.Millisecond,
			MaxRetries:          2,
		},
		Controller: ControllerConfig{
			TickInterval:   30 * time.Second,
			GlobalDeadline: 30 * time.Second,
			PolicyName:     "BALANCED",
			ModelVersion:   "strands-decision-v1",
			WeightsFile:    "",
			SystemIdentity: "strands-system",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STRANDS_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("STRANDS_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("GRAPH_URL"); v != "" {
		cfg.Graph.URL = v
	}
	if v := os.Getenv("STRANDS_GRAPH_USERNAME"); v != "" {
		cfg.Graph.Username = v
	}
	if v := os.Getenv("STRANDS_GRAPH_PASSWORD"); v != "" {
		cfg.Graph.Password = v
	}
	if v := os.Getenv("VECTOR_URL"); v != "" {
		cfg.Vector.URL = v
	}
	if v := os.Getenv("METRICS_URL"); v != "" {
		cfg.Metrics.BaseURL = v
	}
	if v := os.Getenv("GENERATOR_URL"); v != "" {
		cfg.Generator.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STRANDS_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("TICK_INTERVAL_S"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			cfg.Controller.TickInterval = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("GLOBAL_DEADLINE_S"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			cfg.Controller.GlobalDeadline = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("POLICY_NAME"); v != "" {
		cfg.Controller.PolicyName = v
	}
	if v := os.Getenv("MODEL_VERSION"); v != "" {
		cfg.Controller.ModelVersion = v
	}
	if v := os.Getenv("WEIGHTS_FILE"); v != "" {
		cfg.Controller.WeightsFile = v
	}
	if v := os.Getenv("STRANDS_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("STRANDS_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("STRANDS_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("STRANDS_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("STRANDS_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("STRANDS_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("STRANDS_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("STRANDS_CACHE_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.DialTimeout = d
		}
	}
	if v := os.Getenv("STRANDS_CACHE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ReadTimeout = d
		}
	}
	if v := os.Getenv("STRANDS_CACHE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.WriteTimeout = d
		}
	}
	if v := os.Getenv("STRANDS_CACHE_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxRetries = retry
		}
	}
	if v := os.Getenv("STRANDS_CACHE_SIMILAR_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.SimilarIncidentsTTL = d
		}
	}
	if v := os.Getenv("STRANDS_CACHE_SERVICE_GRAPH_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ServiceGraphTTL = d
		}
	}
	if v := os.Getenv("STRANDS_CACHE_PATTERNS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.PatternsTTL = d
		}
	}
	if v := os.Getenv("STRANDS_CACHE_PLAYBOOK_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.PlaybookLookupTTL = d
		}
	}
}

// Validate reports a configuration error (spec.md section 6/7: fatal
// configuration errors abort startup with exit code 1).
func (c *Config) Validate() error {
	if c.Graph.URL == "" {
		return fmt.Errorf("graph.url (GRAPH_URL) is required")
	}
	if c.Controller.TickInterval <= 0 {
		return fmt.Errorf("controller.tickIntervalS must be positive")
	}
	if c.Controller.GlobalDeadline <= 0 {
		return fmt.Errorf("controller.globalDeadlineS must be positive")
	}
	return nil
}
