package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/contentpilot/contentpilot-backend/internal/data/db"
	"github.com/contentpilot/contentpilot-backend/internal/factory"
	"github.com/contentpilot/contentpilot-backend/internal/http/middleware"
	"github.com/contentpilot/contentpilot-backend/internal/platform/envutil"
)

const (
	ServiceName = "contentpilot-backend"

	configPathEnv     = "CONTENTPILOT_CONFIG"
	defaultConfigPath = "config/contentpilot.yaml"
)

type Config struct {
	Env     string `yaml:"env"`
	LogMode string `yaml:"logMode"`

	HTTP      HTTPConfig      `yaml:"http"`
	Factory   FactoryConfig   `yaml:"factory"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Pinecone  PineconeConfig  `yaml:"pinecone"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	CORSOrigins       []string      `yaml:"corsOrigins"`
	JWTSecret         string        `yaml:"jwtSecret"`
	MaxUploadBytes    int64         `yaml:"maxUploadBytes"`
}

type FactoryConfig struct {
	DraftURL   string        `yaml:"draftUrl"`
	ProdURL    string        `yaml:"prodUrl"`
	InpaintURL string        `yaml:"inpaintUrl"`
	AuthToken  string        `yaml:"authToken"`
	Timeout    time.Duration `yaml:"timeout"`
}

type GeminiConfig struct {
	APIKey     string        `yaml:"apiKey"`
	Model      string        `yaml:"model"`
	EmbedModel string        `yaml:"embedModel"`
	Timeout    time.Duration `yaml:"timeout"`
}

type PineconeConfig struct {
	APIKey          string        `yaml:"apiKey"`
	IndexName       string        `yaml:"indexName"`
	IndexHost       string        `yaml:"indexHost"`
	NamespacePrefix string        `yaml:"namespacePrefix"`
	SyncTimeout     time.Duration `yaml:"syncTimeout"`
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type StorageConfig struct {
	Bucket       string `yaml:"bucket"`
	CDNDomain    string `yaml:"cdnDomain"`
	EmulatorHost string `yaml:"emulatorHost"`
	Credentials  string `yaml:"credentials"`
}

type WorkspaceConfig struct {
	PlanDays   int           `yaml:"planDays"`
	ReadyDelay time.Duration `yaml:"readyDelay"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sampleRatio"`
	Version     string  `yaml:"version"`
}

func defaultConfig() Config {
	return Config{
		Env:     "development",
		LogMode: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ShutdownTimeout:   15 * time.Second,
			CORSOrigins:       middleware.DefaultCORSOrigins,
			MaxUploadBytes:    200 << 20,
		},
		Factory: FactoryConfig{
			DraftURL:   factory.DefaultDraftURL,
			ProdURL:    factory.DefaultProdURL,
			InpaintURL: factory.DefaultInpaintURL,
			Timeout:    300 * time.Second,
		},
		Gemini: GeminiConfig{
			Model:      "gemini-2.5-flash",
			EmbedModel: "gemini-embedding-001",
			Timeout:    120 * time.Second,
		},
		Pinecone: PineconeConfig{
			NamespacePrefix: "cp",
			SyncTimeout:     30 * time.Second,
		},
		Redis: RedisConfig{
			Channel: "contentpilot.events",
		},
		Database: DatabaseConfig{
			Driver: db.DriverSQLite,
			DSN:    "contentpilot.db",
		},
		Workspace: WorkspaceConfig{
			PlanDays:   7,
			ReadyDelay: 1500 * time.Millisecond,
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
	}
}

// LoadConfig layers defaults, an optional YAML file and the environment, in
// that order.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	path := strings.TrimSpace(os.Getenv(configPathEnv))
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, defaultConfigPath)
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("APP_ENV", cfg.Env)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.JWTSecret = envutil.String("JWT_SECRET_KEY", cfg.HTTP.JWTSecret)
	cfg.HTTP.MaxUploadBytes = int64(envutil.Int("MAX_UPLOAD_BYTES", int(cfg.HTTP.MaxUploadBytes)))
	if raw := envutil.String("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		cfg.HTTP.CORSOrigins = splitCSV(raw)
	}

	cfg.Factory.DraftURL = envutil.String("MODAL_DRAFT_URL", cfg.Factory.DraftURL)
	cfg.Factory.ProdURL = envutil.String("MODAL_PROD_URL", cfg.Factory.ProdURL)
	cfg.Factory.InpaintURL = envutil.String("MODAL_INPAINT_URL", cfg.Factory.InpaintURL)
	cfg.Factory.AuthToken = envutil.String("MODAL_AUTH_TOKEN", cfg.Factory.AuthToken)
	cfg.Factory.Timeout = envutil.Seconds("FACTORY_TIMEOUT_SECONDS", cfg.Factory.Timeout)

	cfg.Gemini.APIKey = envutil.String("GEMINI_API_KEY", cfg.Gemini.APIKey)
	cfg.Gemini.Model = envutil.String("GEMINI_MODEL", cfg.Gemini.Model)
	cfg.Gemini.EmbedModel = envutil.String("GEMINI_EMBED_MODEL", cfg.Gemini.EmbedModel)
	cfg.Gemini.Timeout = envutil.Seconds("GENERATION_TIMEOUT_SECONDS", cfg.Gemini.Timeout)

	cfg.Pinecone.APIKey = envutil.String("PINECONE_API_KEY", cfg.Pinecone.APIKey)
	cfg.Pinecone.IndexName = envutil.String("PINECONE_INDEX_NAME", cfg.Pinecone.IndexName)
	cfg.Pinecone.IndexHost = envutil.String("PINECONE_INDEX_HOST", cfg.Pinecone.IndexHost)
	cfg.Pinecone.NamespacePrefix = envutil.String("PINECONE_NAMESPACE_PREFIX", cfg.Pinecone.NamespacePrefix)
	cfg.Pinecone.SyncTimeout = envutil.Seconds("MEMORY_SYNC_TIMEOUT_SECONDS", cfg.Pinecone.SyncTimeout)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Database.Driver = strings.ToLower(envutil.String("DB_DRIVER", cfg.Database.Driver))
	cfg.Database.DSN = envutil.String("DB_DSN", cfg.Database.DSN)

	cfg.Storage.Bucket = envutil.String("GCS_ASSET_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.CDNDomain = envutil.String("ASSET_CDN_DOMAIN", cfg.Storage.CDNDomain)
	cfg.Storage.EmulatorHost = envutil.String("GCS_EMULATOR_HOST", cfg.Storage.EmulatorHost)
	cfg.Storage.Credentials = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", cfg.Storage.Credentials)

	cfg.Workspace.PlanDays = envutil.Int("PLAN_DAYS", cfg.Workspace.PlanDays)
	cfg.Workspace.ReadyDelay = envutil.Millis("READY_DELAY_MS", cfg.Workspace.ReadyDelay)

	cfg.Tracing.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Tracing.Headers)
	cfg.Tracing.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Tracing.Insecure)
	cfg.Tracing.Version = envutil.String("OTEL_SERVICE_VERSION", cfg.Tracing.Version)
	if raw := envutil.String("OTEL_SAMPLER_RATIO", ""); raw != "" {
		if ratio, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.Tracing.SampleRatio = ratio
		}
	}
}

func (c Config) validate() error {
	if c.Workspace.PlanDays <= 0 {
		return fmt.Errorf("PLAN_DAYS must be positive, got %d", c.Workspace.PlanDays)
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.HTTP.MaxUploadBytes)
	}
	return nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
