package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/common"
)

// Config is the full runtime configuration, decoded from viper.
type Config struct {
	Log      LogConfig      `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Chat     ChatConfig     `mapstructure:"chat"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Server   ServerConfig   `mapstructure:"server"`
	Output   OutputConfig   `mapstructure:"output"`
	Cache    CacheConfig    `mapstructure:"cache"`
	API      APIConfig      `mapstructure:"api"`
	Chart    ChartConfig    `mapstructure:"chart"`
}

// APIConfig controls the upstream catalog fetch.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	Count          int           `mapstructure:"count" validate:"gte=0"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	Backoff        time.Duration `mapstructure:"backoff" validate:"gte=0"`
	Workers        int           `mapstructure:"workers" validate:"gte=1,lte=64"`
	SampleFallback bool          `mapstructure:"sample_fallback"`
}

// CacheConfig controls the raw record cache.
type CacheConfig struct {
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
	Enabled bool   `mapstructure:"enabled"`
}

// OutputConfig holds the paths of the pipeline artifacts.
type OutputConfig struct {
	CSVPath    string `mapstructure:"csv_path" validate:"required"`
	ChartPath  string `mapstructure:"chart_path" validate:"required"`
	ReportPath string `mapstructure:"report_path" validate:"required"`
	TopN       int    `mapstructure:"top_n" validate:"gte=1"`
}

// ChartConfig controls image rendering.
type ChartConfig struct {
	Dir      string  `mapstructure:"dir" validate:"required"`
	WidthIn  float64 `mapstructure:"width_in" validate:"gt=0"`
	HeightIn float64 `mapstructure:"height_in" validate:"gt=0"`
	DPI      int     `mapstructure:"dpi" validate:"gte=36,lte=600"`
}

// ChatConfig controls the question answering flow.
type ChatConfig struct {
	DataDir      string `mapstructure:"data_dir" validate:"required"`
	TopK         int    `mapstructure:"top_k" validate:"gte=1"`
	ChunkSize    int    `mapstructure:"chunk_size" validate:"gte=100"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
}

// LLMConfig selects and configures the answer service.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" validate:"omitempty,oneof=groq openai"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"gte=0"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	RateLimit   int           `mapstructure:"rate_limit" validate:"gte=0"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Port           int      `mapstructure:"port" validate:"gte=1,lte=65535"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=console text json"`
	File   string `mapstructure:"file"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://pokeapi.co/api/v2/pokemon/")
	v.SetDefault("api.count", 100)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.backoff", 500*time.Millisecond)
	v.SetDefault("api.workers", 10)
	v.SetDefault("api.sample_fallback", true)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "data/pokemon_cache.json")

	v.SetDefault("output.csv_path", "data/relatorio.csv")
	v.SetDefault("output.chart_path", "data/grafico_tipos.png")
	v.SetDefault("output.report_path", "data/relatorio_consolidado.txt")
	v.SetDefault("output.top_n", 5)

	v.SetDefault("chart.dir", "chat_outputs/graficos")
	v.SetDefault("chart.width_in", 12.0)
	v.SetDefault("chart.height_in", 8.0)
	v.SetDefault("chart.dpi", 300)

	v.SetDefault("chat.data_dir", "chat_outputs/dados")
	v.SetDefault("chat.top_k", 25)
	v.SetDefault("chat.chunk_size", 1000)
	v.SetDefault("chat.chunk_overlap", 100)

	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.rate_limit", 30)

	v.SetDefault("server.port", 8001)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:3001"})

	v.SetDefault("database.path", "data/poke.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "logs/pipeline.log")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field constraint and reports the failing fields.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
}

func (c *Config) expandPaths() {
	c.Cache.Path = ExpandPath(c.Cache.Path)
	c.Output.CSVPath = ExpandPath(c.Output.CSVPath)
	c.Output.ChartPath = ExpandPath(c.Output.ChartPath)
	c.Output.ReportPath = ExpandPath(c.Output.ReportPath)
	c.Chart.Dir = ExpandPath(c.Chart.Dir)
	c.Chat.DataDir = ExpandPath(c.Chat.DataDir)
	c.Database.Path = ExpandPath(c.Database.Path)
	c.Log.File = ExpandPath(c.Log.File)
}
