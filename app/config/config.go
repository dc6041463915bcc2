package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppCfg struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type LogCfg struct {
	Level string `mapstructure:"level"`
}

type ParserCfg struct {
	Driver         string        `mapstructure:"driver"`
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	APIKeyHeader   string        `mapstructure:"api_key_header"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int64         `mapstructure:"max_concurrency"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	Retries        uint64        `mapstructure:"retries"`
}

type BatchCfg struct {
	Workers      int `mapstructure:"workers"`
	MaxAddresses int `mapstructure:"max_addresses"`
}

type CacheCfg struct {
	Driver string        `mapstructure:"driver"`
	L1Size int           `mapstructure:"l1_size"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RedisCfg struct {
	URL string `mapstructure:"url"`
}

type MongoCfg struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type MeiliCfg struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	Index  string `mapstructure:"index"`
}

type GazetteerCfg struct {
	Enabled  bool    `mapstructure:"enabled"`
	MinScore float64 `mapstructure:"min_score"`
}

type TraceCfg struct {
	Enabled bool `mapstructure:"enabled"`
}

type WorkerCfg struct {
	InputFile     string `mapstructure:"input_file"`
	OutputFile    string `mapstructure:"output_file"`
	AddressColumn string `mapstructure:"address_column"`
	CountryColumn string `mapstructure:"country_column"`
}

// Config toàn bộ cấu hình service, đọc từ config/app.yaml và biến môi trường
type Config struct {
	App         AppCfg       `mapstructure:"app"`
	Log         LogCfg       `mapstructure:"log"`
	Parser      ParserCfg    `mapstructure:"parser"`
	Batch       BatchCfg     `mapstructure:"batch"`
	Cache       CacheCfg     `mapstructure:"cache"`
	Redis       RedisCfg     `mapstructure:"redis"`
	Mongo       MongoCfg     `mapstructure:"mongo"`
	Meilisearch MeiliCfg     `mapstructure:"meilisearch"`
	Gazetteer   GazetteerCfg `mapstructure:"gazetteer"`
	Trace       TraceCfg     `mapstructure:"trace"`
	Worker      WorkerCfg    `mapstructure:"worker"`
}

const (
	ParserDriverHTTP      = "http"
	ParserDriverLibpostal = "libpostal"
)

var cacheDrivers = map[string]bool{"none": true, "memory": true, "redis": true, "mongo": true, "hybrid": true}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "info")

	v.SetDefault("parser.driver", ParserDriverHTTP)
	v.SetDefault("parser.url", "http://localhost:4400/parse")
	v.SetDefault("parser.api_key", "")
	v.SetDefault("parser.api_key_header", "X-Api-Key")
	v.SetDefault("parser.timeout", 5*time.Second)
	v.SetDefault("parser.max_concurrency", 8)
	v.SetDefault("parser.rate_per_second", 0)
	v.SetDefault("parser.retries", 0)

	v.SetDefault("batch.workers", 8)
	v.SetDefault("batch.max_addresses", 10000)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.l1_size", 10000)
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("mongo.url", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "address_classifier")

	v.SetDefault("meilisearch.url", "http://localhost:7700")
	v.SetDefault("meilisearch.api_key", "")
	v.SetDefault("meilisearch.index", "world_cities")
	v.SetDefault("gazetteer.enabled", false)
	v.SetDefault("gazetteer.min_score", 0.9)

	v.SetDefault("trace.enabled", false)

	v.SetDefault("worker.input_file", "input.txt")
	v.SetDefault("worker.output_file", "classified.xlsx")
	v.SetDefault("worker.address_column", "person_address")
	v.SetDefault("worker.country_column", "person_ctry_code")
}

// LoadDotEnv nạp file .env (nếu có) vào biến môi trường, không ghi đè biến đã có.
// Gọi trước Load để secrets như PARSER_API_KEY không phải nằm trong app.yaml.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load đọc cấu hình. paths là các thư mục tìm app.yaml; mặc định ./config và .
// Thiếu file config không phải lỗi, defaults và env vẫn được áp dụng.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	// PARSER_URL -> parser.url
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate kiểm tra các giá trị bắt buộc
func (c *Config) Validate() error {
	var errs []error

	switch c.Parser.Driver {
	case ParserDriverHTTP:
		if c.Parser.URL == "" {
			errs = append(errs, errors.New("parser.url is required for the http driver"))
		}
	case ParserDriverLibpostal:
	default:
		errs = append(errs, fmt.Errorf("parser.driver %q is not supported", c.Parser.Driver))
	}
	if c.Parser.Timeout <= 0 {
		errs = append(errs, errors.New("parser.timeout must be positive"))
	}
	if c.Parser.MaxConcurrency <= 0 {
		errs = append(errs, errors.New("parser.max_concurrency must be positive"))
	}
	if c.Parser.RatePerSecond < 0 {
		errs = append(errs, errors.New("parser.rate_per_second must not be negative"))
	}
	if c.Batch.Workers <= 0 {
		errs = append(errs, errors.New("batch.workers must be positive"))
	}
	if !cacheDrivers[c.Cache.Driver] {
		errs = append(errs, fmt.Errorf("cache.driver %q is not supported", c.Cache.Driver))
	}
	if c.Cache.Driver != "none" && c.Cache.L1Size <= 0 {
		errs = append(errs, errors.New("cache.l1_size must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction true khi app.env=production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}
