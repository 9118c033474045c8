package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// Routing keys for archive events
	RoutingLogEpisode = "log.episode"
	RoutingLogShow    = "log.show"

	// Exchange Type
	ExchangeTypeTopic = "topic"

	// Environment
	EnvPrefix   = "VISTOPIA"
	EnvToken    = "VISTOPIA_TOKEN"
	EnvRabbitMQ = "RABBITMQ_URL"
)

// Config is the struct that holds the configuration of the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	API        APIConfig        `mapstructure:"api"`
	Downloader DownloaderConfig `mapstructure:"downloader"`
	RabbitMq   RabbitMQConfig   `mapstructure:"rabbitmq"`
	Transcript TranscriptConfig `mapstructure:"transcript"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel int    `mapstructure:"logLevel"`
	Env      string `mapstructure:"env"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"baseUrl"`
	Token     string        `mapstructure:"token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheTTL  time.Duration `mapstructure:"cacheTTL"`
	RateLimit float64       `mapstructure:"rateLimit"`
}

type DownloaderConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	Attempts     int           `mapstructure:"attempts"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
	OutputDir    string        `mapstructure:"outputDir"`
	FFmpegPath   string        `mapstructure:"ffmpegPath"`
	MaxBytesRate int           `mapstructure:"maxBytesRate"`
}

// RabbitMQConfig configures the optional event sink; an empty URL disables it
type RabbitMQConfig struct {
	URL              string `mapstructure:"url"`
	Exchange         string `mapstructure:"exchange"`
	Queue            string `mapstructure:"queue"`
	ReconnectRetries int    `mapstructure:"reconnectRetries"`
	ReconnectTimeout int    `mapstructure:"reconnectTimeout"`
}

type TranscriptConfig struct {
	AssetBaseURL  string        `mapstructure:"assetBaseUrl"`
	ChromePath    string        `mapstructure:"chromePath"`
	UserAgent     string        `mapstructure:"userAgent"`
	RenderTimeout time.Duration `mapstructure:"renderTimeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "vistopia")
	v.SetDefault("app.logLevel", 4)
	v.SetDefault("app.env", "production")

	v.SetDefault("api.baseUrl", "https://api.vistopia.com.cn/api/v1/")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.cacheTTL", 10*time.Minute)
	v.SetDefault("api.rateLimit", 5.0)

	v.SetDefault("downloader.concurrency", 10)
	v.SetDefault("downloader.attempts", 5)
	v.SetDefault("downloader.idleTimeout", 30*time.Second)
	v.SetDefault("downloader.outputDir", ".")
	v.SetDefault("downloader.ffmpegPath", "ffmpeg")
	v.SetDefault("downloader.maxBytesRate", 0)

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "vistopia_exchange")
	v.SetDefault("rabbitmq.queue", "vistopia_log")
	v.SetDefault("rabbitmq.reconnectRetries", 3)
	v.SetDefault("rabbitmq.reconnectTimeout", 2000)

	v.SetDefault("transcript.assetBaseUrl", "https://api.vistopia.com.cn/assets/")
	v.SetDefault("transcript.chromePath", "")
	v.SetDefault("transcript.userAgent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("transcript.renderTimeout", 60*time.Second)
}

// Load reads config.json (or the given file), .env and the environment
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // File name without extension
		v.SetConfigType("json")   // Set to JSON format
		v.AddConfigPath(".")      // Look for config file in current directory
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read configuration file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override from environment variables if available
	if token := os.Getenv(EnvToken); token != "" {
		config.API.Token = token
	}
	if envURL := os.Getenv(EnvRabbitMQ); envURL != "" {
		config.RabbitMq.URL = envURL
	}

	return &config, nil
}

// Validate checks the values the archiver cannot run without
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.API.Token) == "" {
		errs = append(errs, fmt.Errorf("api token is required (set %s)", EnvToken))
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid api base url %q", c.API.BaseURL))
	}
	if c.Downloader.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("downloader concurrency must be positive, got %d", c.Downloader.Concurrency))
	}
	if c.Downloader.Attempts <= 0 {
		errs = append(errs, fmt.Errorf("downloader attempts must be positive, got %d", c.Downloader.Attempts))
	}
	if c.Downloader.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("downloader idle timeout must be positive, got %s", c.Downloader.IdleTimeout))
	}
	return errors.Join(errs...)
}

// Get config for app
func (c *Config) GetAppConfig() *AppConfig {
	return &c.App
}

// Get config for the catalog API
func (c *Config) GetAPIConfig() *APIConfig {
	return &c.API
}

// Get config for downloader
func (c *Config) GetDownloaderConfig() *DownloaderConfig {
	return &c.Downloader
}

// Get config for RabbitMQ
func (c *Config) GetRabbitMQConfig() *RabbitMQConfig {
	return &c.RabbitMq
}

// Get config for transcripts
func (c *Config) GetTranscriptConfig() *TranscriptConfig {
	return &c.Transcript
}
