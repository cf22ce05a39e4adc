package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
	Firecrawl FirecrawlConfig `mapstructure:"firecrawl"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Email     EmailConfig     `mapstructure:"email"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// SecretsConfig drives at-rest encryption of stored API keys. Either a
// 32-byte hex key or a passphrase+salt pair must be set.
type SecretsConfig struct {
	Key        string `mapstructure:"key"`
	Passphrase string `mapstructure:"passphrase"`
	Salt       string `mapstructure:"salt"`
}

type FirecrawlConfig struct {
	CreditUsageURL string        `mapstructure:"credit_usage_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type NotifyConfig struct {
	RelayURL  string        `mapstructure:"relay_url"`
	UserAgent string        `mapstructure:"user_agent"`
	AppName   string        `mapstructure:"app_name"`
	AppURL    string        `mapstructure:"app_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	FromAddress string        `mapstructure:"from_address"`
	FromName    string        `mapstructure:"from_name"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type WorkerConfig struct {
	CreditRefreshInterval time.Duration `mapstructure:"credit_refresh_interval"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("firecrawl.credit_usage_url", "https://api.firecrawl.dev/v1/team/credit-usage")
	viper.SetDefault("firecrawl.timeout", 15*time.Second)
	viper.SetDefault("notify.user_agent", "Observer/1.0")
	viper.SetDefault("notify.app_name", "Observer")
	viper.SetDefault("notify.timeout", 10*time.Second)
	viper.SetDefault("email.base_url", "https://api.resend.com")
	viper.SetDefault("email.timeout", 10*time.Second)
	viper.SetDefault("worker.credit_refresh_interval", time.Hour)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
