package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Instagram InstagramConfig `mapstructure:"instagram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	LogLevel  string          `mapstructure:"log_level"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GetDSN returns the MySQL DSN for the configured database
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// InstagramConfig holds Instagram Graph API configuration
type InstagramConfig struct {
	AppID        string        `mapstructure:"app_id"`
	AppSecret    string        `mapstructure:"app_secret"`
	VerifyToken  string        `mapstructure:"verify_token"`
	RedirectURI  string        `mapstructure:"redirect_uri"`
	GraphAPIBase string        `mapstructure:"graph_api_base"`
	SendTimeout  time.Duration `mapstructure:"send_timeout"`
}

// SchedulerConfig holds maintenance scheduler configuration
type SchedulerConfig struct {
	IntervalMinutes  int `mapstructure:"interval_minutes"`
	TokenRefreshDays int `mapstructure:"token_refresh_days"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	viper.AutomaticEnv()
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// Validate checks that required configuration values are present
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user and dbname are required")
	}
	if c.Instagram.VerifyToken == "" {
		return fmt.Errorf("instagram verify_token is required")
	}
	if c.Instagram.SendTimeout <= 0 {
		return fmt.Errorf("instagram send_timeout must be positive")
	}
	if c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval_minutes must be positive")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("instagram.graph_api_base", "https://graph.facebook.com/v18.0")
	viper.SetDefault("instagram.send_timeout", "10s")

	viper.SetDefault("scheduler.interval_minutes", 60)
	viper.SetDefault("scheduler.token_refresh_days", 7)

	viper.SetDefault("log_level", "info")
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	viper.BindEnv("instagram.app_id", "FACEBOOK_APP_ID")
	viper.BindEnv("instagram.app_secret", "FACEBOOK_APP_SECRET")
	viper.BindEnv("instagram.verify_token", "WEBHOOK_VERIFY_TOKEN")
	viper.BindEnv("instagram.redirect_uri", "FACEBOOK_REDIRECT_URI")
	viper.BindEnv("instagram.graph_api_base", "GRAPH_API_BASE")
	viper.BindEnv("instagram.send_timeout", "SEND_TIMEOUT")

	viper.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")
	viper.BindEnv("scheduler.token_refresh_days", "TOKEN_REFRESH_DAYS")

	viper.BindEnv("log_level", "LOG_LEVEL")
}
