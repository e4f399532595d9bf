package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration for the server.
type Config struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	DB   struct {
		Host         string `mapstructure:"host"`
		Port         int    `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		Name         string `mapstructure:"name"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
	} `mapstructure:"db"`
	JWT struct {
		Secret string        `mapstructure:"secret"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"jwt"`
	Session struct {
		MaxIdle   time.Duration `mapstructure:"max_idle"`
		SweepCron string        `mapstructure:"sweep_cron"`
	} `mapstructure:"session"`
	Calendar struct {
		StartHour int    `mapstructure:"start_hour"`
		EndHour   int    `mapstructure:"end_hour"`
		Capacity  int    `mapstructure:"capacity"`
		Timezone  string `mapstructure:"timezone"`
	} `mapstructure:"calendar"`
	Admin struct {
		Email    string `mapstructure:"email"`
		Password string `mapstructure:"password"`
	} `mapstructure:"admin"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3001")
	v.SetDefault("mode", "debug")
	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", 4000)
	v.SetDefault("db.user", "root")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "minerva")
	v.SetDefault("db.max_open_conns", 50)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("session.max_idle", "30m")
	v.SetDefault("session.sweep_cron", "*/5 * * * *")
	v.SetDefault("calendar.start_hour", 8)
	v.SetDefault("calendar.end_hour", 18)
	v.SetDefault("calendar.capacity", 1)
	v.SetDefault("calendar.timezone", "America/Sao_Paulo")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

// Load reads an optional .env file, an optional config.yaml and then the
// environment. DB_HOST overrides db.host, SESSION_MAX_IDLE overrides
// session.max_idle, and so on.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  Could not load .env: %v", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.Calendar.StartHour < 0 || c.Calendar.EndHour > 24 || c.Calendar.StartHour >= c.Calendar.EndHour {
		return fmt.Errorf("invalid calendar hours %d-%d", c.Calendar.StartHour, c.Calendar.EndHour)
	}
	if c.Calendar.Capacity < 1 {
		return fmt.Errorf("CALENDAR_CAPACITY must be at least 1")
	}
	if c.Session.MaxIdle <= 0 {
		return fmt.Errorf("SESSION_MAX_IDLE must be positive")
	}
	if c.Mode == "release" && c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required in release mode")
	}
	return nil
}

// Location resolves the calendar timezone, falling back to local time.
func (c *Config) Location() *time.Location {
	if c.Calendar.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		log.Printf("⚠️  Unknown timezone %q, using local time", c.Calendar.Timezone)
		return time.Local
	}
	return loc
}

// DSN builds the MySQL driver data source name (without TLS parameters).
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}
