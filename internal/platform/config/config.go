package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix  = "STUDYHUB"
	configName = "studyhub"
	stateDir   = ".studyhub"
)

type Config struct {
	DataDir   string
	StateDir  string
	StatePath string
	User      UserConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	SendGrid  SendGridConfig
	Timer     TimerConfig
	Log       LogConfig
	Location  *time.Location
}

type UserConfig struct {
	ID    string `mapstructure:"id"`
	Email string `mapstructure:"email"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SendGridConfig struct {
	APIKey    string `mapstructure:"api_key"`
	FromEmail string `mapstructure:"from_email"`
}

type TimerConfig struct {
	DefaultMinutes int  `mapstructure:"default_minutes"`
	Sound          bool `mapstructure:"sound"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type fileConfig struct {
	User     UserConfig     `mapstructure:"user"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	SendGrid SendGridConfig `mapstructure:"sendgrid"`
	Timer    TimerConfig    `mapstructure:"timer"`
	Log      LogConfig      `mapstructure:"log"`
	Location string         `mapstructure:"location"`
}

// New loads studyhub.yaml from the data dir (a missing file is fine) and
// applies STUDYHUB_* environment overrides on top of the defaults.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	v := viper.New()
	setDefaults(v, dataDir)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	v.AddConfigPath(filepath.Join(dataDir, stateDir))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	raw := fileConfig{}
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return build(dataDir, raw)
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("user.id", "local")
	v.SetDefault("user.email", "")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", filepath.Join(dataDir, stateDir, "studyhub.db"))
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("sendgrid.api_key", "")
	v.SetDefault("sendgrid.from_email", "noreply@localhost")
	v.SetDefault("timer.default_minutes", 25)
	v.SetDefault("timer.sound", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("location", "Local")
}

func build(dataDir string, raw fileConfig) (Config, error) {
	switch raw.Database.Driver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", raw.Database.Driver)
	}
	if raw.Timer.DefaultMinutes <= 0 {
		return Config{}, fmt.Errorf("timer.default_minutes must be positive")
	}
	loc, err := time.LoadLocation(raw.Location)
	if err != nil {
		return Config{}, fmt.Errorf("load location %q: %w", raw.Location, err)
	}
	dir := filepath.Join(dataDir, stateDir)
	return Config{
		DataDir:   dataDir,
		StateDir:  dir,
		StatePath: filepath.Join(dir, "timer-state.json"),
		User:      raw.User,
		Database:  raw.Database,
		Redis:     raw.Redis,
		SendGrid:  raw.SendGrid,
		Timer:     raw.Timer,
		Log:       raw.Log,
		Location:  loc,
	}, nil
}
