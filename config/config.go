package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log       Logger         `mapstructure:"logger"`
	DB        Database       `mapstructure:"database"`
	API       API            `mapstructure:"api"`
	Scheduler Scheduler      `mapstructure:"scheduler"`
	Gemini    Gemini         `mapstructure:"gemini"`
	MoneyFlow MoneyFlow      `mapstructure:"money_flow"`
	Cache     Cache          `mapstructure:"cache"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// Scheduler holds the trigger scheduler settings. Cron expressions use the
// standard five-field format and fire in MarketTimeZone.
type Scheduler struct {
	MarketTimeZone    string        `mapstructure:"market_time_zone"`
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	ShutdownGrace     time.Duration `mapstructure:"shutdown_grace"`
	DailyPickCron     string        `mapstructure:"daily_pick_cron"`
	StatusCheckCron   string        `mapstructure:"status_check_cron"`
	LunchPauseCron    string        `mapstructure:"lunch_pause_cron"`
	LunchResumeCron   string        `mapstructure:"lunch_resume_cron"`
	MarketCloseCron   string        `mapstructure:"market_close_cron"`
	RetentionCron     string        `mapstructure:"retention_cron"`
	WeeklyStatsCron   string        `mapstructure:"weekly_stats_cron"`
	RetentionMaxAge   time.Duration `mapstructure:"retention_max_age"`
	TickTimeout       time.Duration `mapstructure:"tick_timeout"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
}

type API struct {
	Port int `mapstructure:"port"`
}

type Gemini struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	BaseModel           string        `mapstructure:"base_model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
}

type MoneyFlow struct {
	BaseURL     string        `mapstructure:"base_url"`
	BaseTimeout time.Duration `mapstructure:"base_timeout"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")

	viper.SetDefault("scheduler.market_time_zone", "Asia/Shanghai")
	viper.SetDefault("scheduler.max_concurrency", 5)
	viper.SetDefault("scheduler.shutdown_grace", 30*time.Second)
	viper.SetDefault("scheduler.daily_pick_cron", "37 9 * * MON-FRI")
	viper.SetDefault("scheduler.status_check_cron", "0 9-17 * * MON-FRI")
	viper.SetDefault("scheduler.lunch_pause_cron", "30 11 * * MON-FRI")
	viper.SetDefault("scheduler.lunch_resume_cron", "0 13 * * MON-FRI")
	viper.SetDefault("scheduler.market_close_cron", "0 15 * * MON-FRI")
	viper.SetDefault("scheduler.retention_cron", "0 2 * * *")
	viper.SetDefault("scheduler.weekly_stats_cron", "0 3 * * SUN")
	viper.SetDefault("scheduler.retention_max_age", 30*24*time.Hour)
	viper.SetDefault("scheduler.tick_timeout", 2*time.Minute)
	viper.SetDefault("scheduler.generation_timeout", 10*time.Minute)

	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/models")
	viper.SetDefault("gemini.base_model", "gemini-2.0-flash")
	viper.SetDefault("gemini.timeout", 90*time.Second)
	viper.SetDefault("gemini.max_request_per_minute", 10)
	viper.SetDefault("gemini.max_token_per_minute", 1000000)

	viper.SetDefault("money_flow.base_url", "https://push2.eastmoney.com")
	viper.SetDefault("money_flow.base_timeout", 15*time.Second)

	viper.SetDefault("cache.default_expiration", 5*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 10*time.Minute)
}
