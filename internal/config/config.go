package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // schedule timezone in minimal containers

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"VnPanel/internal/indicator"
)

// DefaultTickers is the VN30 basket processed when no list is configured.
var DefaultTickers = []string{
	"ACB", "BID", "BVH", "CTG", "FPT", "GAS", "GVR",
	"HDB", "HPG", "KDH", "MBB", "MSN", "MWG", "NVL",
	"PDR", "PLX", "POW", "SAB", "SSI", "STB", "TCB",
	"TPB", "VCB", "VHM", "VIB", "VIC", "VJC", "VNM",
	"VPB", "VRE",
}

// IndicatorConfig is one configured indicator, expanded to one chain step
// per lookback.
type IndicatorConfig struct {
	Name      string         `yaml:"name" validate:"required"`
	Lookbacks []int          `yaml:"lookbacks" validate:"dive,gte=1"`
	Params    map[string]int `yaml:"params"`
}

// Config holds all application configuration.
type Config struct {
	Tickers      []string `yaml:"tickers" envconfig:"TICKERS" validate:"required,min=1,dive,required"`
	Resolution   string   `yaml:"resolution" envconfig:"RESOLUTION" validate:"oneof=D W M"`
	Workers      int      `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
	Fundamentals bool     `yaml:"fundamentals" envconfig:"FUNDAMENTALS"`

	Vendor struct {
		Name      string  `yaml:"name" envconfig:"VENDOR" validate:"oneof=tcbs yahoo csv mock"`
		BaseURL   string  `yaml:"base_url" envconfig:"VENDOR_BASE_URL" validate:"omitempty,url"`
		CSVPath   string  `yaml:"csv_path" envconfig:"CSV_PATH"`
		RateLimit float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gte=0"`
	} `yaml:"vendor"`
	Export struct {
		Dir  string `yaml:"dir" envconfig:"CACHE_DIR" validate:"required"`
		XLSX string `yaml:"xlsx" envconfig:"EXPORT_XLSX"`
	} `yaml:"export"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron" envconfig:"CRON_DAILY" validate:"required"`
		Timezone  string `yaml:"timezone" envconfig:"SCHEDULE_TZ"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr" envconfig:"METRICS_ADDR"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`

	Indicators []IndicatorConfig `yaml:"indicators" ignored:"true" validate:"dive"`
}

// Load reads config from a YAML file, loads an optional .env next to the
// working directory, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Existing environment variables win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Tickers) == 0 {
		c.Tickers = append([]string(nil), DefaultTickers...)
	}
	for i, t := range c.Tickers {
		c.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	c.Resolution = strings.ToUpper(c.Resolution)
	if c.Resolution == "" {
		c.Resolution = "D"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.Vendor.Name == "" {
		c.Vendor.Name = "tcbs"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "cache"
	}
	if c.Schedule.DailyCron == "" {
		// 15:30 after the HOSE close, Monday to Friday.
		c.Schedule.DailyCron = "0 30 15 * * 1-5"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Asia/Ho_Chi_Minh"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/vnpanel.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":9108"
	}
}

var validate = validator.New()

// Validate checks field constraints, the indicator list, and that
// Telegram is either fully configured or not at all.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Vendor.Name == "csv" && c.Vendor.CSVPath == "" {
		return fmt.Errorf("vendor.csv_path is required for the csv vendor")
	}
	if _, err := indicator.NewChain(c.Steps()); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// TelegramEnabled reports whether run reports should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Steps returns the configured indicator chain, or the default set when
// none is configured.
func (c *Config) Steps() []indicator.Step {
	if len(c.Indicators) == 0 {
		return indicator.DefaultSteps()
	}
	var steps []indicator.Step
	for _, ic := range c.Indicators {
		steps = append(steps, indicator.Expand(ic.Name, ic.Lookbacks, ic.Params)...)
	}
	return steps
}

// Location resolves the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return loc, nil
}
