// Package config loads runtime configuration from a TOML file and environment variables, exposing typed structs for each section.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "ULTAH"

// Supported LLM providers.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Config is the runtime configuration loaded from defaults, config.toml, and env vars.
type Config struct {
	// HomeDir is runtime-resolved from ULTAH_HOME and not read from config.
	HomeDir  string         `mapstructure:"-"`
	Data     DataConfig     `mapstructure:"data"`
	Fields   FieldsConfig   `mapstructure:"fields"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Messages MessagesConfig `mapstructure:"messages"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Server   ServerConfig   `mapstructure:"server"`
}

// DataConfig locates the input sheet, price list, and output files.
type DataConfig struct {
	RecordsPath  string `mapstructure:"records_path"`
	PricesPath   string `mapstructure:"prices_path"`
	SnapshotPath string `mapstructure:"snapshot_path"`
	ReportDir    string `mapstructure:"report_dir"`
}

// FieldsConfig names the sheet columns.
type FieldsConfig struct {
	DateOfBirth  string   `mapstructure:"date_of_birth"`
	Reminder     string   `mapstructure:"reminder"`
	Month        string   `mapstructure:"month"`
	Day          string   `mapstructure:"day"`
	NameAliases  []string `mapstructure:"name_aliases"`
	PhoneAliases []string `mapstructure:"phone_aliases"`
}

// LLMConfig configures the message generation backend.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	BaseURL        string        `mapstructure:"base_url"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Moderation     bool          `mapstructure:"moderation"`
}

// MessagesConfig tunes greeting text.
type MessagesConfig struct {
	TitleCaseNames bool `mapstructure:"title_case_names"`
	HistoryLimit   int  `mapstructure:"history_limit"`
}

// WhatsAppConfig configures the WhatsApp Cloud API sender and webhook.
type WhatsAppConfig struct {
	Token              string        `mapstructure:"token"`
	PhoneNumberID      string        `mapstructure:"phone_number_id"`
	APIVersion         string        `mapstructure:"api_version"`
	BaseURL            string        `mapstructure:"base_url"`
	VerifyToken        string        `mapstructure:"verify_token"`
	DefaultCountryCode string        `mapstructure:"default_country_code"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// TelegramConfig configures the staff digest bot.
type TelegramConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Token        string `mapstructure:"token"`
	NotifyChatID string `mapstructure:"notify_chat_id"`
}

// ScheduleConfig configures the daily trigger.
type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Debug      bool   `mapstructure:"debug"`
	AdminToken string `mapstructure:"admin_token"`
}

var defaultConfig = Config{
	Data: DataConfig{
		RecordsPath:  "data/leads.csv",
		PricesPath:   "data/prices.json",
		SnapshotPath: "data/updated_leads.csv",
		ReportDir:    "outputs",
	},
	Fields: FieldsConfig{
		DateOfBirth:  "Tanggal lahir",
		Reminder:     "ULTAH REMINDER",
		Month:        "BULAN",
		Day:          "TANGGAL",
		NameAliases:  []string{"Nama", "NAMA", "nama", "Name", "name"},
		PhoneAliases: []string{"No. Whatsapp", "No Whatsapp", "No"},
	},
	LLM: LLMConfig{
		Provider:       ProviderOpenAI,
		APIKey:         "",
		Model:          "gpt-4o-mini",
		Temperature:    0.7,
		MaxTokens:      512,
		RequestTimeout: 30 * time.Second,
		Moderation:     true,
	},
	Messages: MessagesConfig{
		TitleCaseNames: false,
		HistoryLimit:   20,
	},
	WhatsApp: WhatsAppConfig{
		APIVersion:         "v21.0",
		BaseURL:            "https://graph.facebook.com",
		DefaultCountryCode: "62",
		RequestTimeout:     15 * time.Second,
	},
	Telegram: TelegramConfig{
		Enabled: false,
	},
	Schedule: ScheduleConfig{
		Cron:     "0 8 * * *",
		Timezone: "Asia/Jakarta",
	},
	Server: ServerConfig{
		Enabled: false,
		Host:    "0.0.0.0",
		Port:    8080,
		Debug:   false,
	},
}

// defaultUserConfig is the bootstrap config written by `ultah init`. It only
// carries the settings users are expected to edit.
var defaultUserConfig = Config{
	Data: defaultConfig.Data,
	LLM: LLMConfig{
		Provider: ProviderOpenAI,
		APIKey:   "$OPENAI_API_KEY",
		Model:    "gpt-4o-mini",
	},
	WhatsApp: WhatsAppConfig{
		Token:         "$WHATSAPP_TOKEN",
		PhoneNumberID: "$PHONE_NUMBER_ID",
		VerifyToken:   "$WHATSAPP_VERIFY_TOKEN",
	},
	Schedule: defaultConfig.Schedule,
}

// HomeDir returns the ultah home directory.
// Uses ULTAH_HOME env var if set, otherwise defaults to ~/.ultah.
func HomeDir() (string, error) {
	if dir := os.Getenv("ULTAH_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return defaultHomePath(home), nil
}

// Load merges hardcoded defaults, the config file, and ULTAH_* environment
// overrides in that order. Config is always at $ULTAH_HOME/config.toml.
func Load() (*Config, error) {
	homeDir, err := HomeDir()
	if err != nil {
		return nil, err
	}

	v, err := newViper(homeDir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		expandEnvStringHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	if err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = decodeHook
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.HomeDir = homeDir

	return &cfg, nil
}

// Write writes the merged configuration (defaults overlaid by user
// config) to w in TOML format.
func Write(w io.Writer) error {
	if w == nil {
		return errors.New("writer is required")
	}

	homeDir, err := HomeDir()
	if err != nil {
		return err
	}
	v, err := newViper(homeDir)
	if err != nil {
		return err
	}

	// Keep duration fields human-readable in generated TOML.
	v.Set("llm.request_timeout", v.GetDuration("llm.request_timeout").String())
	v.Set("whatsapp.request_timeout", v.GetDuration("whatsapp.request_timeout").String())

	if err := v.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultUserConfigTOML renders the minimal bootstrap user config as TOML.
func DefaultUserConfigTOML() (string, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.Set("data.records_path", defaultUserConfig.Data.RecordsPath)
	v.Set("data.prices_path", defaultUserConfig.Data.PricesPath)
	v.Set("data.snapshot_path", defaultUserConfig.Data.SnapshotPath)
	v.Set("data.report_dir", defaultUserConfig.Data.ReportDir)
	v.Set("llm.provider", defaultUserConfig.LLM.Provider)
	v.Set("llm.api_key", defaultUserConfig.LLM.APIKey)
	v.Set("llm.model", defaultUserConfig.LLM.Model)
	v.Set("whatsapp.token", defaultUserConfig.WhatsApp.Token)
	v.Set("whatsapp.phone_number_id", defaultUserConfig.WhatsApp.PhoneNumberID)
	v.Set("whatsapp.verify_token", defaultUserConfig.WhatsApp.VerifyToken)
	v.Set("schedule.cron", defaultUserConfig.Schedule.Cron)
	v.Set("schedule.timezone", defaultUserConfig.Schedule.Timezone)

	var out bytes.Buffer
	if err := v.WriteConfigTo(&out); err != nil {
		return "", fmt.Errorf("write default user config: %w", err)
	}
	return out.String(), nil
}

func newViper(homeDir string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(homeConfigPath(homeDir))
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Hosting platforms hand the listen port over as PORT.
	if err := v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind server port env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.records_path", defaultConfig.Data.RecordsPath)
	v.SetDefault("data.prices_path", defaultConfig.Data.PricesPath)
	v.SetDefault("data.snapshot_path", defaultConfig.Data.SnapshotPath)
	v.SetDefault("data.report_dir", defaultConfig.Data.ReportDir)

	v.SetDefault("fields.date_of_birth", defaultConfig.Fields.DateOfBirth)
	v.SetDefault("fields.reminder", defaultConfig.Fields.Reminder)
	v.SetDefault("fields.month", defaultConfig.Fields.Month)
	v.SetDefault("fields.day", defaultConfig.Fields.Day)
	v.SetDefault("fields.name_aliases", defaultConfig.Fields.NameAliases)
	v.SetDefault("fields.phone_aliases", defaultConfig.Fields.PhoneAliases)

	v.SetDefault("llm.provider", defaultConfig.LLM.Provider)
	v.SetDefault("llm.api_key", defaultConfig.LLM.APIKey)
	v.SetDefault("llm.model", defaultConfig.LLM.Model)
	v.SetDefault("llm.base_url", defaultConfig.LLM.BaseURL)
	v.SetDefault("llm.temperature", defaultConfig.LLM.Temperature)
	v.SetDefault("llm.max_tokens", defaultConfig.LLM.MaxTokens)
	v.SetDefault("llm.request_timeout", defaultConfig.LLM.RequestTimeout)
	v.SetDefault("llm.moderation", defaultConfig.LLM.Moderation)

	v.SetDefault("messages.title_case_names", defaultConfig.Messages.TitleCaseNames)
	v.SetDefault("messages.history_limit", defaultConfig.Messages.HistoryLimit)

	v.SetDefault("whatsapp.token", defaultConfig.WhatsApp.Token)
	v.SetDefault("whatsapp.phone_number_id", defaultConfig.WhatsApp.PhoneNumberID)
	v.SetDefault("whatsapp.api_version", defaultConfig.WhatsApp.APIVersion)
	v.SetDefault("whatsapp.base_url", defaultConfig.WhatsApp.BaseURL)
	v.SetDefault("whatsapp.verify_token", defaultConfig.WhatsApp.VerifyToken)
	v.SetDefault("whatsapp.default_country_code", defaultConfig.WhatsApp.DefaultCountryCode)
	v.SetDefault("whatsapp.request_timeout", defaultConfig.WhatsApp.RequestTimeout)

	v.SetDefault("telegram.enabled", defaultConfig.Telegram.Enabled)
	v.SetDefault("telegram.token", defaultConfig.Telegram.Token)
	v.SetDefault("telegram.notify_chat_id", defaultConfig.Telegram.NotifyChatID)

	v.SetDefault("schedule.cron", defaultConfig.Schedule.Cron)
	v.SetDefault("schedule.timezone", defaultConfig.Schedule.Timezone)

	v.SetDefault("server.enabled", defaultConfig.Server.Enabled)
	v.SetDefault("server.host", defaultConfig.Server.Host)
	v.SetDefault("server.port", defaultConfig.Server.Port)
	v.SetDefault("server.debug", defaultConfig.Server.Debug)
	v.SetDefault("server.admin_token", defaultConfig.Server.AdminToken)
}

// Location resolves the schedule timezone, falling back to local time.
func (c ScheduleConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Simulated reports whether live WhatsApp credentials are missing.
func (c WhatsAppConfig) Simulated() bool {
	return strings.TrimSpace(c.Token) == "" || strings.TrimSpace(c.PhoneNumberID) == ""
}

func expandEnvStringHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}
		value, ok := data.(string)
		if !ok {
			return data, nil
		}
		return os.ExpandEnv(value), nil
	}
}
