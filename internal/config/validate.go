package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validatable is implemented by config sections that can self-validate.
type Validatable interface {
	Validate() error
}

type ValidationReport struct {
	Warnings []string
}

func (c DataConfig) Validate() error {
	if strings.TrimSpace(c.RecordsPath) == "" {
		return errors.New("records_path is required")
	}
	if strings.TrimSpace(c.ReportDir) == "" {
		return errors.New("report_dir is required")
	}
	return nil
}

func (c FieldsConfig) Validate() error {
	if strings.TrimSpace(c.DateOfBirth) == "" {
		return errors.New("date_of_birth is required")
	}
	if strings.TrimSpace(c.Reminder) == "" {
		return errors.New("reminder is required")
	}
	return nil
}

// Validate accepts an empty api_key. Generation then runs in fallback mode.
func (c LLMConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter, ProviderGemini:
	case "":
		return errors.New("provider is required")
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	if c.APIKey != "" && strings.TrimSpace(c.Model) == "" {
		return errors.New("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return errors.New("max_tokens must not be negative")
	}
	if c.RequestTimeout < 0 {
		return errors.New("request_timeout must not be negative")
	}
	return nil
}

func (c MessagesConfig) Validate() error {
	if c.HistoryLimit < 0 {
		return errors.New("history_limit must not be negative")
	}
	return nil
}

func (c WhatsAppConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url is required")
	}
	if strings.TrimSpace(c.APIVersion) == "" {
		return errors.New("api_version is required")
	}
	if _, err := strconv.ParseUint(c.DefaultCountryCode, 10, 16); c.DefaultCountryCode != "" && err != nil {
		return fmt.Errorf("default_country_code %q must be digits", c.DefaultCountryCode)
	}
	return nil
}

func (c TelegramConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Token == "" {
		return errors.New("token is required when enabled=true")
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(c.NotifyChatID), 10, 64); err != nil {
		return fmt.Errorf("notify_chat_id must be a numeric chat id: %w", err)
	}
	return nil
}

func (c ScheduleConfig) Validate() error {
	if _, err := cron.ParseStandard(c.Cron); err != nil {
		return fmt.Errorf("invalid cron %q: %w", c.Cron, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// Validate returns the first section error, if any.
func (c *Config) Validate() error {
	for _, s := range c.sections() {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

type namedSection struct {
	name string
	v    Validatable
}

func (c *Config) sections() []namedSection {
	return []namedSection{
		{"data", c.Data},
		{"fields", c.Fields},
		{"llm", c.LLM},
		{"messages", c.Messages},
		{"whatsapp", c.WhatsApp},
		{"telegram", c.Telegram},
		{"schedule", c.Schedule},
		{"server", c.Server},
	}
}

// ValidateStartup validates startup configuration and returns warning messages.
func ValidateStartup(cfg *Config) (*ValidationReport, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	var errs []error
	report := &ValidationReport{}

	for _, s := range cfg.sections() {
		if err := s.v.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		report.Warnings = append(report.Warnings, "llm.api_key is empty; greetings use the fallback template")
	}
	if cfg.WhatsApp.Simulated() {
		report.Warnings = append(report.Warnings, "whatsapp.token or whatsapp.phone_number_id is empty; deliveries are simulated")
	}
	if cfg.Server.Enabled && strings.TrimSpace(cfg.WhatsApp.VerifyToken) == "" {
		report.Warnings = append(report.Warnings, "whatsapp.verify_token is empty; webhook verification will always fail")
	}
	if cfg.Server.Enabled && strings.TrimSpace(cfg.Server.AdminToken) == "" {
		report.Warnings = append(report.Warnings, "server.admin_token is empty; the run endpoint is disabled")
	}

	if len(errs) > 0 {
		return report, errors.Join(errs...)
	}
	return report, nil
}
