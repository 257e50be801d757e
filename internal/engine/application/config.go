package application

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines engine defaults and the recomputation schedule.
type Config struct {
	Defaults   RunOptions     `yaml:"defaults"`
	Categories []string       `yaml:"categories"`
	Schedule   ScheduleConfig `yaml:"schedule"`
	WebhookURL string         `yaml:"webhook_url"`
}

// ScheduleConfig defines the daily recomputation schedule.
type ScheduleConfig struct {
	DailyAt   string  `yaml:"daily_at"`
	Scenarios []int64 `yaml:"scenarios"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		Defaults: RunOptions{
			FxApply:      true,
			TaxApply:     true,
			RebatesApply: true,
			TwcApply:     true,
		},
		WebhookURL: os.Getenv("ENGINE_WEBHOOK_URL"),
	}

	if path := os.Getenv("ENGINE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Schedule.DailyAt == "" {
		cfg.Schedule.DailyAt = getenvDefault("ENGINE_DAILY_AT", "02:00")
	}
	if cfg.WebhookURL == "" {
		cfg.WebhookURL = os.Getenv("ENGINE_WEBHOOK_URL")
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = splitCSV(os.Getenv("ENGINE_CATEGORIES"))
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
