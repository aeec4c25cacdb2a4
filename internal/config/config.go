package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danpilch/maxpal/internal/tz"
)

type ServerConfig struct {
	Address     string   `yaml:"address"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type UpstreamConfig struct {
	URL            string        `yaml:"url"`
	Timeout        time.Duration `yaml:"timeout"`
	SearchDeadline time.Duration `yaml:"search_deadline"`
	MaxPages       int           `yaml:"max_pages"`
}

type JourneyConfig struct {
	Origin      string   `yaml:"origin"`
	Destination string   `yaml:"destination"`
	Date        string   `yaml:"date"` // YYYY-MM-DD, empty means every active day
	From        string   `yaml:"from"` // HH:MM
	To          string   `yaml:"to"`   // HH:MM
	Days        []string `yaml:"days"` // e.g., ["monday", "friday"]
	CardNumber  string   `yaml:"card_number"`
}

// Key identifies the journey in logs and notification state.
func (j JourneyConfig) Key() string {
	date := j.Date
	if date == "" {
		date = "daily"
	}
	return fmt.Sprintf("%s-%s@%s %s-%s", j.Origin, j.Destination, date, j.From, j.To)
}

// Window returns the Paris departure window for the given day. A configured
// date overrides day.
func (j JourneyConfig) Window(day time.Time) (time.Time, time.Time, error) {
	day = tz.In(day)
	if j.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", j.Date, tz.Paris)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", j.Date, err)
		}
		day = parsed
	}
	from, err := clockOn(day, j.From)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := clockOn(day, j.To)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// IsActiveDay returns true if the given weekday is in the configured days list.
// If no days are configured, returns true (runs every day).
func (j JourneyConfig) IsActiveDay(weekday time.Weekday) bool {
	if len(j.Days) == 0 {
		return true
	}
	dayName := strings.ToLower(weekday.String())
	for _, d := range j.Days {
		if strings.ToLower(d) == dayName {
			return true
		}
	}
	return false
}

func clockOn(day time.Time, value string) (time.Time, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, tz.Paris), nil
}

type WatchConfig struct {
	Interval time.Duration   `yaml:"interval"`
	Journeys []JourneyConfig `yaml:"journeys"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Watch    WatchConfig    `yaml:"watch"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 10 * time.Second
	}
	if c.Upstream.SearchDeadline == 0 {
		c.Upstream.SearchDeadline = 25 * time.Second
	}
	if c.Upstream.MaxPages == 0 {
		c.Upstream.MaxPages = 50
	}
	if c.Watch.Interval == 0 {
		c.Watch.Interval = 5 * time.Minute
	}
}

func (c *Config) Validate() error {
	if c.Upstream.Timeout < 0 || c.Upstream.SearchDeadline < 0 {
		return fmt.Errorf("upstream: timeout and search_deadline must be positive")
	}
	if c.Upstream.MaxPages < 0 {
		return fmt.Errorf("upstream: max_pages must be positive")
	}
	if c.Watch.Interval < time.Minute {
		return fmt.Errorf("watch: interval must be at least 1m")
	}

	for i, j := range c.Watch.Journeys {
		if j.Origin == "" || j.Destination == "" || j.From == "" || j.To == "" {
			return fmt.Errorf("watch.journeys[%d]: origin, destination, from, and to are required", i)
		}
		from, to, err := j.Window(time.Now())
		if err != nil {
			return fmt.Errorf("watch.journeys[%d]: %w", i, err)
		}
		if from.After(to) {
			return fmt.Errorf("watch.journeys[%d]: from must not be after to", i)
		}
	}

	return nil
}
