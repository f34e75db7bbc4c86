package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	appLog "dtpicker/internal/log"
	"dtpicker/internal/model"
	"dtpicker/internal/timeslot"
)

// PickerConfig describes one input on the demo page and the picker bound to it.
type PickerConfig struct {
	// Anchor is the id of the input element the picker attaches to.
	Anchor string `yaml:"anchor" json:"anchor" validate:"required,max=64"`
	// Label is shown next to the input.
	Label string `yaml:"label" json:"label"`

	// Mode switches. Priority: time only > date only > both > default both.
	PickTimeOnly     bool `yaml:"pick_time_only" json:"pick_time_only"`
	PickDateOnly     bool `yaml:"pick_date_only" json:"pick_date_only"`
	PickDateTimeBoth bool `yaml:"pick_date_time_both" json:"pick_date_time_both"`

	// AllowPast keeps past days/slots selectable. Defaults to true when unset.
	AllowPast *bool `yaml:"allow_past,omitempty" json:"allow_past,omitempty"`

	// DefaultTime is the slot preselected before any interaction.
	DefaultTime string `yaml:"default_time" json:"default_time" validate:"omitempty,slot"`

	// ShowShortcuts toggles the Clear/Today header buttons. Defaults to true.
	ShowShortcuts *bool `yaml:"show_shortcuts,omitempty" json:"show_shortcuts,omitempty"`
}

// Options converts the YAML form into the picker's configuration record.
func (p PickerConfig) Options() model.Options {
	o := model.DefaultOptions()
	o.Mode = model.DeriveMode(model.ModeFlags{
		PickTimeOnly:     p.PickTimeOnly,
		PickDateOnly:     p.PickDateOnly,
		PickDateTimeBoth: p.PickDateTimeBoth,
	})
	if p.AllowPast != nil {
		o.AllowPast = *p.AllowPast
	}
	if p.DefaultTime != "" {
		o.DefaultTime = p.DefaultTime
	}
	if p.ShowShortcuts != nil {
		o.ShowShortcuts = *p.ShowShortcuts
	}
	return o
}

// TelegramConfig enables the Telegram inline-keyboard front end.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Token   string `yaml:"token" json:"-" validate:"required_if=Enabled true"`
	// Anchor names the picker config used for /pick without an argument.
	Anchor string `yaml:"anchor" json:"anchor"`
}

// BasicAuthConfig protects everything except /health when both fields are set.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the page and API.
	Listen string `yaml:"listen" json:"listen" validate:"required,hostname_port"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info error"`

	// SessionTTL is how long an untouched browser session keeps its pickers.
	SessionTTL Duration `yaml:"session_ttl" json:"session_ttl"`

	// SweepSchedule is the cron spec of the idle-session sweeper
	// (e.g. "@every 1m").
	SweepSchedule string `yaml:"sweep_schedule" json:"sweep_schedule" validate:"required"`

	// Pickers are the inputs offered on the page.
	Pickers []PickerConfig `yaml:"pickers" json:"pickers" validate:"dive"`

	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`

	// BasicAuth is optional.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// Duration is a time.Duration written as "30m" in YAML.
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

const (
	defaultListen     = "127.0.0.1:8080"
	defaultLogLevel   = "info"
	defaultSessionTTL = Duration(30 * time.Minute)
	defaultSweep      = "@every 1m"
)

// DefaultConfig returns an in-memory default configuration with one picker
// per mode.
func DefaultConfig() *Config {
	noPast := false
	return &Config{
		Listen:        defaultListen,
		LogLevel:      defaultLogLevel,
		SessionTTL:    defaultSessionTTL,
		SweepSchedule: defaultSweep,
		Pickers: []PickerConfig{
			{Anchor: "appointment", Label: "Appointment", PickDateTimeBoth: true, AllowPast: &noPast},
			{Anchor: "birthday", Label: "Birthday", PickDateOnly: true},
			{Anchor: "reminder", Label: "Reminder", PickTimeOnly: true, AllowPast: &noPast},
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.SweepSchedule == "" {
		c.SweepSchedule = defaultSweep
	}
	if c.Pickers == nil {
		c.Pickers = []PickerConfig{}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
		_, err := timeslot.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints and that anchors are unique.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	seen := make(map[string]bool, len(c.Pickers))
	for _, p := range c.Pickers {
		if seen[p.Anchor] {
			return fmt.Errorf("config: duplicate picker anchor %q", p.Anchor)
		}
		seen[p.Anchor] = true
	}
	if c.Telegram.Enabled && c.Telegram.Anchor != "" && !seen[c.Telegram.Anchor] {
		return fmt.Errorf("config: telegram anchor %q is not a configured picker", c.Telegram.Anchor)
	}
	return nil
}

// Picker returns the picker config for anchor.
func (c *Config) Picker(anchor string) (PickerConfig, bool) {
	for _, p := range c.Pickers {
		if p.Anchor == anchor {
			return p, true
		}
	}
	return PickerConfig{}, false
}

// Load reads the YAML config at path. A missing file is replaced by the
// defaults, written with 0600 perms, so the first run leaves an editable
// config behind.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, fmt.Errorf("config: write defaults: %w", err)
		}
		appLog.Info("config: wrote defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Save normalizes cfg and replaces path with it atomically: the YAML goes
// to a temp file in the same directory which is synced, chmod'ed to 0600
// and renamed over path.
func Save(path string, cfg *Config) error {
	switch {
	case path == "":
		return errors.New("config: path is empty")
	case cfg == nil:
		return errors.New("config: nil config")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".dtpicker-config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeSynced(tmp, data); err != nil {
		return fmt.Errorf("config: write %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("config: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("config: replace %s: %w", path, err)
	}
	return nil
}

// writeSynced writes data, flushes it to disk and closes f.
func writeSynced(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
