package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the bot version reported in the reply footer and user agent.
const Version = "1.0.0"

// Duration wraps time.Duration for YAML unmarshaling from strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Config represents the full Opal configuration document.
type Config struct {
	Subreddit  string      `yaml:"subreddit" validate:"required,min=1"`
	Maintainer string      `yaml:"maintainer" validate:"required,min=1"`
	Creds      Credentials `yaml:"credentials" validate:"required"`
	UserAgent  string      `yaml:"user_agent,omitempty"`

	ScanLimit       int           `yaml:"scan_limit,omitempty" validate:"omitempty,min=1,max=100"`
	PollInterval    Duration `yaml:"poll_interval,omitempty"`
	RestartCooldown Duration `yaml:"restart_cooldown,omitempty"`

	ReplyTemplate string `yaml:"reply_template,omitempty"`
	TemplateFile  string `yaml:"template_file,omitempty"`

	ForwardMessages bool `yaml:"forward_messages,omitempty"`

	SeenDB    string `yaml:"seen_db,omitempty"`
	SeenLimit int    `yaml:"seen_limit,omitempty" validate:"omitempty,min=1"`

	Log     LogSettings    `yaml:"log,omitempty"`
	Plugins PluginSettings `yaml:"plugins,omitempty"`
}

// Credentials holds the Reddit OAuth script-app credential set.
type Credentials struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	Username     string `yaml:"username" validate:"required"`
	Password     string `yaml:"password" validate:"required"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	Human bool   `yaml:"human,omitempty"`
}

// PluginSettings carries per-plugin options. Every plugin receives the whole
// configuration and reads only its own section; unused sections are ignored.
type PluginSettings struct {
	Imgur     ImgurSettings     `yaml:"imgur,omitempty"`
	OpenGraph OpenGraphSettings `yaml:"opengraph,omitempty"`
}

// ImgurSettings configures the imgur export plugin.
type ImgurSettings struct {
	ClientID string `yaml:"client_id,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

// OpenGraphSettings configures the generic page-scraping import plugin.
type OpenGraphSettings struct {
	// Hosts restricts scraping to the listed domains. Empty means any host
	// not claimed by a more specific importer.
	Hosts []string `yaml:"hosts,omitempty"`
}

// ApplyDefaults fills optional settings the original deployment left implicit.
func (c *Config) ApplyDefaults() {
	if c.ScanLimit == 0 {
		c.ScanLimit = 50
	}
	if c.PollInterval.Duration == 0 {
		c.PollInterval.Duration = 30 * time.Second
	}
	if c.RestartCooldown.Duration == 0 {
		c.RestartCooldown.Duration = 60 * time.Second
	}
	if c.SeenLimit == 0 {
		c.SeenLimit = 1000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.UserAgent == "" {
		c.UserAgent = fmt.Sprintf("opal/%s by %s", Version, c.Maintainer)
	}
}
