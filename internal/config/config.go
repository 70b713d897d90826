package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config carries everything the pipeline and the server need. It is loaded
// once in main and passed explicitly; nothing reads viper after Load returns.
type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	Artifacts Artifacts `mapstructure:"artifacts"`

	Mail Mail `mapstructure:"mail"`

	Auth Auth `mapstructure:"auth"`
}

// Auth configures token signing for the HTTP surface.
type Auth struct {
	SigningKey   string `mapstructure:"signing_key"`
	TokenTTLMins int    `mapstructure:"token_ttl_minutes"`
}

// Artifacts names the spreadsheet files and sheets the workflow touches.
type Artifacts struct {
	ReportPath      string `mapstructure:"report_path"`
	ReportSheet     string `mapstructure:"report_sheet"`
	MasterPath      string `mapstructure:"master_path"`
	MasterSheet     string `mapstructure:"master_sheet"`
	HistoryDir      string `mapstructure:"history_dir"`
	HistoryTemplate string `mapstructure:"history_template"`
	TemplateSheet   string `mapstructure:"template_sheet"`
}

// Mail configures the outbound mail gateway.
type Mail struct {
	GatewayURL string   `mapstructure:"gateway_url"`
	APIKey     string   `mapstructure:"api_key"`
	CC         []string `mapstructure:"cc"`
}

// Load reads the YAML config at dir/name.yml and unmarshals it.
func Load(dir, name string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(name)

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("db.path", "maintenance.db")
	v.SetDefault("artifacts.report_sheet", "Hoja1")
	v.SetDefault("artifacts.master_sheet", "Lidars")
	v.SetDefault("artifacts.template_sheet", "Hoja1")
	v.SetDefault("auth.token_ttl_minutes", 60)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	a := c.Artifacts
	for _, p := range []struct{ name, val string }{
		{"artifacts.report_path", a.ReportPath},
		{"artifacts.master_path", a.MasterPath},
		{"artifacts.history_dir", a.HistoryDir},
		{"artifacts.history_template", a.HistoryTemplate},
	} {
		if p.val == "" {
			return fmt.Errorf("config: %s must be set", p.name)
		}
	}
	return nil
}
