// Package config defines the INI-based configuration schema consumed by a
// pricing session, following the mapstructure+validator conventions of the
// teacher's config package.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultPort              = 443
	defaultHeartbeatInterval = 10 * time.Second
	defaultReconnectInterval = 10 * time.Second
	defaultMinInterval       = 100 * time.Millisecond
	defaultPixieService      = "highway"
	defaultPuffinService     = "puffin"
	defaultDiagnosticsAddr   = "localhost:8080"

	SampleNodeConfigPath = "config.example.ini"
)

var validate = validator.New()

type (
	// Config is the top-level configuration for a pricing session, parsed
	// from an INI file with two required provider sections and an optional
	// Diagnostics section.
	Config struct {
		ExclusivePricing Provider    `mapstructure:"Exclusive Pricing" validate:"required"`
		SharedPricing    Provider    `mapstructure:"Shared Pricing" validate:"required"`
		Diagnostics      Diagnostics `mapstructure:"Diagnostics"`
	}

	// Diagnostics configures the optional HTTP server exposing subscription,
	// provider health and metrics endpoints, mirroring the teacher's
	// config.Server section.
	Diagnostics struct {
		ListenAddr     string   `mapstructure:"listen_addr"`
		VerboseCORS    bool     `mapstructure:"verbose_cors"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
		Disable        bool     `mapstructure:"disable"`
	}

	// Provider holds the connection and credential settings for one of the
	// two protocol providers, mirroring the Exclusive/Shared Pricing INI
	// sections documented for the core configuration.
	Provider struct {
		Host              string        `mapstructure:"host" validate:"required_unless=Disable true"`
		Port              int           `mapstructure:"port"`
		Username          string        `mapstructure:"username" validate:"required_unless=Disable true"`
		Password          string        `mapstructure:"password" validate:"required_unless=Disable true"`
		ValidCN           string        `mapstructure:"valid_cn"`
		ValidRootCert     string        `mapstructure:"valid_root_cert"`
		Service           string        `mapstructure:"service"`
		HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
		ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
		MinInterval       time.Duration `mapstructure:"min_interval"`
		Tunnel            bool          `mapstructure:"tunnel"`
		ProductSerial     string        `mapstructure:"product_serial"`
		DefaultAccount    string        `mapstructure:"default_account"`
		Disable           bool          `mapstructure:"disable"`
	}
)

// setDefaults fills in zero-valued fields with the documented defaults,
// following the teacher's cfg.setDefaults() convention.
func (c *Config) setDefaults() {
	c.ExclusivePricing.setDefaults(defaultPixieService)
	c.SharedPricing.setDefaults(defaultPuffinService)
	if c.Diagnostics.ListenAddr == "" {
		c.Diagnostics.ListenAddr = defaultDiagnosticsAddr
	}
}

func (p *Provider) setDefaults(defaultService string) {
	if p.Port == 0 {
		p.Port = defaultPort
	}
	if p.ValidCN == "" {
		p.ValidCN = p.Host
	}
	if p.Service == "" {
		p.Service = defaultService
	}
	if p.HeartbeatInterval == 0 {
		p.HeartbeatInterval = defaultHeartbeatInterval
	}
	if p.ReconnectInterval == 0 {
		p.ReconnectInterval = defaultReconnectInterval
	}
	if p.MinInterval == 0 {
		p.MinInterval = defaultMinInterval
	}
}

// Validate runs struct-tag validation over the config; disabled providers
// are exempt from the mandatory host/username/password fields.
func (c Config) Validate() error {
	return validate.Struct(c)
}
