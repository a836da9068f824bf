// Package session assembles a configured pricing Facade from an INI config
// file, mirroring bidfx/session.py's Session as the single top-level entry
// point applications use to reach the pricing API.
package session

import (
	"github.com/bidfx-oss/pricing-go/config"
	"github.com/bidfx-oss/pricing-go/pixie"
	"github.com/bidfx-oss/pricing-go/pricing"
	"github.com/bidfx-oss/pricing-go/puffin"
)

// apiVersion is reported by Version(), mirroring BIDFX_API_INFO.version.
const apiVersion = "1.0.0"

// Session is the top-level API object representing a client's working
// session; it owns the configured pricing Facade.
type Session struct {
	pricing     *pricing.Facade
	diagnostics config.Diagnostics
}

// New builds a Session from an already-parsed Config, wiring the Pixie and
// Puffin providers (or a no-op provider, when a section's disable flag is
// set) behind a single pricing.Facade.
func New(cfg config.Config) (*Session, error) {
	callbacks := pricing.NewCallbacks()

	builder, err := pricing.NewSubjectBuilder(cfg.ExclusivePricing.Username, cfg.ExclusivePricing.DefaultAccount)
	if err != nil {
		return nil, err
	}

	pixieProvider, err := newProtocolProvider(cfg.ExclusivePricing, callbacks, pixie.NewProvider)
	if err != nil {
		return nil, err
	}
	puffinProvider, err := newProtocolProvider(cfg.SharedPricing, callbacks, puffin.NewProvider)
	if err != nil {
		return nil, err
	}

	return &Session{
		pricing:     pricing.NewFacade(pixieProvider, puffinProvider, callbacks, builder),
		diagnostics: cfg.Diagnostics,
	}, nil
}

// NewFromINIFile loads configuration from an INI file and builds a Session
// from it, mirroring Session.create_from_ini_file's default search path.
func NewFromINIFile(configFile string) (*Session, error) {
	if configFile == "" {
		configFile = "~/.bidfx/api/config.ini"
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

func newProtocolProvider(
	cfg config.Provider,
	callbacks *pricing.Callbacks,
	construct func(config.Provider, *pricing.Callbacks) (pricing.Provider, error),
) (pricing.Provider, error) {
	if cfg.Disable {
		return pricing.NewDisabledProvider(), nil
	}
	return construct(cfg, callbacks)
}

// Pricing returns the session's configured pricing Facade.
func (s *Session) Pricing() *pricing.Facade { return s.pricing }

// Diagnostics returns the session's diagnostics server configuration.
func (s *Session) Diagnostics() config.Diagnostics { return s.diagnostics }

// Version reports the API version number.
func Version() string { return apiVersion }
