package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/creasty/defaults"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
)

const configFileName = "config.yaml"

// envOverrides maps the recognized environment variables onto config fields.
// The names match what the deployment environment already exports.
var envOverrides = map[string]func(*Config, string){
	"OIDC_CLIENT_ID":      func(c *Config, v string) { c.OIDC.ClientID = v },
	"OIDC_CLIENT_SECRET":  func(c *Config, v string) { c.OIDC.ClientSecret = v },
	"OIDC_CLIENT_NAME":    func(c *Config, v string) { c.OIDC.ClientName = v },
	"OIDC_REDIRECT_URL":   func(c *Config, v string) { c.OIDC.RedirectURL = v },
	"DEX_INTERNAL_HOST":   func(c *Config, v string) { c.OIDC.InternalBaseURL = v },
	"DEX_EXTERNAL_HOST":   func(c *Config, v string) { c.OIDC.ExternalBaseURL = v },
	"OIDC_ISSUER":         func(c *Config, v string) { c.OIDC.Issuer = v },
	"FRONTEND_URL":        func(c *Config, v string) { c.Frontend.Origin = v },
	"SESSION_SECRET":      func(c *Config, v string) { c.Session.SigningSecret = v },
	"SPOONACULAR_API_KEY": func(c *Config, v string) { c.Recipes.APIKey = v },
	"DATABASE_URL":        func(c *Config, v string) { c.Database.URL = v },
	"VALKEY_HOST":         func(c *Config, v string) { c.ValKey.Host = v },
	"VALKEY_USER":         func(c *Config, v string) { c.ValKey.User = v },
	"VALKEY_PASSWORD":     func(c *Config, v string) { c.ValKey.Password = v },
	"HTTP_ADDRESS":        func(c *Config, v string) { c.HTTP.Address = v },
	"LOG_LEVEL":           func(c *Config, v string) { c.Logger.Level = v },
}

// Load builds the configuration from defaults, the first config.yaml found in
// the given directories, and environment overrides, in that order.
func Load(searchDirs ...string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}

	for _, dir := range searchDirs {
		path := filepath.Join(os.ExpandEnv(dir), configFileName)
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}

		if err := unmarshalYAML(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}

		break
	}

	for name, apply := range envOverrides {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			apply(cfg, v)
		}
	}

	applyDerived(cfg)

	return cfg, nil
}

// unmarshalYAML decodes the file into a generic map first and merges it onto
// the defaulted struct, so absent keys keep their default values.
func unmarshalYAML(raw []byte, cfg *Config) error {
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("unmarshaling yaml: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("decoding config values: %w", err)
	}

	return nil
}

func applyDerived(cfg *Config) {
	if cfg.OIDC.Issuer == "" {
		cfg.OIDC.Issuer = cfg.OIDC.ExternalBaseURL
	}
	if cfg.OIDC.ClientName == "" {
		cfg.OIDC.ClientName = cfg.OIDC.ClientID
	}
}

// Validate reports configuration the server cannot start without.
func (c *Config) Validate() error {
	if len(c.Session.SigningSecret) < 32 {
		return errors.New("session signing secret must be at least 32 bytes")
	}
	if c.OIDC.ClientSecret == "" {
		return errors.New("oidc client secret is required")
	}

	return nil
}
