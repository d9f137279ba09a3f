// Package config defines the necessary types to configure the application.
// Values come from an optional config.yaml, struct defaults, and the
// recognized environment variables, in increasing order of precedence.
package config

import "time"

type Config struct {
	Application Application `yaml:"application"`
	Logger      Logger      `yaml:"logger"`
	HTTP        HTTPServer  `yaml:"http"`

	OIDC        OIDC        `yaml:"oidc"`
	Session     Session     `yaml:"session"`
	Frontend    Frontend    `yaml:"frontend"`
	Recipes     Recipes     `yaml:"recipes"`
	Database    Database    `yaml:"database"`
	ValKey      ValKey      `yaml:"valkey"`
	Housekeeper Housekeeper `yaml:"housekeeper"`
}

type Application struct {
	Name        string `yaml:"name" default:"tasteboard"`
	Environment string `yaml:"environment" default:"development"`
}

type Logger struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" default:":8000"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"5s"`
}

// OIDC configures the single identity provider the backend trusts. The
// internal base URL is used for server-to-server calls (token, JWKS); the
// external one is what the browser is redirected to. Behind a reverse proxy
// these legitimately differ.
type OIDC struct {
	ClientID        string        `yaml:"clientID" default:"tasteboard"`
	ClientSecret    string        `yaml:"clientSecret"`
	ClientName      string        `yaml:"clientName"`
	InternalBaseURL string        `yaml:"internalBaseURL" default:"http://dex:5556"`
	ExternalBaseURL string        `yaml:"externalBaseURL" default:"http://localhost:5556"`
	Issuer          string        `yaml:"issuer"`
	RedirectURL     string        `yaml:"redirectURL" default:"http://localhost:8000/authorize"`
	RequestTimeout  time.Duration `yaml:"requestTimeout" default:"10s"`

	AuthorizePath string `yaml:"authorizePath" default:"/auth"`
	TokenPath     string `yaml:"tokenPath" default:"/token"`
	JWKSPath      string `yaml:"jwksPath" default:"/keys"`
}

type Session struct {
	Duration      time.Duration  `yaml:"duration" default:"12h"`
	SigningSecret string         `yaml:"signingSecret"`
	Cookie        CookieTemplate `yaml:"cookie"`
}

type Frontend struct {
	Origin string `yaml:"origin" default:"http://localhost:5173"`
}

// Recipes configures the third-party recipe search provider.
type Recipes struct {
	BaseURL        string        `yaml:"baseURL" default:"https://api.spoonacular.com"`
	APIKey         string        `yaml:"apiKey"`
	RequestTimeout time.Duration `yaml:"requestTimeout" default:"10s"`
	SearchLimit    int           `yaml:"searchLimit" default:"6"`
	RatePerSecond  float64       `yaml:"ratePerSecond" default:"5"`
	RateBurst      int           `yaml:"rateBurst" default:"10"`
}

type Database struct {
	URL string `yaml:"url"`
}

// ValKey is optional; when Host is empty the session store falls back to the
// in-process repository.
type ValKey struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix" default:"tasteboard"`
}

type Housekeeper struct {
	TriggerInterval time.Duration `yaml:"triggerInterval" default:"10m"`
}
