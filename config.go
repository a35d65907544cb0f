package couchrepo

import (
	"log"

	"github.com/jinzhu/configor"

	"github.com/xdbsoft/couchrepo/api"
)

//Config contains all required information for the initialisation of a Repository
type Config struct {
	// URL of the store, e.g. http://localhost:5984. Ignored when Locator is set.
	URL string
	// Database holding the documents
	Database string

	// CSRF header name and token added to every request when both are set
	CSRFHeader string
	CSRFToken  string

	Auth AuthConfig

	// Debug logs every request through Logger, or the standard logger when Logger is nil
	Debug bool

	Locator api.Locator `json:"-" yaml:"-" toml:"-"`
	Logger  *log.Logger `json:"-" yaml:"-" toml:"-"`
}

//AuthConfig describes the OpenID Connect client used to obtain bearer tokens for the store
type AuthConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func (c Config) locator() api.Locator {
	if !c.Locator.IsZero() {
		return c.Locator
	}
	return api.Static(c.URL)
}

func (c Config) logger() *log.Logger {
	if !c.Debug {
		return nil
	}
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(log.Writer(), "couchrepo: ", log.LstdFlags)
}

//LoadConfig reads the configuration from the given files (YAML, TOML or JSON),
//overridden by COUCHREPO_* environment variables.
func LoadConfig(paths ...string) (Config, error) {

	var cfg Config
	if err := configor.New(&configor.Config{ENVPrefix: "COUCHREPO"}).Load(&cfg, paths...); err != nil {
		return cfg, err
	}

	return cfg, nil
}
