// config provides TOML-based configuration for smoke (.smokerc.toml).  Used
// to override the request sent by the smoke test and the fixture server
// settings.
//
// SPDX-License-Identifier: MIT
// Copyright (c) 2019 Hadrien Chauvin
package config

import (
	"github.com/hchauvin/smoke/pkg/log"
	"github.com/imdario/mergo"
	"net/http"
	"path/filepath"
)

const (
	// DefaultURL is the endpoint the smoke test targets.
	DefaultURL = "http://localhost:4221/files/banana"

	// DefaultUserAgent is the User-Agent header sent by the smoke test.
	DefaultUserAgent = "foobar/1.2.3"

	// DefaultExpectedStatus is the only status code accepted by the
	// smoke test.
	DefaultExpectedStatus = 200

	// DefaultFixtureAddr is the address the fixture server listens on.
	DefaultFixtureAddr = ":4221"

	// DefaultFixtureRoot is the folder served by the fixture server.
	DefaultFixtureRoot = "."
)

// Config is the project-wide configuration for smoke.
type Config struct {
	// URL to send the GET request to.
	URL string `toml:"url" yaml:"url" validate:"required,url"`

	// UserAgent is the value of the User-Agent header.
	UserAgent string `toml:"userAgent" yaml:"userAgent"`

	// Headers are additional HTTP headers to set in the request.
	Headers map[string]string `toml:"headers" yaml:"headers"`

	// VerifyTLS enables the verification of the server certificate
	// chain.  Disabled by default.
	VerifyTLS bool `toml:"verifyTLS" yaml:"verifyTLS"`

	// ExpectedStatus is the status code the response must have.
	ExpectedStatus int `toml:"expectedStatus" yaml:"expectedStatus" validate:"min=100,max=599"`

	// Fixture configures the fixture server.
	Fixture FixtureConfig `toml:"fixture" yaml:"fixture"`

	// WorkspaceDir is the workspace directory.
	WorkspaceDir string `toml:"-" yaml:"-"`
}

// FixtureConfig configures the fixture server.
type FixtureConfig struct {
	// Addr is the TCP address to listen on.
	Addr string `toml:"addr" yaml:"addr"`

	// Root is the folder, relative to the workspace dir, the files
	// are served from and uploaded to.
	Root string `toml:"root" yaml:"root"`
}

// Default gives the configuration used when there is no config file.
func Default() *Config {
	return &Config{
		URL:            DefaultURL,
		UserAgent:      DefaultUserAgent,
		ExpectedStatus: DefaultExpectedStatus,
		Fixture: FixtureConfig{
			Addr: DefaultFixtureAddr,
			Root: DefaultFixtureRoot,
		},
	}
}

// Override sets the non-zero fields of overrides on cfg.  Headers are
// merged name by name.
func (cfg *Config) Override(overrides *Config) error {
	overrides.Headers = canonicalHeaders(overrides.Headers)
	return mergo.Merge(cfg, overrides, mergo.WithOverride)
}

func (cfg *Config) setDefaults() error {
	cfg.Headers = canonicalHeaders(cfg.Headers)
	return mergo.Merge(cfg, Default())
}

func canonicalHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	canonical := make(map[string]string, len(headers))
	for name, value := range headers {
		canonical[http.CanonicalHeaderKey(name)] = value
	}
	return canonical
}

// Path resolves a path relative to the workspace dir.
func (cfg *Config) Path(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.WorkspaceDir, path)
}

// Logger gives the logger associated with this configuration.
func (cfg *Config) Logger() *log.Logger {
	return &log.Logger{}
}
