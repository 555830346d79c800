// commands implements the smoke CLI commands.
//
// SPDX-License-Identifier: MIT
// Copyright (c) 2019 Hadrien Chauvin
package commands

import (
	"context"
	"fmt"
	"github.com/hchauvin/smoke/pkg/config"
	"github.com/hchauvin/smoke/pkg/fixture"
	"github.com/hchauvin/smoke/pkg/smoke"
	"github.com/spf13/afero"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
)

const logDomain = "smoke"

// RunCfg gives the configuration for the Run function.  Zero values
// leave the project-wide configuration untouched.
type RunCfg struct {
	WorkingDir     string
	ConfigPath     string
	URL            string
	UserAgent      string
	Headers        []string
	VerifyTLS      bool
	ExpectedStatus int
	Out            io.Writer
}

// Run runs the smoke test: it sends one GET request and fails if the
// status code is not the expected one.  The response body is printed
// on success.
func Run(ctx context.Context, runCfg *RunCfg) error {
	cfg, err := readConfig(runCfg.WorkingDir, runCfg.ConfigPath)
	if err != nil {
		return err
	}

	overrides := &config.Config{
		URL:            runCfg.URL,
		UserAgent:      runCfg.UserAgent,
		VerifyTLS:      runCfg.VerifyTLS,
		ExpectedStatus: runCfg.ExpectedStatus,
	}
	for _, h := range runCfg.Headers {
		name, value, err := parseHeader(h)
		if err != nil {
			return err
		}
		if overrides.Headers == nil {
			overrides.Headers = make(map[string]string)
		}
		overrides.Headers[name] = value
	}
	if runCfg.UserAgent != "" {
		// --user_agent takes precedence over a User-Agent header in the config.
		if overrides.Headers == nil {
			overrides.Headers = make(map[string]string)
		}
		overrides.Headers["User-Agent"] = runCfg.UserAgent
	}
	if err := cfg.Override(overrides); err != nil {
		return fmt.Errorf("cannot apply flags: %v", err)
	}

	out := runCfg.Out
	if out == nil {
		out = os.Stdout
	}
	runner := &smoke.Runner{
		Client:         smoke.NewClient(cfg.VerifyTLS),
		Out:            out,
		ExpectedStatus: cfg.ExpectedStatus,
	}
	_, err = runner.Run(ctx, smoke.FromConfig(cfg))
	return err
}

// ServeCfg gives the configuration for the Serve function.
type ServeCfg struct {
	WorkingDir string
	ConfigPath string
	Addr       string
	Root       string
}

// Serve runs the fixture server until interrupted (Ctl-C).
func Serve(serveCfg *ServeCfg) error {
	cfg, err := readConfig(serveCfg.WorkingDir, serveCfg.ConfigPath)
	if err != nil {
		return err
	}

	addr := cfg.Fixture.Addr
	if serveCfg.Addr != "" {
		addr = serveCfg.Addr
	}
	root := cfg.Path(cfg.Fixture.Root)
	if serveCfg.Root != "" {
		root = serveCfg.Root
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalc := make(chan os.Signal, 1)
	signal.Notify(signalc, os.Interrupt)
	defer signal.Stop(signalc)
	go func() {
		select {
		case <-signalc:
			cfg.Logger().Info(logDomain, "shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return fixture.New(afero.NewOsFs(), root, cfg.Logger()).Serve(ctx, addr)
}

func parseHeader(h string) (name, value string, err error) {
	i := strings.Index(h, "=")
	if i <= 0 {
		return "", "", fmt.Errorf("invalid header '%s': expected name=value", h)
	}
	return strings.TrimSpace(h[:i]), strings.TrimSpace(h[i+1:]), nil
}

func readConfig(workingDir, configPath string) (*config.Config, error) {
	fullPath := filepath.Join(workingDir, configPath)
	return config.Read(fullPath)
}
