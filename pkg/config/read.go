// SPDX-License-Identifier: MIT
// Copyright (c) 2019 Hadrien Chauvin
package config

import (
	"bytes"
	"fmt"
	"github.com/Masterminds/sprig"
	"github.com/go-playground/validator"
	"github.com/hchauvin/smoke/pkg/templates"
	"github.com/pelletier/go-toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
	"path/filepath"
	"text/template"
)

// Read reads the project-wide configuration.
func Read(path string) (*Config, error) {
	return ReadFs(afero.NewOsFs(), path)
}

// ReadFs does the same as Read but on an arbitrary afero file system.
// A missing config file is not an error: the default configuration
// is returned instead.  Files with a ".yml" or ".yaml" extension
// are decoded as YAML, all the others as TOML.
func ReadFs(fs afero.Fs, path string) (*Config, error) {
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not stat config file '%s': %v", path, err)
	}
	if !exists {
		cfg := Default()
		cfg.WorkspaceDir = root
		return cfg, nil
	}

	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file '%s': %v", path, err)
	}

	tpl, err := template.New("config").
		Funcs(sprig.TxtFuncMap()).
		Funcs(templates.TxtFuncMap()).
		Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("cannot parse template: %v", err)
	}
	data := map[string]interface{}{
		"Root": root,
	}
	w := &bytes.Buffer{}
	if err := tpl.Execute(w, data); err != nil {
		return nil, fmt.Errorf("cannot expand template: %v", err)
	}

	cfg := &Config{}
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		err = yaml.UnmarshalStrict(w.Bytes(), cfg)
	default:
		err = toml.Unmarshal(w.Bytes(), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %v", err)
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, fmt.Errorf("cannot set config defaults: %v", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}

	cfg.WorkspaceDir = root

	return cfg, nil
}
