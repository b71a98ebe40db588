// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the kifdiff run configuration: the backup root and
// the RUN command policy. Both YAML (.kifdiff.yaml) and HCL (.kifdiff.hcl)
// files are supported through a small parser registry.
package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/walteh/kifdiff/pkg/policy"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers.
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config is the complete run configuration.
type Config struct {
	BackupDir  string         `json:"backup_dir,omitempty" yaml:"backup_dir,omitempty" hcl:"backup_dir,optional"`
	ReportFile string         `json:"report_file,omitempty" yaml:"report_file,omitempty" hcl:"report_file,optional"`
	Command    *policy.Config `json:"command,omitempty" yaml:"command,omitempty" hcl:"command,block"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cmd := policy.DefaultConfig()
	return &Config{
		BackupDir: ".kif_backups",
		Command:   &cmd,
	}
}

// 🎯 Load reads the configuration from path, falling back to defaults when
// the file does not exist.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("path", path).Msg("no config file, using defaults")
			return Default(), nil
		}
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate fills defaults and checks the configuration is usable.
func (cfg *Config) Validate() error {
	if cfg.BackupDir == "" {
		cfg.BackupDir = ".kif_backups"
	}

	if cfg.Command == nil {
		cmd := policy.DefaultConfig()
		cfg.Command = &cmd
	}
	defaults := policy.DefaultConfig()
	if cfg.Command.Mode == "" {
		cfg.Command.Mode = defaults.Mode
	}
	if cfg.Command.DefaultTimeout <= 0 {
		cfg.Command.DefaultTimeout = defaults.DefaultTimeout
	}
	if cfg.Command.MaxTimeout <= 0 {
		cfg.Command.MaxTimeout = defaults.MaxTimeout
	}
	// User block patterns extend the built-in set; the defaults are always
	// enforced.
	cfg.Command.BlockedPatterns = append(append([]string(nil), defaults.BlockedPatterns...), cfg.Command.BlockedPatterns...)
	if len(cfg.Command.AllowedPatterns) == 0 {
		cfg.Command.AllowedPatterns = defaults.AllowedPatterns
	}

	// A pattern that does not compile should fail here, before any
	// directive executes.
	if _, err := policy.NewChecker(*cfg.Command); err != nil {
		return errors.Errorf("command policy: %w", err)
	}
	return nil
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg Config
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &cfg, nil
}
