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

// Package policy gates RUN directive commands against allow/block regex
// patterns. Block patterns are always enforced; in allowlist mode a
// command must additionally match an allow pattern. This is advisory
// pattern filtering, not a security sandbox.
package policy

import (
	"fmt"
	"regexp"

	"gitlab.com/tozd/go/errors"
)

// Modes for the checker.
const (
	ModeBlocklist = "blocklist"
	ModeAllowlist = "allowlist"
)

// 🔌 Checker is the opaque gate the engine consults before running a
// command.
type Checker interface {
	// Check reports whether command may run, with a human-readable reason.
	Check(command string) (allowed bool, reason string)
}

// 🔧 Config declares the pattern policy. Patterns are regular expressions
// matched against the start of the command line.
type Config struct {
	Mode            string   `json:"mode,omitempty" yaml:"mode,omitempty" hcl:"mode,optional"`
	DefaultTimeout  int      `json:"default_timeout,omitempty" yaml:"default_timeout,omitempty" hcl:"default_timeout,optional"`
	MaxTimeout      int      `json:"max_timeout,omitempty" yaml:"max_timeout,omitempty" hcl:"max_timeout,optional"`
	AllowedPatterns []string `json:"allowed_patterns,omitempty" yaml:"allowed_patterns,omitempty" hcl:"allowed_patterns,optional"`
	BlockedPatterns []string `json:"blocked_patterns,omitempty" yaml:"blocked_patterns,omitempty" hcl:"blocked_patterns,optional"`
}

// defaultAllowedPatterns cover common read-only and build commands.
var defaultAllowedPatterns = []string{
	`git\s+(status|log|diff|branch|checkout|pull|fetch|add|commit|push|clone|stash).*`,
	`npm\s+(install|test|run|start|build|list|ci).*`,
	`yarn\s+(install|test|run|start|build|list).*`,
	`pip\s+(install|list|show|freeze).*`,
	`cargo\s+(build|test|check|run|clippy).*`,
	`go\s+(build|test|vet|run|mod).*`,
	`make\s+(build|test|clean)$`,
	`ls\s+.*`,
	`cat\s+.*`,
	`grep\s+.*`,
	`find\s+.*`,
	`tree\s+.*`,
	`head\s+.*`,
	`tail\s+.*`,
	`wc\s+.*`,
	`pwd$`,
	`whoami$`,
	`date$`,
	`which\s+.*`,
	`echo\s+.*`,
	`env$`,
}

// defaultBlockedPatterns are enforced regardless of mode.
var defaultBlockedPatterns = []string{
	`.*rm\s+-rf.*`,
	`.*rm\s+-fr.*`,
	`.*rm\s+.*\*.*`,
	`.*rmdir.*`,
	`dd\s+.*`,
	`.*\|\s*dd\s+.*`,
	`.*mkfs.*`,
	`.*sudo.*`,
	`.*su\s+.*`,
	`.*doas.*`,
	`chmod.*777.*`,
	`chown\s+.*`,
	`shutdown.*`,
	`reboot$`,
	`halt$`,
	`.*curl.*\|.*sh.*`,
	`.*wget.*\|.*sh.*`,
	`.*>\s*/dev/sd.*`,
	`eval\s+.*`,
	`exec\s+.*`,
	`.*;\s*exec\s+.*`,
	`.*\|\s*exec\s+.*`,
	`kill\s+-9.*`,
	`killall\s+.*`,
	`pkill\s+.*`,
	`.*>\s*/etc/.*`,
	`.*>\s*/usr/bin/.*`,
	`.*>\s*/var/.*`,
	`.*>\s*/sys/.*`,
	`.*>\s*/proc/.*`,
}

// DefaultConfig returns the built-in blocklist-mode policy with a 30s
// default timeout capped at 300s.
func DefaultConfig() Config {
	return Config{
		Mode:            ModeBlocklist,
		DefaultTimeout:  30,
		MaxTimeout:      300,
		AllowedPatterns: append([]string(nil), defaultAllowedPatterns...),
		BlockedPatterns: append([]string(nil), defaultBlockedPatterns...),
	}
}

// 🛡️ PatternChecker implements Checker over compiled patterns.
type PatternChecker struct {
	mode    string
	allowed []*regexp.Regexp
	blocked []*regexp.Regexp
}

// NewChecker compiles the config's patterns. An invalid pattern is a
// configuration error, surfaced before any directive runs.
func NewChecker(cfg Config) (*PatternChecker, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeBlocklist
	}
	if mode != ModeBlocklist && mode != ModeAllowlist {
		return nil, errors.Errorf("unknown policy mode %q", mode)
	}

	allowed, err := compileAll(cfg.AllowedPatterns)
	if err != nil {
		return nil, errors.Errorf("compiling allowed patterns: %w", err)
	}
	blocked, err := compileAll(cfg.BlockedPatterns)
	if err != nil {
		return nil, errors.Errorf("compiling blocked patterns: %w", err)
	}

	return &PatternChecker{mode: mode, allowed: allowed, blocked: blocked}, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		// Patterns match from the start of the command line.
		re, err := regexp.Compile(`^(?:` + pattern + `)`)
		if err != nil {
			return nil, errors.Errorf("pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Check implements Checker. Blocked patterns win over everything; in
// allowlist mode an unmatched command is denied.
func (c *PatternChecker) Check(command string) (bool, string) {
	for _, re := range c.blocked {
		if re.MatchString(command) {
			return false, fmt.Sprintf("command matches blocked pattern: %s", re.String())
		}
	}

	if c.mode == ModeAllowlist {
		for _, re := range c.allowed {
			if re.MatchString(command) {
				return true, "command matches allowed pattern"
			}
		}
		return false, "command does not match any allowed pattern"
	}

	return true, "command is allowed in blocklist mode"
}
