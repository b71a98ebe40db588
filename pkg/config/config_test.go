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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/kifdiff/pkg/policy"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("missing_file_uses_defaults", func(t *testing.T) {
		cfg, err := Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, ".kif_backups", cfg.BackupDir)
		require.NotNil(t, cfg.Command)
		assert.Equal(t, policy.ModeBlocklist, cfg.Command.Mode)
		assert.Equal(t, 30, cfg.Command.DefaultTimeout)
	})

	t.Run("yaml_config", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", `
backup_dir: /tmp/my-backups
report_file: out/report.txt
command:
  mode: allowlist
  default_timeout: 10
  allowed_patterns:
    - 'make\s+.*'
`)
		cfg, err := Load(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/my-backups", cfg.BackupDir)
		assert.Equal(t, "out/report.txt", cfg.ReportFile)
		assert.Equal(t, policy.ModeAllowlist, cfg.Command.Mode)
		assert.Equal(t, 10, cfg.Command.DefaultTimeout)
		assert.Equal(t, 300, cfg.Command.MaxTimeout, "unset max timeout falls back to default")
		assert.Contains(t, cfg.Command.AllowedPatterns, `make\s+.*`)
	})

	t.Run("hcl_config", func(t *testing.T) {
		path := writeConfig(t, "config.hcl", `
backup_dir = "/tmp/hcl-backups"

command {
  mode            = "blocklist"
  default_timeout = 15
}
`)
		cfg, err := Load(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/hcl-backups", cfg.BackupDir)
		assert.Equal(t, 15, cfg.Command.DefaultTimeout)
	})

	t.Run("user_block_patterns_extend_defaults", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", `
command:
  blocked_patterns:
    - 'terraform\s+destroy.*'
`)
		cfg, err := Load(ctx, path)
		require.NoError(t, err)

		checker, err := policy.NewChecker(*cfg.Command)
		require.NoError(t, err)

		allowed, _ := checker.Check("terraform destroy -auto-approve")
		assert.False(t, allowed, "user pattern must be enforced")
		allowed, _ = checker.Check("sudo reboot")
		assert.False(t, allowed, "built-in patterns must still be enforced")
	})

	t.Run("unknown_yaml_field_is_an_error", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", "backup_dirr: typo\n")
		_, err := Load(ctx, path)
		require.Error(t, err)
	})

	t.Run("invalid_policy_pattern_is_an_error", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", `
command:
  blocked_patterns:
    - '(['
`)
		_, err := Load(ctx, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "command policy")
	})

	t.Run("unsupported_extension_is_an_error", func(t *testing.T) {
		path := writeConfig(t, "config.toml", "backup_dir = 'x'\n")
		_, err := Load(ctx, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no parser found")
	})
}
