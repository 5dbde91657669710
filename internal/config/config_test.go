// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Config
		wantErr string
	}{
		{
			name: "empty file keeps defaults",
			raw:  "",
			want: Defaults(),
		},
		{
			name: "overrides",
			raw: `producer: FieldKit
strict: true
database: /var/lib/oralgen/sessions.db
concurrency: 8
log:
  level: DEBUG
  format: console
`,
			want: Config{
				Producer:    "FieldKit",
				Strict:      true,
				Database:    "/var/lib/oralgen/sessions.db",
				Concurrency: 8,
				Log:         Logging{Level: "debug", Format: "console"},
			},
		},
		{
			name: "partial log section",
			raw:  "log:\n  level: warn\n",
			want: Config{
				Producer:    "OralGen",
				Database:    "oralgen.db",
				Concurrency: 4,
				Log:         Logging{Level: "warn", Format: "json"},
			},
		},
		{
			name:    "unknown key",
			raw:     "producr: FieldKit\n",
			wantErr: "parse config",
		},
		{
			name:    "bad values are all reported",
			raw:     "concurrency: -1\nlog:\n  level: loud\n  format: xml\n",
			wantErr: "concurrency must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.raw))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Concurrency = 0
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
	assert.Contains(t, err.Error(), `unknown log level "loud"`)
	assert.Contains(t, err.Error(), `unknown log format "xml"`)

	assert.NoError(t, Defaults().Validate())
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	path := filepath.Join(t.TempDir(), "oralgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("producer: Arquivo\n"), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Arquivo", cfg.Producer)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestMerge_StrictOnlySwitchesOn(t *testing.T) {
	base := Defaults()
	base.Strict = true
	assert.True(t, Merge(base, Config{}).Strict)
}
