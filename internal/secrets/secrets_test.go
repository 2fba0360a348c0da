// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "llm-api-key", "  sk_abc123  \n")
				writeFile(t, dir, "tavily-api-key", "tvly_xyz789")
				writeFile(t, dir, "basic-auth-password", "hunter2\n")
				return dir
			},
			want: map[string]string{
				"llm-api-key":         "sk_abc123",
				"tavily-api-key":      "tvly_xyz789",
				"basic-auth-password": "hunter2",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "llm-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"llm-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "tavily-api-key", "tvly_real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"tavily-api-key": "tvly_real",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	loaded := map[string]string{"llm-api-key": "from-secret"}

	assert.Equal(t, "from-flag", Resolve(loaded, "llm-api-key", "from-flag", "from-config"))
	assert.Equal(t, "from-secret", Resolve(loaded, "llm-api-key", "", "from-config"))
	assert.Equal(t, "from-config", Resolve(loaded, "missing-key", "", "from-config"))
	assert.Equal(t, "", Resolve(nil, "missing-key", "", ""))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
