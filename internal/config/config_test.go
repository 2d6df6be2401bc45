package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/pipeline-editor/internal/config"
	"github.com/askiada/pipeline-editor/pkg/editor/drawer"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pipeline-editor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "human", cfg.LogFormat)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "stderr", cfg.Output)
	assert.Equal(t, view.DefaultLayout(), cfg.Editor.Layout)
	assert.Equal(t, drawer.DefaultPalette(), cfg.Render.Palette)
	assert.InDelta(t, 3, cfg.Editor.DragThreshold, 1e-9)
	assert.InDelta(t, 6, cfg.Editor.HitTolerance, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 2, cfg.Backend.Retries)
	assert.Empty(t, cfg.Backend.URL)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
debug: true
log_format: json
backend:
  url: http://pipelines.local
  timeout: 3s
editor:
  drag_threshold: 5
  layout:
    step_width: 220
render:
  scale: 2
  palette:
    background: "#000000"
`)

	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "http://pipelines.local", cfg.Backend.URL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.InDelta(t, 5, cfg.Editor.DragThreshold, 1e-9)
	assert.InDelta(t, 220, cfg.Editor.Layout.StepWidth, 1e-9)
	assert.InDelta(t, 100, cfg.Editor.Layout.StepHeight, 1e-9)
	assert.InDelta(t, 2, cfg.Render.Scale, 1e-9)
	assert.Equal(t, "#000000", cfg.Render.Palette.Background)
	assert.Equal(t, drawer.DefaultPalette().Text, cfg.Render.Palette.Text)
}

//nolint:paralleltest
func TestLoadEnv(t *testing.T) {
	t.Setenv("PIPELINE_EDITOR_BACKEND_URL", "http://env.local")
	t.Setenv("PIPELINE_EDITOR_EDITOR_LAYOUT_PADDING", "9")

	cfg, err := config.Load(viper.New(), writeFile(t, "backend:\n  url: http://file.local\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://env.local", cfg.Backend.URL)
	assert.InDelta(t, 9, cfg.Editor.Layout.Padding, 1e-9)
}

func TestLoadFlagOverride(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("log_format", "json")

	cfg, err := config.Load(v, writeFile(t, "log_format: human\n"))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content  string
		expected error
	}{
		"negative threshold": {
			content:  "editor:\n  drag_threshold: -1\n",
			expected: config.ErrInvalidConfig,
		},
		"zero width": {
			content:  "editor:\n  layout:\n    step_width: 0\n",
			expected: config.ErrInvalidConfig,
		},
		"zero scale": {
			content:  "render:\n  scale: 0\n",
			expected: config.ErrInvalidConfig,
		},
		"bad colour": {
			content:  "render:\n  palette:\n    text: blue\n",
			expected: drawer.ErrInvalidColour,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(viper.New(), writeFile(t, tc.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
