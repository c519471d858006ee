package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "slides", cfg.Slides.Dir)
	assert.Equal(t, "index.html", cfg.Slides.Entry)
	assert.Equal(t, "base.html", cfg.Template.Path)
	assert.Equal(t, "index.html", cfg.Output.Path)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, ".", cfg.Server.Root)
	assert.Equal(t, time.Second, cfg.Development.PollInterval)
	assert.False(t, cfg.Development.Watch)
	assert.False(t, cfg.Development.LiveReload)
	assert.False(t, cfg.Development.PushReload)
}

func TestLoadOverrides(t *testing.T) {
	resetViper(t)
	viper.Set("slides.dir", "deck")
	viper.Set("server.port", 9000)
	viper.Set("development.watch", true)
	viper.Set("development.poll_interval", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "deck", cfg.Slides.Dir)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Development.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.Development.PollInterval)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	resetViper(t)
	viper.Set("server.port", 70000)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsDirectoryTraversal(t *testing.T) {
	resetViper(t)
	viper.Set("slides.dir", "../outside")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsEmptyPaths(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 8085
	cfg.Slides.Dir = "slides"
	cfg.Template.Path = "base.html"
	cfg.Output.Path = "index.html"
	cfg.Server.Root = ""

	assert.Error(t, cfg.Validate())
}
