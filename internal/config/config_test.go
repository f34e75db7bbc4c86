package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtpicker/internal/model"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Pickers, again.Pickers)
	assert.Equal(t, 30*time.Minute, again.SessionTTL.Std())
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
log_level: verbose
pickers:
  - anchor: when
    pick_time_only: true
    default_time: "9:30 am"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, defaultSweep, cfg.SweepSchedule)
	assert.Equal(t, defaultSessionTTL, cfg.SessionTTL)
	require.Len(t, cfg.Pickers, 1)
	assert.Equal(t, model.TimeOnly, cfg.Pickers[0].Options().Mode)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad slot": `
pickers:
  - anchor: a
    default_time: "25:00 PM"
`,
		"missing anchor": `
pickers:
  - label: nameless
`,
		"duplicate anchor": `
pickers:
  - anchor: a
  - anchor: a
`,
		"telegram without token": `
telegram:
  enabled: true
`,
		"bad listen": `
listen: "not an address"
`,
		"bad ttl": `
session_ttl: soon
`,
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestPickerOptions(t *testing.T) {
	no := false

	o := PickerConfig{Anchor: "a"}.Options()
	assert.Equal(t, model.DefaultOptions(), o)

	o = PickerConfig{
		Anchor:        "a",
		PickDateOnly:  true,
		PickTimeOnly:  true,
		AllowPast:     &no,
		ShowShortcuts: &no,
		DefaultTime:   "8:00 AM",
	}.Options()
	assert.Equal(t, model.TimeOnly, o.Mode)
	assert.False(t, o.AllowPast)
	assert.False(t, o.ShowShortcuts)
	assert.Equal(t, "8:00 AM", o.DefaultTime)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9000"
	cfg.SessionTTL = Duration(5 * time.Minute)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	p, ok := got.Picker("birthday")
	require.True(t, ok)
	assert.Equal(t, model.DateOnly, p.Options().Mode)
	_, ok = got.Picker("nope")
	assert.False(t, ok)
}

func TestSaveErrors(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
	_, err := Load("")
	assert.Error(t, err)

	dir := t.TempDir()
	_, err = Load(dir)
	assert.ErrorContains(t, err, "config: read "+dir)

	garbled := filepath.Join(dir, "garbled.yaml")
	require.NoError(t, os.WriteFile(garbled, []byte("pickers: [\n"), 0o600))
	_, err = Load(garbled)
	assert.ErrorContains(t, err, "config: parse "+garbled)

	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	err = Save(filepath.Join(blocker, "c.yaml"), DefaultConfig())
	assert.ErrorContains(t, err, "config: create dir")
}
