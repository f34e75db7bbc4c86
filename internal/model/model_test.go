package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveMode(t *testing.T) {
	tests := []struct {
		name  string
		flags ModeFlags
		want  Mode
	}{
		{"nothing set", ModeFlags{}, DateTimeBoth},
		{"both only", ModeFlags{PickDateTimeBoth: true}, DateTimeBoth},
		{"date only", ModeFlags{PickDateOnly: true}, DateOnly},
		{"time only", ModeFlags{PickTimeOnly: true}, TimeOnly},
		{"time beats date", ModeFlags{PickTimeOnly: true, PickDateOnly: true}, TimeOnly},
		{"date beats both", ModeFlags{PickDateOnly: true, PickDateTimeBoth: true}, DateOnly},
		{"all set", ModeFlags{true, true, true}, TimeOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveMode(tt.flags))
		})
	}
}

func TestModeParts(t *testing.T) {
	assert.True(t, DateTimeBoth.HasDate())
	assert.True(t, DateTimeBoth.HasTime())
	assert.True(t, DateOnly.HasDate())
	assert.False(t, DateOnly.HasTime())
	assert.False(t, TimeOnly.HasDate())
	assert.True(t, TimeOnly.HasTime())
	assert.Equal(t, "time", TimeOnly.String())
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, DateTimeBoth, o.Mode)
	assert.True(t, o.AllowPast)
	assert.True(t, o.ShowShortcuts)
	assert.Equal(t, "07:00 PM", o.DefaultTime)
}
