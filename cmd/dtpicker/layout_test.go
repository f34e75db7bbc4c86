package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtpicker/internal/calendar"
	"dtpicker/internal/timeslot"
)

func TestPrintMonth(t *testing.T) {
	today := time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)
	m := calendar.Layout(calendar.ViewOf(today), calendar.LayoutOptions{Today: today})

	var buf bytes.Buffer
	printMonth(&buf, m)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 7)
	assert.Equal(t, "February 2024", strings.TrimSpace(lines[0]))
	assert.Equal(t, "  S   M   T   W   T   F   S", lines[1])
	// February 2024 starts on a Thursday.
	assert.Equal(t, "                  1-  2-  3-", lines[2])
	assert.Contains(t, lines[4], " 13- 14*")
	assert.Equal(t, " 25  26  27  28  29", lines[6])
	// The last digit sits under the weekday letter and the mark after it.
	w := strings.Index(lines[1], "W")
	assert.Equal(t, w, strings.Index(lines[4], "14")+1)
	assert.Equal(t, w+1, strings.Index(lines[4], "*"))
}

func TestPrintMonthAllowPast(t *testing.T) {
	today := time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)
	m := calendar.Layout(calendar.ViewOf(today), calendar.LayoutOptions{Today: today, AllowPast: true})

	var buf bytes.Buffer
	printMonth(&buf, m)
	assert.NotContains(t, buf.String(), "-")
}

func TestPrintTimes(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 10, 0, 0, time.UTC)

	var buf bytes.Buffer
	printTimes(&buf, timeslot.BuildCatalog(), now, false)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "Morning:   8:00 AM-, 8:30 AM-, 9:00 AM-, 9:30 AM, 10:00 AM, 10:30 AM, 11:00 AM, 11:30 AM", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "Evening:   6:00 PM, "))
	assert.True(t, strings.HasSuffix(lines[2], "8:00 PM"))
}

func TestLayoutCommand(t *testing.T) {
	cmd := newLayoutCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--today", "2024-03-15", "--month", "4", "--times"})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "April 2024")
	assert.Contains(t, out, "Afternoon:")

	cmd = newLayoutCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--month", "13"})
	assert.Error(t, cmd.Execute())
}
