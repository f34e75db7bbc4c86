package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutDayCount(t *testing.T) {
	today := time.Date(2024, 3, 15, 14, 20, 0, 0, time.UTC)
	tests := []struct {
		view View
		want int
	}{
		{View{2024, time.February}, 29},
		{View{2023, time.February}, 28},
		{View{2000, time.February}, 29},
		{View{1900, time.February}, 28},
		{View{2024, time.April}, 30},
		{View{2024, time.December}, 31},
	}
	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			m := Layout(tt.view, LayoutOptions{Today: today, AllowPast: true})
			assert.Equal(t, tt.want, m.DayCount)
			assert.Len(t, m.Days, tt.want)
			assert.Equal(t, 1, m.Days[0].Number)
			assert.Equal(t, tt.want, m.Days[len(m.Days)-1].Number)
		})
	}
}

func TestLayoutLeadingBlanks(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 5, Layout(View{2024, time.March}, LayoutOptions{Today: today}).LeadingBlanks) // Friday
	assert.Equal(t, 4, Layout(View{2024, time.February}, LayoutOptions{Today: today}).LeadingBlanks)
	assert.Equal(t, 0, Layout(View{2024, time.September}, LayoutOptions{Today: today}).LeadingBlanks) // Sunday
	assert.Equal(t, 6, Layout(View{2025, time.March}, LayoutOptions{Today: today}).LeadingBlanks)
}

func TestLayoutFlags(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 20, 0, 0, time.UTC)
	selected := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	m := Layout(View{2024, time.March}, LayoutOptions{Today: now, Selected: selected, AllowPast: false})

	d14, d15, d20 := m.Days[13], m.Days[14], m.Days[19]
	assert.True(t, d14.IsDisabled)
	assert.False(t, d14.IsToday)
	assert.False(t, d15.IsDisabled, "today stays selectable even after midnight has passed")
	assert.True(t, d15.IsToday)
	assert.True(t, d20.IsSelected)
	assert.False(t, d15.IsSelected)
	assert.Equal(t, "2024-03-20", d20.Key)
	assert.Equal(t, "Select 20/03/2024", d20.AriaLabel)

	open := Layout(View{2024, time.March}, LayoutOptions{Today: now, AllowPast: true})
	for _, d := range open.Days {
		assert.False(t, d.IsDisabled, d.Key)
	}
}

func TestLayoutDisablesEarlierMonths(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	feb := Layout(View{2024, time.February}, LayoutOptions{Today: now})
	for _, d := range feb.Days {
		assert.True(t, d.IsDisabled, d.Key)
	}
	apr := Layout(View{2024, time.April}, LayoutOptions{Today: now})
	for _, d := range apr.Days {
		assert.False(t, d.IsDisabled, d.Key)
	}
}

func TestViewNavigation(t *testing.T) {
	v := View{2024, time.March}
	assert.Equal(t, View{2024, time.April}, v.Add(1))
	assert.Equal(t, View{2024, time.February}, v.Add(-1))
	assert.Equal(t, View{2023, time.December}, View{2024, time.January}.Add(-1))
	assert.Equal(t, View{2025, time.January}, View{2024, time.December}.Add(1))

	cur := v
	for i := 0; i < 12; i++ {
		cur = cur.Add(1)
	}
	assert.Equal(t, View{2025, time.March}, cur)

	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 6, Layout(cur, LayoutOptions{Today: today}).LeadingBlanks)
}

func TestViewSetters(t *testing.T) {
	v := View{2024, time.March}
	assert.Equal(t, View{2024, time.October}, v.WithMonth(time.October))
	assert.Equal(t, View{1999, time.March}, v.WithYear(1999))
	assert.Equal(t, View{2025, time.January}, v.WithMonth(13))
}

func TestParseKey(t *testing.T) {
	d, err := ParseKey("2024-02-29", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	for _, bad := range []string{"2023-02-29", "2024-04-31", "2024-3-1", "", "tomorrow"} {
		_, err := ParseKey(bad, time.UTC)
		assert.ErrorIs(t, err, ErrBadKey, bad)
	}
}

func TestWeeks(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	m := Layout(View{2024, time.March}, LayoutOptions{Today: today})
	weeks := m.Weeks()

	require.Len(t, weeks, 6)
	for i := 0; i < 5; i++ {
		assert.Nil(t, weeks[0][i])
	}
	require.NotNil(t, weeks[0][5])
	assert.Equal(t, 1, weeks[0][5].Number)
	assert.Equal(t, 31, weeks[5][0].Number)
	assert.Nil(t, weeks[5][1])
}

func TestYearRange(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	past := YearRange(today, true)
	assert.Equal(t, 1944, past[0])
	assert.Equal(t, 2044, past[len(past)-1])

	future := YearRange(today, false)
	assert.Equal(t, 2024, future[0])
	assert.Len(t, future, 21)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05/01/2024", FormatDate(time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC)))
}
