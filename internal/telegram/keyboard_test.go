package telegram

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtpicker/internal/model"
	"dtpicker/internal/picker"
)

var march15 = time.Date(2024, 3, 15, 14, 20, 0, 0, time.UTC)

type field struct{ id, value string }

func (f *field) ID() string        { return f.id }
func (f *field) SetValue(v string) { f.value = v }

type form map[string]*field

func (f form) Lookup(id string) (picker.Anchor, bool) {
	a, ok := f[id]
	if !ok {
		return nil, false
	}
	return a, true
}

func openPicker(t *testing.T, o model.Options) (*picker.Picker, *field) {
	t.Helper()
	f := &field{id: "when"}
	p := picker.New(form{"when": f}, "when", o,
		picker.WithClock(func() time.Time { return march15 }),
		picker.WithRegistry(picker.NewRegistry()),
	)
	require.NoError(t, p.Err())
	p.Open()
	return p, f
}

func data(b tgbotapi.InlineKeyboardButton) string {
	if b.CallbackData == nil {
		return ""
	}
	return *b.CallbackData
}

func findButton(kb tgbotapi.InlineKeyboardMarkup, text string) (tgbotapi.InlineKeyboardButton, bool) {
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.Text == text {
				return b, true
			}
		}
	}
	return tgbotapi.InlineKeyboardButton{}, false
}

func TestParseCallback(t *testing.T) {
	cases := []struct {
		in   string
		want Callback
	}{
		{"dp:day:2024-03-15", Callback{Kind: KindDay, Arg: "2024-03-15"}},
		{"dp:time:2:30 PM", Callback{Kind: KindTime, Arg: "2:30 PM"}},
		{"dp:nav:-1", Callback{Kind: KindNav, Arg: "-1", Delta: -1}},
		{"dp:nav:12", Callback{Kind: KindNav, Arg: "12", Delta: 12}},
		{"dp:today", Callback{Kind: KindToday}},
		{"dp:open", Callback{Kind: KindOpen}},
		{"dp:clear", Callback{Kind: KindClear}},
		{"dp:apply", Callback{Kind: KindApply}},
		{"dp:noop", Callback{Kind: KindNoop}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCallback(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"", "date:2024-03-15", "dp:", "dp:day", "dp:day:", "dp:nav:x", "dp:nav:0", "dp:apply:now", "dp:open:1", "dp:explode"} {
		_, err := ParseCallback(bad)
		assert.ErrorIs(t, err, ErrBadCallback, bad)
	}
}

func TestKeyboardBothMode(t *testing.T) {
	o := model.DefaultOptions()
	o.AllowPast = false
	p, _ := openPicker(t, o)
	kb := Keyboard(p.Snapshot())
	rows := kb.InlineKeyboard

	// nav + weekdays + 6 weeks + (1+2) morning + (1+3) afternoon + (1+2) evening + footer
	require.Len(t, rows, 19)

	require.Len(t, rows[0], 3)
	assert.Equal(t, "dp:nav:-1", data(rows[0][0]))
	assert.Equal(t, "Mar 2024", rows[0][1].Text)
	assert.Equal(t, "dp:noop", data(rows[0][1]))
	assert.Equal(t, "dp:nav:1", data(rows[0][2]))

	require.Len(t, rows[1], 7)
	assert.Equal(t, "S", rows[1][0].Text)

	first := rows[2]
	require.Len(t, first, 7)
	for i := 0; i < 5; i++ {
		assert.Equal(t, " ", first[i].Text)
	}
	assert.Equal(t, "·", first[5].Text, "past days are disabled")
	assert.Equal(t, "dp:noop", data(first[5]))

	sel, ok := findButton(kb, "[15]")
	require.True(t, ok)
	assert.Equal(t, "dp:day:2024-03-15", data(sel))
	tomorrow, ok := findButton(kb, "16")
	require.True(t, ok)
	assert.Equal(t, "dp:day:2024-03-16", data(tomorrow))

	past, ok := findButton(kb, "⛔ 8:00 AM")
	require.True(t, ok)
	assert.Equal(t, "dp:noop", data(past))
	chosen, ok := findButton(kb, "✅ 2:30 PM")
	require.True(t, ok)
	assert.Equal(t, "dp:time:2:30 PM", data(chosen))
	last, ok := findButton(kb, "8:00 PM")
	require.True(t, ok)
	assert.Equal(t, "dp:time:8:00 PM", data(last))

	footer := rows[len(rows)-1]
	require.Len(t, footer, 3)
	assert.Equal(t, []string{"dp:clear", "dp:today", "dp:apply"},
		[]string{data(footer[0]), data(footer[1]), data(footer[2])})
}

func TestKeyboardTimeOnlyWithoutShortcuts(t *testing.T) {
	o := model.DefaultOptions()
	o.Mode = model.TimeOnly
	o.ShowShortcuts = false
	p, _ := openPicker(t, o)
	kb := Keyboard(p.Snapshot())

	_, ok := findButton(kb, "Mar 2024")
	assert.False(t, ok)
	footer := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
	require.Len(t, footer, 1)
	assert.Equal(t, "dp:apply", data(footer[0]))

	// Past slots stay selectable by default.
	early, ok := findButton(kb, "8:00 AM")
	require.True(t, ok)
	assert.Equal(t, "dp:time:8:00 AM", data(early))
}

func TestRoute(t *testing.T) {
	o := model.DefaultOptions()
	o.AllowPast = false
	p, f := openPicker(t, o)

	closed, sel := Route(p, Callback{Kind: KindNav, Delta: 1})
	assert.False(t, closed)
	assert.Nil(t, sel)
	assert.Equal(t, time.April, p.View().Month)

	Route(p, Callback{Kind: KindDay, Arg: "2024-04-02"})
	Route(p, Callback{Kind: KindTime, Arg: "9:30 AM"})
	closed, sel = Route(p, Callback{Kind: KindApply})
	assert.True(t, closed)
	require.NotNil(t, sel)
	assert.Equal(t, "02/04/2024 9:30 AM", sel.Formatted)
	assert.Equal(t, "02/04/2024 9:30 AM", f.value)
	assert.False(t, p.IsActive())

	p.Open()
	closed, sel = Route(p, Callback{Kind: KindClear})
	assert.True(t, closed)
	assert.Nil(t, sel)
	assert.Empty(t, f.value)

	closed, sel = Route(p, Callback{Kind: KindOpen})
	assert.False(t, closed)
	assert.Nil(t, sel)
	assert.True(t, p.IsActive())
	assert.Equal(t, "02/04/2024 9:30 AM", p.Formatted())

	Route(p, Callback{Kind: KindToday})
	assert.Equal(t, time.March, p.View().Month)

	p.Destroy()
	closed, sel = Route(p, Callback{Kind: KindApply})
	assert.False(t, closed)
	assert.Nil(t, sel)
}

func TestReopenKeyboard(t *testing.T) {
	kb := ReopenKeyboard()
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 1)
	assert.Equal(t, "Reopen", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "dp:open", data(kb.InlineKeyboard[0][0]))
}

func TestTimeAvailable(t *testing.T) {
	o := model.DefaultOptions()
	o.AllowPast = false
	p, _ := openPicker(t, o)
	s := p.Snapshot()

	assert.True(t, timeAvailable(s, "6:00 PM"))
	assert.False(t, timeAvailable(s, "8:00 AM"), "past slot")
	assert.False(t, timeAvailable(s, "9:15 PM"), "not in catalog")

	o.Mode = model.DateOnly
	dateOnly, _ := openPicker(t, o)
	assert.False(t, timeAvailable(dateOnly.Snapshot(), "6:00 PM"))
}
