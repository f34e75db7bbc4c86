package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dtpicker/internal/calendar"
	"dtpicker/internal/picker"
)

const callbackPrefix = "dp:"

// Callback kinds carried in inline button data.
const (
	KindDay   = "day"
	KindTime  = "time"
	KindNav   = "nav"
	KindToday = "today"
	KindOpen  = "open"
	KindClear = "clear"
	KindApply = "apply"
	KindNoop  = "noop"
)

// chipsPerRow keeps time rows narrow enough for phone screens.
const chipsPerRow = 4

var ErrBadCallback = errors.New("telegram: bad callback data")

// Callback is a parsed button press.
type Callback struct {
	Kind  string
	Arg   string
	Delta int
}

// ParseCallback decodes "dp:<kind>[:<arg>]". Time labels contain colons, so
// everything after the kind is the argument.
func ParseCallback(data string) (Callback, error) {
	rest, ok := strings.CutPrefix(data, callbackPrefix)
	if !ok {
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	kind, arg, _ := strings.Cut(rest, ":")
	cb := Callback{Kind: kind, Arg: arg}

	switch kind {
	case KindDay, KindTime:
		if arg == "" {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
	case KindNav:
		n, err := strconv.Atoi(arg)
		if err != nil || n == 0 {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		cb.Delta = n
	case KindToday, KindOpen, KindClear, KindApply, KindNoop:
		if arg != "" {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
	default:
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	return cb, nil
}

func callbackData(kind, arg string) string {
	if arg == "" {
		return callbackPrefix + kind
	}
	return callbackPrefix + kind + ":" + arg
}

func noop(text string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, callbackData(KindNoop, ""))
}

// Keyboard renders the picker's current calendar/time grid as an inline
// keyboard. Disabled cells are shown but route to noop.
func Keyboard(s picker.Snapshot) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	mode := s.Options.Mode

	if mode.HasDate() && s.Calendar != nil {
		rows = append(rows, calendarRows(*s.Calendar)...)
	}
	if mode.HasTime() && s.TimeGrid != nil {
		rows = append(rows, timeRows(*s.TimeGrid)...)
	}

	var footer []tgbotapi.InlineKeyboardButton
	if s.Options.ShowShortcuts {
		footer = append(footer, tgbotapi.NewInlineKeyboardButtonData("Clear", callbackData(KindClear, "")))
		if mode.HasDate() {
			footer = append(footer, tgbotapi.NewInlineKeyboardButtonData("Today", callbackData(KindToday, "")))
		}
	}
	footer = append(footer, tgbotapi.NewInlineKeyboardButtonData("Apply", callbackData(KindApply, "")))
	rows = append(rows, footer)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ReopenKeyboard is shown after Clear: the picker stays alive and one
// button brings the popover back with the previous selection.
func ReopenKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Reopen", callbackData(KindOpen, "")),
	))
}

// timeAvailable reports whether label is an enabled chip on the grid the
// keyboard was last built from.
func timeAvailable(s picker.Snapshot, label string) bool {
	if s.TimeGrid == nil {
		return false
	}
	c, ok := s.TimeGrid.Chip(label)
	return ok && !c.Disabled
}

func calendarRows(v picker.CalendarView) [][]tgbotapi.InlineKeyboardButton {
	view := v.Month.View
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("‹", callbackData(KindNav, "-1")),
			noop(fmt.Sprintf("%s %d", calendar.MonthNames[view.Month-1], view.Year)),
			tgbotapi.NewInlineKeyboardButtonData("›", callbackData(KindNav, "1")),
		),
	}

	header := make([]tgbotapi.InlineKeyboardButton, 0, len(calendar.Weekdays))
	for _, wd := range calendar.Weekdays {
		header = append(header, noop(wd))
	}
	rows = append(rows, header)

	for _, week := range v.Month.Weeks() {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(week))
		for _, d := range week {
			switch {
			case d == nil:
				row = append(row, noop(" "))
			case d.IsDisabled:
				row = append(row, noop("·"))
			default:
				label := strconv.Itoa(d.Number)
				if d.IsSelected {
					label = "[" + label + "]"
				}
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, callbackData(KindDay, d.Key)))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func timeRows(g picker.TimeGrid) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sec := range g.Sections {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(noop(sec.Label)))

		var row []tgbotapi.InlineKeyboardButton
		for _, c := range sec.Chips {
			var btn tgbotapi.InlineKeyboardButton
			switch {
			case c.Disabled:
				btn = noop("⛔ " + c.Label)
			case c.Selected:
				btn = tgbotapi.NewInlineKeyboardButtonData("✅ "+c.Label, callbackData(KindTime, c.Label))
			default:
				btn = tgbotapi.NewInlineKeyboardButtonData(c.Label, callbackData(KindTime, c.Label))
			}
			row = append(row, btn)
			if len(row) == chipsPerRow {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// Route applies cb to p. It reports whether the interaction ended the
// picker's open state (apply or clear) and the applied selection, if any.
func Route(p *picker.Picker, cb Callback) (closed bool, sel *picker.Selection) {
	switch cb.Kind {
	case KindDay:
		p.SelectDay(cb.Arg)
	case KindTime:
		p.SelectTime(cb.Arg)
	case KindNav:
		p.NavigateMonth(cb.Delta)
	case KindToday:
		p.Today()
	case KindOpen:
		p.Open()
	case KindClear:
		p.Clear()
		return true, nil
	case KindApply:
		s, ok := p.Apply()
		if !ok {
			return false, nil
		}
		return true, &s
	}
	return false, nil
}
