package model

// Mode is the kind of value a picker collects.
type Mode int

const (
	DateTimeBoth Mode = iota
	DateOnly
	TimeOnly
)

// DefaultTime is the slot label preselected when nothing else is configured.
const DefaultTime = "07:00 PM"

func (m Mode) String() string {
	switch m {
	case DateOnly:
		return "date"
	case TimeOnly:
		return "time"
	default:
		return "both"
	}
}

// HasDate reports whether the calendar is part of this mode.
func (m Mode) HasDate() bool { return m != TimeOnly }

// HasTime reports whether the time grid is part of this mode.
func (m Mode) HasTime() bool { return m != DateOnly }

// ModeFlags are the raw mode switches as they appear in configuration.
// More than one may be set; DeriveMode resolves them.
type ModeFlags struct {
	PickTimeOnly     bool
	PickDateOnly     bool
	PickDateTimeBoth bool
}

// DeriveMode resolves flags by priority:
// TimeOnly > DateOnly > DateTimeBoth > default DateTimeBoth.
func DeriveMode(f ModeFlags) Mode {
	switch {
	case f.PickTimeOnly:
		return TimeOnly
	case f.PickDateOnly:
		return DateOnly
	default:
		return DateTimeBoth
	}
}

// Options is the immutable configuration record of one picker instance.
type Options struct {
	Mode Mode

	// AllowPast keeps days before today and slots before now selectable.
	AllowPast bool

	// DefaultTime is the slot label selected before any user action.
	// Empty means no preselection.
	DefaultTime string

	// ShowShortcuts toggles the Clear/Today header shortcuts in renderers.
	ShowShortcuts bool
}

// DefaultOptions returns the configuration a picker gets when nothing is set.
func DefaultOptions() Options {
	return Options{
		Mode:          DateTimeBoth,
		AllowPast:     true,
		DefaultTime:   DefaultTime,
		ShowShortcuts: true,
	}
}
