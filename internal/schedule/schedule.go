// Package schedule implements the opening-hours and holiday calendar that
// governs which local instants count as "open" for the monitored facility.
// Weekends and public holidays use the weekend hours.
package schedule

import "time"

// Hours is an open/close hour pair for a class of days.
type Hours struct {
	OpenHour  int `json:"open_hour" mapstructure:"open_hour"`
	CloseHour int `json:"close_hour" mapstructure:"close_hour"`
}

// Schedule answers open/closed questions for local instants and provides the
// per-date open and close hours. All date reasoning is done on the local
// calendar day in the schedule's location.
type Schedule struct {
	weekday Hours
	weekend Hours
	loc     *time.Location
}

// New creates a Schedule with the given weekday and weekend/holiday hours.
// A nil location defaults to time.Local.
func New(weekday, weekend Hours, loc *time.Location) *Schedule {
	if loc == nil {
		loc = time.Local
	}
	return &Schedule{weekday: weekday, weekend: weekend, loc: loc}
}

// Default returns the standard schedule: weekdays 6-23, weekends and
// holidays 9-21, in the local timezone.
func Default() *Schedule {
	return New(Hours{OpenHour: 6, CloseHour: 23}, Hours{OpenHour: 9, CloseHour: 21}, time.Local)
}

// Location returns the schedule's timezone.
func (s *Schedule) Location() *time.Location {
	return s.loc
}

// hoursFor picks weekday or weekend hours for the given local date.
func (s *Schedule) hoursFor(date time.Time) Hours {
	if s.IsHoliday(date) || isWeekend(date) {
		return s.weekend
	}
	return s.weekday
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsOpen reports whether the facility is open at the given instant.
// The instant is converted into the schedule's location first. The closing
// minute itself (close_hour:00) still counts as open.
func (s *Schedule) IsOpen(t time.Time) bool {
	local := t.In(s.loc)
	h := s.hoursFor(local)
	hour, minute := local.Hour(), local.Minute()
	if hour >= h.OpenHour && hour < h.CloseHour {
		return true
	}
	return hour == h.CloseHour && minute == 0
}

// OpenHour returns the opening hour for the given local date.
func (s *Schedule) OpenHour(date time.Time) int {
	return s.hoursFor(date).OpenHour
}

// CloseHour returns the closing hour for the given local date.
func (s *Schedule) CloseHour(date time.Time) int {
	return s.hoursFor(date).CloseHour
}

// IsHoliday reports whether the given local date is a public holiday.
func (s *Schedule) IsHoliday(date time.Time) bool {
	return IsPublicHoliday(date)
}
