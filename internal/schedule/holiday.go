package schedule

import "time"

// fixedHolidays are the Bavarian public holidays that fall on the same
// calendar date every year.
var fixedHolidays = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},   // Neujahr
	{time.January, 6},   // Heilige Drei Koenige
	{time.May, 1},       // Tag der Arbeit
	{time.August, 15},   // Mariae Himmelfahrt
	{time.October, 3},   // Tag der Deutschen Einheit
	{time.November, 1},  // Allerheiligen
	{time.December, 25}, // 1. Weihnachtstag
	{time.December, 26}, // 2. Weihnachtstag
}

// easterOffsets are the movable holidays, as day offsets from Easter Sunday.
var easterOffsets = []int{
	-2, // Karfreitag
	1,  // Ostermontag
	39, // Christi Himmelfahrt
	50, // Pfingstmontag
	60, // Fronleichnam
}

// IsPublicHoliday reports whether the given date is a Bavarian public
// holiday. Only the date components are examined.
func IsPublicHoliday(date time.Time) bool {
	y, m, d := date.Date()
	for _, f := range fixedHolidays {
		if m == f.month && d == f.day {
			return true
		}
	}
	easter := easterSunday(y)
	for _, off := range easterOffsets {
		h := easter.AddDate(0, 0, off)
		hy, hm, hd := h.Date()
		if y == hy && m == hm && d == hd {
			return true
		}
	}
	return false
}

// easterSunday computes the Gregorian date of Easter Sunday using the
// anonymous Gregorian (Meeus/Jones/Butcher) algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
