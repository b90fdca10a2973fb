package enrich

import (
	"strings"
	"time"
)

// sign ends on the given month and day, inclusive.
type sign struct {
	name  string
	month time.Month
	day   int
}

// Tropical zodiac, ordered by end date within the calendar year. Capricorn
// wraps the year and appears twice.
var signs = []sign{
	{"Capricorn", time.January, 19},
	{"Aquarius", time.February, 18},
	{"Pisces", time.March, 20},
	{"Aries", time.April, 19},
	{"Taurus", time.May, 20},
	{"Gemini", time.June, 20},
	{"Cancer", time.July, 22},
	{"Leo", time.August, 22},
	{"Virgo", time.September, 22},
	{"Libra", time.October, 22},
	{"Scorpio", time.November, 21},
	{"Sagittarius", time.December, 21},
	{"Capricorn", time.December, 31},
}

// Zodiac returns the sign for a YYYY-MM-DD birthday.
func Zodiac(birthday string) (string, bool) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(birthday))
	if err != nil {
		return "", false
	}
	month, day := date.Month(), date.Day()
	for _, s := range signs {
		if month < s.month || (month == s.month && day <= s.day) {
			return s.name, true
		}
	}
	return "", false
}
