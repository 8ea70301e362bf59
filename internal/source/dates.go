package source

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	yesterday   = regexp.MustCompile(`(?i)\bhier\b`)
	relativeAgo = regexp.MustCompile(`(?i)il\s+y\s+a\s+(\d+)\+?\s*(minutes?|heures?|jours?|semaines?|mois|ans?)\b`)
)

// RelativeDate converts French freshness text such as "Il y a 5 jours" to a
// calendar date relative to now. A month is 30 days, a year 365. Returns
// false when text carries no recognizable freshness.
func RelativeDate(text string, now time.Time) (time.Time, bool) {
	today := truncateDay(now)
	lower := strings.ToLower(strings.ReplaceAll(text, "’", "'"))

	switch {
	case strings.Contains(lower, "aujourd'hui"):
		return today, true
	case yesterday.MatchString(lower):
		return today.AddDate(0, 0, -1), true
	}

	m := relativeAgo.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	var days int
	switch unit := strings.ToLower(m[2]); {
	case strings.HasPrefix(unit, "minute"), strings.HasPrefix(unit, "heure"):
		// Anything under a day resolves against now, not today's midnight.
		d := time.Minute
		if strings.HasPrefix(unit, "heure") {
			d = time.Hour
		}
		return truncateDay(now.Add(-time.Duration(n) * d)), true
	case strings.HasPrefix(unit, "jour"):
		days = n
	case strings.HasPrefix(unit, "semaine"):
		days = n * 7
	case unit == "mois":
		days = n * 30
	default:
		days = n * 365
	}
	return today.AddDate(0, 0, -days), true
}

var frenchMonths = strings.NewReplacer(
	"janvier", "january",
	"février", "february",
	"fevrier", "february",
	"mars", "march",
	"avril", "april",
	"mai", "may",
	"juin", "june",
	"juillet", "july",
	"août", "august",
	"aout", "august",
	"septembre", "september",
	"octobre", "october",
	"novembre", "november",
	"décembre", "december",
	"decembre", "december",
)

var frenchNoise = strings.NewReplacer(
	"publiée le", "",
	"le ", "",
	" à ", " ",
	"lundi", "", "mardi", "", "mercredi", "", "jeudi", "",
	"vendredi", "", "samedi", "", "dimanche", "",
)

// ParseDate parses an absolute date written in French or numeric form
// ("2025-05-01", "01/05/2025", "1 mai 2025"). Numeric dates are read day
// first. The result is a calendar date at UTC midnight.
func ParseDate(text string) (time.Time, bool) {
	s := strings.ToLower(CleanText(text))
	if s == "" {
		return time.Time{}, false
	}
	s = frenchNoise.Replace(s)
	s = strings.TrimSpace(frenchMonths.Replace(s))

	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
