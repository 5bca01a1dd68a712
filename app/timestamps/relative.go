package timestamps

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// LocaleLayout renders timestamps the way the editor shows "saved at" values,
// e.g. "10/19/2026, 3:04:05 PM".
const LocaleLayout = "1/2/2006, 3:04:05 PM"

// FormatLocale formats t with LocaleLayout in t's location
func FormatLocale(t time.Time) string {
	return t.Format(LocaleLayout)
}

// ParseLocale parses a LocaleLayout string in loc. It also accepts RFC 3339
// so records written by other tools still restore.
func ParseLocale(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(LocaleLayout, s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Distance describes the time between then and now in words, without a suffix:
// "less than a minute", "5 minutes", "about 2 hours", "3 days", "about 1 year".
func Distance(then, now time.Time) string {
	d := now.Sub(then)
	if d < 0 {
		d = -d
	}
	minutes := int(math.Round(d.Minutes()))
	switch {
	case minutes < 1:
		return "less than a minute"
	case minutes == 1:
		return "1 minute"
	case minutes < 45:
		return fmt.Sprintf("%d minutes", minutes)
	case minutes < 90:
		return "about 1 hour"
	case minutes < 24*60:
		return fmt.Sprintf("about %d hours", int(math.Round(float64(minutes)/60)))
	case minutes < 42*60:
		return "1 day"
	case minutes < 30*24*60:
		return fmt.Sprintf("%d days", int(math.Round(float64(minutes)/(24*60))))
	case minutes < 45*24*60:
		return "about 1 month"
	case minutes < 365*24*60:
		return fmt.Sprintf("%d months", int(math.Round(float64(minutes)/(30*24*60))))
	default:
		years := int(math.Round(float64(minutes) / (365 * 24 * 60)))
		if years <= 1 {
			return "about 1 year"
		}
		return fmt.Sprintf("about %d years", years)
	}
}

// Ago is Distance with an " ago" suffix
func Ago(then, now time.Time) string {
	return Distance(then, now) + " ago"
}
