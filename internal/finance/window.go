package finance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is used when no window is given.
const DefaultWindow = "1m"

// ParseWindow turns a lookback like 30d, 6w, 3m or 1y into a Range ending
// after today (UTC). Months count as 30 days and years as 365.
func ParseWindow(window string, now time.Time) (Range, error) {
	if window == "" {
		window = DefaultWindow
	}
	window = strings.ToLower(strings.TrimSpace(window))
	if len(window) < 2 {
		return Range{}, fmt.Errorf("invalid window format: %s (use format like 30d, 6w, 3m, 1y)", window)
	}

	unit := window[len(window)-1]
	num, err := strconv.Atoi(window[:len(window)-1])
	if err != nil || num <= 0 {
		return Range{}, fmt.Errorf("invalid window format: %s (use format like 30d, 6w, 3m, 1y)", window)
	}

	var days int
	switch unit {
	case 'd':
		days = num
	case 'w':
		days = num * 7
	case 'm':
		days = num * 30
	case 'y':
		days = num * 365
	default:
		return Range{}, fmt.Errorf("invalid window format: %s (use format like 30d, 6w, 3m, 1y)", window)
	}
	if days > 10*365 {
		return Range{}, fmt.Errorf("window %s is longer than 10 years", window)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Range{
		Start: today.AddDate(0, 0, -days),
		End:   today.AddDate(0, 0, 1),
	}, nil
}

// LooksLikeWindow reports whether s has the shape of a window argument.
func LooksLikeWindow(s string) bool {
	s = strings.ToLower(s)
	if len(s) < 2 || !strings.ContainsRune("dwmy", rune(s[len(s)-1])) {
		return false
	}
	_, err := strconv.Atoi(s[:len(s)-1])
	return err == nil
}
