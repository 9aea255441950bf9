package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ParseRateLimit reads "<n>/<unit>" (unit second, minute or hour) into a
// token rate and a burst of n.
func ParseRateLimit(s string) (rate.Limit, int, error) {
	count, unit, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, 0, fmt.Errorf("rate limit %q: want <n>/<unit>", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("rate limit %q: count must be a positive integer", s)
	}

	var per time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "second", "s", "sec":
		per = time.Second
	case "minute", "m", "min":
		per = time.Minute
	case "hour", "h":
		per = time.Hour
	default:
		return 0, 0, fmt.Errorf("rate limit %q: unknown unit %q", s, unit)
	}

	return rate.Every(per / time.Duration(n)), n, nil
}
