package cache

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Default validity windows. Aircraft listings change often; families rarely do.
const (
	DefaultCatalogTTL = 72 * time.Hour
	DefaultFamilyTTL  = 168 * time.Hour
	DefaultStationTTL = 168 * time.Hour
)

var ttlRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

// ParseTTL parses a TTL string like "7d", "72h", "30m" into a time.Duration.
// Anything time.ParseDuration accepts is also allowed.
func ParseTTL(s string) (time.Duration, error) {
	m := ttlRegex.FindStringSubmatch(s)
	if m == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid format %q (use e.g. 7d, 72h, 30m, 60s)", s)
		}
		return d, nil
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	}
	return 0, fmt.Errorf("unknown unit %q", m[2])
}
