package feed

import (
	"strconv"
	"strings"
)

// ParseDuration converts an itunes:duration value into seconds. The tag
// carries either plain seconds ("5400"), MM:SS, or HH:MM:SS. Unparseable or
// absent values return 0, meaning unknown.
func ParseDuration(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0
	}

	var total int64
	for _, part := range parts {
		part = strings.TrimSpace(part)
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	if total < 0 {
		return 0
	}
	return total
}
