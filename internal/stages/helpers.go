package stages

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/umangjaipuria/podcast-summary/internal/logging"
)

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return logger.With(logging.String("component", component))
}

// truncateRunes caps text at limit runes, trimming at the boundary. A zero or
// negative limit disables truncation.
func truncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit]))
}
