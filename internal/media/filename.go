package media

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLength = 80

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Filename builds the deterministic audio filename for an episode: a date or
// guid-hash prefix followed by a slug of the title. Identical inputs always
// produce the same name, so a re-run finds the artifact it wrote before.
func Filename(title string, published *time.Time, guid, ext string) string {
	prefix := guidPrefix(guid)
	if published != nil {
		prefix = published.UTC().Format("2006-01-02")
	}

	slug := Slugify(title)
	if slug == "" {
		slug = "episode"
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return prefix + "_" + slug + ext
}

// Slugify folds diacritics and lowers the title into a filesystem-safe slug.
func Slugify(value string) string {
	folded, _, err := transform.String(foldTransformer, value)
	if err != nil {
		folded = value
	}

	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	return slug
}

func guidPrefix(guid string) string {
	sum := sha256.Sum256([]byte(guid))
	return hex.EncodeToString(sum[:4])
}
