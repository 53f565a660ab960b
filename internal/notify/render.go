package notify

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/umangjaipuria/podcast-summary/internal/services"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
)

// renderMarkdown converts a markdown summary into the HTML body of an email.
func renderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", services.Wrap(services.ErrValidation, "notify", "render", "convert markdown", err)
	}
	return buf.String(), nil
}

func summaryHTML(email SummaryEmail) (string, error) {
	body, err := renderMarkdown(email.SummaryMarkdown)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(email.EpisodeTitle))
	fmt.Fprintf(&b, "<p><em>%s", html.EscapeString(email.PodcastName))
	if !email.Published.IsZero() {
		fmt.Fprintf(&b, " &middot; %s", email.Published.Format("January 2, 2006"))
	}
	b.WriteString("</em></p><hr>")
	b.WriteString(body)
	b.WriteString("</body></html>")
	return b.String(), nil
}

func failureReportHTML(failures []FailureEntry) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h1>Processing failures (%d)</h1>", len(failures))
	b.WriteString("<ul>")
	for _, f := range failures {
		fmt.Fprintf(&b, "<li><strong>%s</strong>: %s",
			html.EscapeString(f.PodcastName), html.EscapeString(f.EpisodeTitle))
		if msg := strings.TrimSpace(f.ErrorMessage); msg != "" {
			fmt.Fprintf(&b, "<br>%s", html.EscapeString(msg))
		}
		if !f.FailedAt.IsZero() {
			fmt.Fprintf(&b, "<br><em>%s</em>", f.FailedAt.Format(time.RFC1123))
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}
