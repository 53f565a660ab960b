package feed

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Episode is one feed item with the fields admission and the pipeline need.
type Episode struct {
	GUID            string
	Title           string
	Description     string
	Link            string
	AudioURL        string
	AudioType       string
	ImageURL        string
	PublishedAt     *time.Time
	DurationSeconds int64
	EnclosureBytes  int64
	RawJSON         string
}

// Channel is a parsed feed: channel metadata plus items newest first.
type Channel struct {
	Title       string
	Description string
	Link        string
	ImageURL    string
	Episodes    []Episode
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string     `xml:"title"`
	Description string     `xml:"description"`
	Link        string     `xml:"link"`
	Image       rssImage   `xml:"image"`
	ItunesImage itunesHref `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
	Items       []rssItem  `xml:"item"`
}

type rssImage struct {
	URL string `xml:"url"`
}

type itunesHref struct {
	Href string `xml:"href,attr"`
}

type rssItem struct {
	GUID        rssGUID      `xml:"guid"`
	Title       string       `xml:"title"`
	Description string       `xml:"description"`
	Link        string       `xml:"link"`
	PubDate     string       `xml:"pubDate"`
	Enclosure   rssEnclosure `xml:"enclosure"`
	Duration    string       `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	ItunesImage itunesHref   `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
	Summary     string       `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd summary"`
}

type rssGUID struct {
	Value string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Parse decodes an RSS feed document. Items missing both a guid and an
// enclosure URL are dropped; everything else is kept and left for admission
// policy to judge.
func Parse(data []byte) (*Channel, error) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}

	channel := &Channel{
		Title:       strings.TrimSpace(doc.Channel.Title),
		Description: strings.TrimSpace(doc.Channel.Description),
		Link:        strings.TrimSpace(doc.Channel.Link),
		ImageURL:    strings.TrimSpace(doc.Channel.Image.URL),
	}
	if channel.ImageURL == "" {
		channel.ImageURL = strings.TrimSpace(doc.Channel.ItunesImage.Href)
	}

	for _, item := range doc.Channel.Items {
		episode := Episode{
			GUID:        strings.TrimSpace(item.GUID.Value),
			Title:       strings.TrimSpace(item.Title),
			Description: strings.TrimSpace(item.Description),
			Link:        strings.TrimSpace(item.Link),
			AudioURL:    strings.TrimSpace(item.Enclosure.URL),
			AudioType:   strings.TrimSpace(item.Enclosure.Type),
			ImageURL:    strings.TrimSpace(item.ItunesImage.Href),
		}
		if episode.GUID == "" {
			episode.GUID = episode.AudioURL
		}
		if episode.GUID == "" {
			continue
		}
		if episode.Description == "" {
			episode.Description = strings.TrimSpace(item.Summary)
		}
		if published, ok := parsePubDate(item.PubDate); ok {
			episode.PublishedAt = &published
		}
		episode.DurationSeconds = ParseDuration(item.Duration)
		episode.EnclosureBytes = parseEnclosureLength(item.Enclosure.Length)
		episode.RawJSON = rawItemJSON(item)

		channel.Episodes = append(channel.Episodes, episode)
	}

	return channel, nil
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parsePubDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range pubDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseEnclosureLength(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	var length int64
	if _, err := fmt.Sscanf(value, "%d", &length); err != nil || length < 0 {
		return 0
	}
	return length
}

// rawItemJSON captures the feed item verbatim as uninterpreted text for
// later inspection. Marshal failures yield an empty payload, never an error.
func rawItemJSON(item rssItem) string {
	payload := map[string]string{
		"guid":             item.GUID.Value,
		"title":            item.Title,
		"description":      item.Description,
		"link":             item.Link,
		"pub_date":         item.PubDate,
		"duration":         item.Duration,
		"enclosure_url":    item.Enclosure.URL,
		"enclosure_length": item.Enclosure.Length,
		"enclosure_type":   item.Enclosure.Type,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(encoded)
}
