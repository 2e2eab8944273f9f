package relay

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// captionFor renders the configured caption template for a source name.
// The {title} placeholder receives the cleaned, title-cased file name;
// configured hashtags are appended on a separate line.
func (r *Relay) captionFor(sourceName string) string {
	caption := strings.ReplaceAll(r.cfg.Destination.CaptionTemplate, "{title}", cleanTitle(sourceName))
	caption = strings.TrimSpace(caption)

	tags := make([]string, 0, len(r.cfg.Destination.Hashtags))
	for _, tag := range r.cfg.Destination.Hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	if len(tags) > 0 {
		caption = strings.TrimSpace(caption + "\n\n" + strings.Join(tags, " "))
	}
	return caption
}

// cleanTitle turns a file name into a human caption title: extension
// stripped, separators spaced, words title-cased.
func cleanTitle(sourceName string) string {
	base := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled"
	}
	return titleCaser.String(base)
}
