package utils

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	slugMaxLen     = 50
	excerptMaxLen  = 120
	wordsPerMinute = 200
)

var (
	nonAlnumRuns = regexp.MustCompile(`[^a-z0-9]+`)
	htmlTags     = regexp.MustCompile(`<[^>]*>`)
)

// Slugify derives a URL-safe identifier from a post title: lowercased, runs
// of non-alphanumeric characters collapsed to single hyphens, leading and
// trailing hyphens trimmed, capped to 50 characters.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = nonAlnumRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > slugMaxLen {
		s = s[:slugMaxLen]
	}
	return s
}

// Excerpt returns the tag-stripped content capped to 120 characters, with an
// ellipsis appended when truncated.
func Excerpt(content string) string {
	text := htmlTags.ReplaceAllString(content, "")
	r := []rune(text)
	if len(r) > excerptMaxLen {
		return string(r[:excerptMaxLen]) + "..."
	}
	return text
}

// ReadTime estimates reading time from the tag-stripped word count at 200
// words per minute, with a minimum of one minute.
func ReadTime(content string) string {
	text := htmlTags.ReplaceAllString(content, "")
	words := len(strings.Fields(text))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// NormalizeTag trims and lowercases a tag name. Commas are removed because
// tag sets travel through a comma-joined aggregate on the read path. An
// empty result means the tag should be dropped.
func NormalizeTag(name string) string {
	s := strings.ReplaceAll(name, ",", "")
	return strings.ToLower(strings.TrimSpace(s))
}
