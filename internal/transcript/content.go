package transcript

import (
	"regexp"
	"strings"
)

// envelopeHeader matches a leading bracketed transport header such as
// "[Telegram chat 2024-01-01 09:00 GMT+0]". The channel word varies; the
// date/time/zone tail is what identifies it as an envelope.
var envelopeHeader = regexp.MustCompile(`(?s)^\[\w+\s+.*?\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}\s+GMT[+-]\d+\]\s*`)

// envelopeFooter matches a trailing "[message_id: 42]" marker.
var envelopeFooter = regexp.MustCompile(`\n?\[message_id:\s*\d+\]\s*$`)

// ExtractText returns the plain text of content. Plain content is trimmed;
// block content is the newline-joined text of its text blocks; the empty
// variant yields "".
func ExtractText(c Content) string {
	switch c.kind {
	case contentPlain:
		return strings.TrimSpace(c.plain)
	case contentBlocks:
		var texts []string
		for _, b := range c.blocks {
			if b.Type == "text" {
				texts = append(texts, b.Text)
			}
		}
		return strings.TrimSpace(strings.Join(texts, "\n"))
	default:
		return ""
	}
}

// StripEnvelope removes the transport metadata wrapper from user-authored
// text: a leading channel/timestamp header and a trailing message-id marker.
// Returns the trimmed remainder, which may be empty.
func StripEnvelope(text string) string {
	text = envelopeHeader.ReplaceAllString(text, "")
	text = envelopeFooter.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
